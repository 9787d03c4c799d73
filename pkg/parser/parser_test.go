package parser_test

import (
	"testing"

	"github.com/thomasrohde/setker/pkg/ast"
	"github.com/thomasrohde/setker/pkg/diagnostics"
	"github.com/thomasrohde/setker/pkg/lexer"
	"github.com/thomasrohde/setker/pkg/parser"
)

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, lexDiags := lexer.ScanTokens(source)
	if len(lexDiags) > 0 {
		t.Fatalf("unexpected lexical diagnostics: %v", lexDiags)
	}
	prog, diags := parser.Parse(tokens)
	if len(diags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	if prog == nil {
		t.Fatal("expected non-nil program")
	}
	return prog
}

func mustFail(t *testing.T, source string) diagnostics.Diagnostic {
	t.Helper()
	tokens, _ := lexer.ScanTokens(source)
	prog, diags := parser.Parse(tokens)
	if len(diags) != 1 || prog != nil {
		t.Fatalf("expected exactly one parse diagnostic and nil program, got diags=%v prog=%v", diags, prog)
	}
	return diags[0]
}

func TestParseArithmeticPrecedence(t *testing.T) {
	prog := mustParse(t, "1 + 2 * 3;")
	want := "(+ 1.0 (* 2.0 3.0))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseComparisonChain(t *testing.T) {
	prog := mustParse(t, "1 < 2 == true;")
	want := "(== (< 1.0 2.0) true)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseUnaryAndGroup(t *testing.T) {
	prog := mustParse(t, "-(1 + 2);")
	want := "(- (group (+ 1.0 2.0)))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseLogicalAndOr(t *testing.T) {
	prog := mustParse(t, "true and false or true;")
	want := "(or (and true false) true)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseAssignment(t *testing.T) {
	prog := mustParse(t, "x = 1 + 2;")
	want := "(= x (+ 1.0 2.0))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	diag := mustFail(t, "1 = 2;")
	if diagnostics.ExitCode(diag.Code) != 65 {
		t.Errorf("got exit code %d, want 65", diagnostics.ExitCode(diag.Code))
	}
}

func TestParseVarDecl(t *testing.T) {
	prog := mustParse(t, "var x = 1;")
	want := "(var x = 1.0)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseVarDeclNoInit(t *testing.T) {
	prog := mustParse(t, "var x;")
	want := "(var x)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParsePrintStmt(t *testing.T) {
	prog := mustParse(t, `print "hi";`)
	want := "(print hi)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseBlock(t *testing.T) {
	prog := mustParse(t, "{ var x = 1; print x; }")
	want := "(block (var x = 1.0) (print x))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := mustParse(t, `if (true) print 1; else print 2;`)
	want := "(if true (print 1.0) (print 2.0))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseIfNoElse(t *testing.T) {
	prog := mustParse(t, `if (true) print 1;`)
	want := "(if true (print 1.0))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseDanglingElseBindsToNearestIf(t *testing.T) {
	prog := mustParse(t, `if (true) if (false) print 1; else print 2;`)
	want := "(if true (if false (print 1.0) (print 2.0)))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseWhile(t *testing.T) {
	prog := mustParse(t, `while (true) print 1;`)
	want := "(while true (print 1.0))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseForDesugarsToBlockWithWhile(t *testing.T) {
	prog := mustParse(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	want := "(block (var i = 0.0) (while (< i 3.0) (block (print i) (= i (+ i 1.0)))))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseForWithoutClausesDesugarsToBareWhile(t *testing.T) {
	prog := mustParse(t, `for (;;) print 1;`)
	want := "(while true (print 1.0))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseForRejectsVarDeclBody(t *testing.T) {
	diag := mustFail(t, `for (;;) var x = 1;`)
	if diagnostics.ExitCode(diag.Code) != 65 {
		t.Errorf("got exit code %d, want 65", diagnostics.ExitCode(diag.Code))
	}
}

func TestParseFunDecl(t *testing.T) {
	prog := mustParse(t, `fun add(a, b) { return a + b; }`)
	want := "(fun add (a b) (block (return (+ a b))))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseReturnNoValue(t *testing.T) {
	prog := mustParse(t, `fun f() { return; }`)
	want := "(fun f () (block (return)))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseCall(t *testing.T) {
	prog := mustParse(t, `add(1, 2);`)
	want := "(call add 1.0 2.0)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseCallNoArgs(t *testing.T) {
	prog := mustParse(t, `clock();`)
	want := "(call clock)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseMultipleTopLevelStatementsWrapInProgram(t *testing.T) {
	prog := mustParse(t, "var x = 1; print x;")
	want := "(program (var x = 1.0) (print x))"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseBareExpressionStatementTrailingSemicolonOptional(t *testing.T) {
	prog := mustParse(t, "1 + 1")
	want := "(+ 1.0 1.0)"
	if got := prog.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseMissingRightParenErrorsAtEOF(t *testing.T) {
	diag := mustFail(t, "(1 + 1")
	if got, want := diag.Message, "Error at end: Expect ')' after expression."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseUnexpectedTokenError(t *testing.T) {
	diag := mustFail(t, "var ;")
	if got, want := diag.Message, "Error at ';': Expect variable name."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseFirstErrorHaltsParsing(t *testing.T) {
	// the second statement's trailing garbage is never reached; only the
	// first error surfaces.
	diag := mustFail(t, "var ; print this is not valid >>> syntax")
	if diagnostics.ExitCode(diag.Code) != 65 {
		t.Errorf("got exit code %d, want 65", diagnostics.ExitCode(diag.Code))
	}
}
