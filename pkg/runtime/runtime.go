// Package runtime wires the scanner, parser, and evaluator together
// behind the four CLI modes: tokenize, parse, evaluate, run.
package runtime

import (
	"io"
	"os"
	"strings"

	"github.com/thomasrohde/setker/pkg/ast"
	"github.com/thomasrohde/setker/pkg/diagnostics"
	"github.com/thomasrohde/setker/pkg/evaluator"
	"github.com/thomasrohde/setker/pkg/lexer"
	"github.com/thomasrohde/setker/pkg/parser"

	"fortio.org/log"
)

// Runtime wires together the language pipeline for program execution.
type Runtime struct {
	out     io.Writer
	verbose bool
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithOutput sets the writer that `print` and evaluate-mode output go to.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) { rt.out = w }
}

// WithVerbose raises the log level so pipeline-stage tracing (token
// counts, parsed statement counts) is emitted.
func WithVerbose(v bool) Option {
	return func(rt *Runtime) { rt.verbose = v }
}

// New creates a new Runtime with the given options. By default output
// goes to stdout and logging stays at warning level.
func New(opts ...Option) *Runtime {
	rt := &Runtime{out: os.Stdout}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.verbose {
		log.SetLogLevel(log.Debug)
	} else {
		log.SetLogLevel(log.Warning)
	}
	return rt
}

// Tokenize scans source and renders its token stream, one token per
// line, in "tokenize" mode's wire format.
func (rt *Runtime) Tokenize(source string) (string, []diagnostics.Diagnostic) {
	tokens, diags := lexer.ScanTokens(source)
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Print())
		b.WriteByte('\n')
	}
	return b.String(), diags
}

// Parse scans and parses source, returning the AST's S-expression form.
func (rt *Runtime) Parse(source string) (string, []diagnostics.Diagnostic) {
	prog, diags := rt.parseProgram(source)
	if len(diags) > 0 {
		return "", diags
	}
	return prog.String(), nil
}

// Evaluate scans, parses, and executes source, returning the printed
// form of its last top-level statement's value.
func (rt *Runtime) Evaluate(source string) (string, []diagnostics.Diagnostic) {
	prog, diags := rt.parseProgram(source)
	if len(diags) > 0 {
		return "", diags
	}
	return evaluator.New(rt.out).Evaluate(prog)
}

// Run scans, parses, and executes source for its side effects.
func (rt *Runtime) Run(source string) []diagnostics.Diagnostic {
	prog, diags := rt.parseProgram(source)
	if len(diags) > 0 {
		return diags
	}
	return evaluator.New(rt.out).Run(prog)
}

func (rt *Runtime) parseProgram(source string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, lexDiags := lexer.ScanTokens(source)
	if len(lexDiags) > 0 {
		return nil, lexDiags
	}
	prog, parseDiags := parser.Parse(tokens)
	if len(parseDiags) > 0 {
		return nil, parseDiags
	}
	return prog, nil
}
