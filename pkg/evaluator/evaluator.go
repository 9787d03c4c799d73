// Package evaluator implements the setker tree-walking evaluator: it
// walks an AST with an environment handle, producing a Value per node
// and performing print/runtime-error side effects along the way.
package evaluator

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/thomasrohde/setker/pkg/ast"
	"github.com/thomasrohde/setker/pkg/diagnostics"

	"fortio.org/log"
)

// Flow tags a statement executor's result: FlowNormal means control
// falls through to the next statement; FlowReturn means a `return` is
// unwinding and must propagate through every enclosing block/loop until
// the Call that catches it. A tagged result composes better with static
// analysis than exception-based control flow.
type Flow int

const (
	FlowNormal Flow = iota
	FlowReturn
)

// Evaluator walks a program against a single global environment,
// writing `print` and evaluate-mode output to out.
type Evaluator struct {
	global *Environment
	out    io.Writer
}

// New creates an Evaluator that writes program output to out.
func New(out io.Writer) *Evaluator {
	return &Evaluator{global: NewEnvironment(nil), out: out}
}

// Run executes prog for its side effects.
func (ev *Evaluator) Run(prog *ast.Program) []diagnostics.Diagnostic {
	_, diags := ev.execProgram(prog)
	return diags
}

// Evaluate executes prog and returns the printed form of its last
// top-level statement's value.
func (ev *Evaluator) Evaluate(prog *ast.Program) (string, []diagnostics.Diagnostic) {
	val, diags := ev.execProgram(prog)
	if len(diags) > 0 {
		return "", diags
	}
	return Print(val), nil
}

// execProgram executes the top-level statements in the global
// environment, tracking the 1-based index of the statement currently
// executing. A runtime error is reported with that index as its
// synthetic "[line N]" suffix — deliberately the top-level statement
// index, not the token's real source line.
func (ev *Evaluator) execProgram(prog *ast.Program) (Value, []diagnostics.Diagnostic) {
	var result Value = Nil{}
	for i, stmt := range prog.Statements {
		val, flow, err := ev.execStmt(stmt, ev.global)
		if err != nil {
			return nil, []diagnostics.Diagnostic{lineify(err, i+1)}
		}
		result = val
		if flow == FlowReturn {
			break
		}
	}
	log.LogVf("program executed, %d top-level statements", len(prog.Statements))
	return result, nil
}

func lineify(err error, line int) diagnostics.Diagnostic {
	if d, ok := err.(diagnostics.Diagnostic); ok {
		d.Line = line
		return d
	}
	return diagnostics.New(diagnostics.EOperandType, line, err.Error())
}

// execStmt dispatches a single statement and returns its value (used
// when it is the last statement of a Program/Block, for evaluate mode),
// its control-flow tag, and any runtime error.
func (ev *Evaluator) execStmt(stmt ast.Stmt, env *Environment) (Value, Flow, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v, err := ev.evalExpr(s.Expr, env)
		return v, FlowNormal, err

	case *ast.PrintStmt:
		v, err := ev.evalExpr(s.Expr, env)
		if err != nil {
			return nil, FlowNormal, err
		}
		fmt.Fprintln(ev.out, Print(v))
		return Nil{}, FlowNormal, nil

	case *ast.VarDecl:
		var v Value = Nil{}
		if s.Init != nil {
			var err error
			v, err = ev.evalExpr(s.Init, env)
			if err != nil {
				return nil, FlowNormal, err
			}
		}
		env.Define(s.Name, v)
		return v, FlowNormal, nil

	case *ast.FunStmt:
		fn := &Function{Name: s.Name, Params: s.Params, Body: s.Body, Closure: env}
		env.Define(s.Name, fn)
		return fn, FlowNormal, nil

	case *ast.Block:
		return ev.execStatements(s.Statements, env.Child())

	case *ast.IfStmt:
		cond, err := ev.evalExpr(s.Cond, env)
		if err != nil {
			return nil, FlowNormal, err
		}
		if Truthy(cond) {
			return ev.execStmt(s.Then, env)
		}
		if s.Else != nil {
			return ev.execStmt(s.Else, env)
		}
		return Nil{}, FlowNormal, nil

	case *ast.WhileStmt:
		for {
			cond, err := ev.evalExpr(s.Cond, env)
			if err != nil {
				return nil, FlowNormal, err
			}
			if !Truthy(cond) {
				break
			}
			v, flow, err := ev.execStmt(s.Body, env)
			if err != nil {
				return nil, FlowNormal, err
			}
			if flow == FlowReturn {
				return v, FlowReturn, nil
			}
		}
		return Nil{}, FlowNormal, nil

	case *ast.ReturnStmt:
		var v Value = Nil{}
		if s.Value != nil {
			var err error
			v, err = ev.evalExpr(s.Value, env)
			if err != nil {
				return nil, FlowNormal, err
			}
		}
		return v, FlowReturn, nil

	default:
		return Nil{}, FlowNormal, nil
	}
}

// execStatements runs a statement list in env without creating a child
// frame of its own — used both for a `{ }` block (which creates the
// child frame itself before calling in) and for a function body (whose
// frame is the call frame created by evalCall).
func (ev *Evaluator) execStatements(stmts []ast.Stmt, env *Environment) (Value, Flow, error) {
	var result Value = Nil{}
	for _, stmt := range stmts {
		v, flow, err := ev.execStmt(stmt, env)
		if err != nil {
			return nil, FlowNormal, err
		}
		result = v
		if flow == FlowReturn {
			return v, FlowReturn, nil
		}
	}
	return result, FlowNormal, nil
}

// --- expressions ---

func (ev *Evaluator) evalExpr(expr ast.Expr, env *Environment) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return Number{Value: e.Value}, nil
	case *ast.StringLit:
		return String{Value: e.Value}, nil
	case *ast.BoolLit:
		return Bool{Value: e.Value}, nil
	case *ast.NilLit:
		return Nil{}, nil
	case *ast.Variable:
		v, ok := env.Get(e.Name)
		if !ok {
			return nil, undefinedVariable(e.Name)
		}
		return v, nil
	case *ast.Assign:
		v, err := ev.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if !env.Assign(e.Name, v) {
			return nil, undefinedVariable(e.Name)
		}
		return v, nil
	case *ast.Group:
		return ev.evalExpr(e.Inner, env)
	case *ast.Unary:
		return ev.evalUnary(e, env)
	case *ast.Logical:
		return ev.evalLogical(e, env)
	case *ast.Binary:
		return ev.evalBinary(e, env)
	case *ast.Call:
		return ev.evalCall(e, env)
	default:
		return Nil{}, nil
	}
}

func (ev *Evaluator) evalUnary(e *ast.Unary, env *Environment) (Value, error) {
	operand, err := ev.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "!":
		return Bool{Value: !Truthy(operand)}, nil
	case "-":
		n, ok := operand.(Number)
		if !ok {
			return nil, operandMustBeNumber()
		}
		return Number{Value: -n.Value}, nil
	default:
		return nil, fmt.Errorf("unknown unary operator %q", e.Op)
	}
}

func (ev *Evaluator) evalLogical(e *ast.Logical, env *Environment) (Value, error) {
	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	if e.Op == "or" {
		if Truthy(left) {
			return left, nil
		}
		return ev.evalExpr(e.Right, env)
	}
	if !Truthy(left) {
		return left, nil
	}
	return ev.evalExpr(e.Right, env)
}

func (ev *Evaluator) evalBinary(e *ast.Binary, env *Environment) (Value, error) {
	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "+":
		return evalAdd(left, right)
	case "-":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Number{Value: ln - rn}, nil
	case "*":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Number{Value: ln * rn}, nil
	case "/":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Number{Value: ln / rn}, nil
	case "%":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Number{Value: math.Mod(ln, rn)}, nil
	case "==":
		return Bool{Value: Equal(left, right)}, nil
	case "!=":
		return Bool{Value: !Equal(left, right)}, nil
	case "<":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Bool{Value: ln < rn}, nil
	case "<=":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Bool{Value: ln <= rn}, nil
	case ">":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Bool{Value: ln > rn}, nil
	case ">=":
		ln, rn, ok := bothNumbers(left, right)
		if !ok {
			return nil, operandsMustBeNumbers()
		}
		return Bool{Value: ln >= rn}, nil
	default:
		return nil, fmt.Errorf("unknown binary operator %q", e.Op)
	}
}

func bothNumbers(left, right Value) (float64, float64, bool) {
	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return 0, 0, false
	}
	return ln.Value, rn.Value, true
}

// evalAdd implements setker's mixed-type `+`: two strings concatenate;
// a string with a number/boolean/nil concatenates using that side's
// canonical print form; two numbers add; anything else is a type error.
func evalAdd(left, right Value) (Value, error) {
	ls, lIsString := left.(String)
	rs, rIsString := right.(String)
	if lIsString && rIsString {
		return String{Value: ls.Value + rs.Value}, nil
	}
	if lIsString && isPrintableScalar(right) {
		return String{Value: ls.Value + Print(right)}, nil
	}
	if rIsString && isPrintableScalar(left) {
		return String{Value: Print(left) + rs.Value}, nil
	}
	ln, rn, ok := bothNumbers(left, right)
	if ok {
		return Number{Value: ln + rn}, nil
	}
	return nil, operandsMustBeNumbers()
}

func isPrintableScalar(v Value) bool {
	switch v.(type) {
	case Number, Bool, Nil:
		return true
	default:
		return false
	}
}

func (ev *Evaluator) evalCall(e *ast.Call, env *Environment) (Value, error) {
	if e.Callee == "clock" {
		for _, a := range e.Args {
			if _, err := ev.evalExpr(a, env); err != nil {
				return nil, err
			}
		}
		return Number{Value: float64(time.Now().UnixNano()) / 1e9}, nil
	}
	if e.Callee == "" {
		return nil, diagnostics.New(diagnostics.ENotCallable, 0, "Error: Can only call functions.")
	}

	callee, ok := env.Get(e.Callee)
	if !ok {
		return nil, undefinedVariable(e.Callee)
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, diagnostics.New(diagnostics.ENotCallable, 0, "Error: Can only call functions.")
	}
	if len(e.Args) != len(fn.Params) {
		return nil, diagnostics.Newf(diagnostics.EArity, 0, "Error: Expected %d args but got %d.", len(fn.Params), len(e.Args))
	}

	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := ev.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	callEnv := fn.Closure.Child()
	for i, param := range fn.Params {
		callEnv.Define(param, args[i])
	}
	result, flow, err := ev.execStatements(fn.Body.Statements, callEnv)
	if err != nil {
		return nil, err
	}
	if flow == FlowReturn {
		return result, nil
	}
	return Nil{}, nil
}

func undefinedVariable(name string) error {
	return diagnostics.Newf(diagnostics.EUndefinedVariable, 0, "Error: Undefined variable '%s'.", name)
}

func operandMustBeNumber() error {
	return diagnostics.New(diagnostics.EOperandType, 0, "Error: Operand must be a number.")
}

func operandsMustBeNumbers() error {
	return diagnostics.New(diagnostics.EOperandType, 0, "Error: Operands must be numbers.")
}
