package evaluator

import (
	"math"
	"strconv"

	"github.com/thomasrohde/setker/pkg/ast"
)

// Value is the interface for all setker runtime values. The sealed
// marker method restricts implementations to this package.
type Value interface {
	isValue() // sealed marker
}

// Nil is the absence of a value.
type Nil struct{}

func (Nil) isValue() {}

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (Bool) isValue() {}

// Number is a double-precision float value.
type Number struct {
	Value float64
}

func (Number) isValue() {}

// String is a text value.
type String struct {
	Value string
}

func (String) isValue() {}

// Function is a first-class function value: its name, parameter names
// in order, its body, and the environment captured at the point of
// declaration (enabling closures).
type Function struct {
	Name    string
	Params  []string
	Body    *ast.Block
	Closure *Environment
}

func (*Function) isValue() {}

// Truthy reports whether v is truthy. Nil and Bool(false) are falsy;
// everything else — including 0, "", and Bool(true) — is truthy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case Nil:
		return false
	case Bool:
		return val.Value
	default:
		return true
	}
}

// Equal implements setker's type-aware equality: only values of
// identical tag ever compare equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x.Value == y.Value
	case Number:
		y, ok := b.(Number)
		return ok && x.Value == y.Value
	case String:
		y, ok := b.(String)
		return ok && x.Value == y.Value
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	default:
		return false
	}
}

// Print renders v in setker's canonical runtime textual form, used by
// `print`, the evaluate-mode final value, and mixed-type `+`
// concatenation. Unlike the AST pretty-printer, integral numbers print
// without a trailing ".0" — evaluate-mode `(3 + 4) * 2` prints "14",
// not "14.0".
func Print(v Value) string {
	switch val := v.(type) {
	case Nil:
		return "nil"
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case Number:
		return formatRuntimeNumber(val.Value)
	case String:
		return val.Value
	case *Function:
		return "<fn " + val.Name + ">"
	default:
		return ""
	}
}

func formatRuntimeNumber(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	if math.IsNaN(v) {
		return "nan"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
