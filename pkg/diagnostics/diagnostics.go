// Package diagnostics defines setker's lexical, syntactic, and runtime
// diagnostic types and their wire formats.
package diagnostics

import (
	"encoding/json"
	"fmt"
)

// Diagnostic code constants. Each maps to exactly one of the three
// disjoint error classes and its fixed exit code (65 for ELex/ESyntax,
// 70 for everything else).
const (
	ELex                 = "E_LEX"
	ESyntax              = "E_SYNTAX"
	EUndefinedVariable   = "E_UNDEFINED_VARIABLE"
	EInvalidAssignTarget = "E_INVALID_ASSIGN_TARGET"
	EOperandType         = "E_OPERAND_TYPE"
	EArity               = "E_ARITY"
	ENotCallable         = "E_NOT_CALLABLE"
)

// ExitCode returns the process exit code mandated for a diagnostic code.
func ExitCode(code string) int {
	switch code {
	case ELex, ESyntax:
		return 65
	default:
		return 70
	}
}

// Diagnostic represents a single lexical, syntactic, or runtime error.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line"`
}

// New creates a Diagnostic.
func New(code string, line int, message string) Diagnostic {
	return Diagnostic{Code: code, Message: message, Line: line}
}

// Newf creates a Diagnostic with a formatted message.
func Newf(code string, line int, format string, args ...any) Diagnostic {
	return New(code, line, fmt.Sprintf(format, args...))
}

// Plain renders a diagnostic as "[line L] <message>", where Message
// already contains the "Error: ..." or "Error at ...: ..." prefix
// produced by the scanner/parser/evaluator.
func Plain(d Diagnostic) string {
	return fmt.Sprintf("[line %d] %s", d.Line, d.Message)
}

// JSON renders a diagnostic as JSON, selected by the CLI's -json flag
// as an alternative to Plain's fixed wire text.
func JSON(d Diagnostic) string {
	b, _ := json.Marshal(d)
	return string(b)
}

// Error implements the error interface so a Diagnostic can be returned
// and type-asserted like any other Go error.
func (d Diagnostic) Error() string {
	return Plain(d)
}
