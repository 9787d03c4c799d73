package lexer_test

import (
	"testing"

	"github.com/thomasrohde/setker/pkg/lexer"
)

// FuzzScanTokens feeds random inputs to the scanner to catch panics. The
// scanner should never panic — unrecognized input becomes a diagnostic.
func FuzzScanTokens(f *testing.F) {
	seeds := []string{
		`var x = 42;`,
		`fun f(a, b) { return a + b; }`,
		`"hello" "" "unterminated`,
		`+ - * / % > < >= <= == != = !`,
		`{ } ( ) [ ] , . ; :`,
		`// comment`,
		`<| block comment |>`,
		`<| unterminated block comment`,
		`1 1. 1.5 1.500 .5`,
		``,
		"   \t\n\r",
		`@#$^&`,
		`and or nil true false print return var while for if else fun`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("ScanTokens panicked on input %q: %v", input, r)
			}
		}()
		lexer.ScanTokens(input)
	})
}
