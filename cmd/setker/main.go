// Command setker is the native setker CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thomasrohde/setker/pkg/diagnostics"
	"github.com/thomasrohde/setker/pkg/runtime"
)

const quickref = `setker <tokenize|parse|evaluate|run|help> [file]

Modes:
  tokenize <file>   print the token stream, one token per line
  parse <file>      print the parsed AST as an S-expression
  evaluate <file>   evaluate a single expression and print its value
  run <file>        execute a program for its side effects

Flags:
  -v       verbose pipeline logging
  -json    render diagnostics as JSON instead of plain text

Pass "-" as the file to read source from stdin.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, quickref)
		return 1
	}

	cmd := args[0]
	rest := args[1:]

	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		fmt.Print(quickref)
		return 0
	}

	var file string
	verbose := false
	jsonDiags := false
	for _, a := range rest {
		switch a {
		case "-v":
			verbose = true
		case "-json":
			jsonDiags = true
		default:
			if !strings.HasPrefix(a, "-") || a == "-" {
				file = a
			}
		}
	}
	if file == "" {
		fmt.Fprint(os.Stderr, quickref)
		return 1
	}

	source, err := readSource(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read file: %s\n", err)
		return 1
	}

	rt := runtime.New(runtime.WithOutput(os.Stdout), runtime.WithVerbose(verbose))

	switch cmd {
	case "tokenize":
		out, diags := rt.Tokenize(source)
		return reportTokenize(out, diags, jsonDiags)
	case "parse":
		out, diags := rt.Parse(source)
		return reportLine(out, diags, jsonDiags)
	case "evaluate":
		out, diags := rt.Evaluate(source)
		return reportLine(out, diags, jsonDiags)
	case "run":
		diags := rt.Run(source)
		return report("", diags, jsonDiags)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		return 1
	}
}

// report prints out (already newline-terminated) to stdout and any
// diagnostics to stderr, returning the process exit code.
func report(out string, diags []diagnostics.Diagnostic, jsonDiags bool) int {
	if len(diags) > 0 {
		printDiagnostics(diags, jsonDiags)
		return diagnostics.ExitCode(diags[0].Code)
	}
	fmt.Print(out)
	return 0
}

// reportTokenize always prints the collected token stream, even when
// the scanner also reports lexical errors: the scanner continues past
// an error rather than stopping, so the tokens it already gathered are
// still real output, not a partial/discarded attempt.
func reportTokenize(out string, diags []diagnostics.Diagnostic, jsonDiags bool) int {
	fmt.Print(out)
	if len(diags) > 0 {
		printDiagnostics(diags, jsonDiags)
		return diagnostics.ExitCode(diags[0].Code)
	}
	return 0
}

// reportLine is like report but appends the trailing newline itself,
// for modes whose success output is a single line (parse, evaluate).
func reportLine(out string, diags []diagnostics.Diagnostic, jsonDiags bool) int {
	if len(diags) > 0 {
		printDiagnostics(diags, jsonDiags)
		return diagnostics.ExitCode(diags[0].Code)
	}
	fmt.Println(out)
	return 0
}

func printDiagnostics(diags []diagnostics.Diagnostic, jsonDiags bool) {
	for _, d := range diags {
		if jsonDiags {
			fmt.Fprintln(os.Stderr, diagnostics.JSON(d))
		} else {
			fmt.Fprintln(os.Stderr, diagnostics.Plain(d))
		}
	}
}

func readSource(file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
