package compiler

import (
	"fmt"
	"strings"
)

// SyntaxError is a single diagnostic raised while parsing or emitting
// code for one statement. It mirrors the teacher's per-package XError
// structs (compiler.SemanticError, vm.RuntimeError): a plain struct
// with an Error() method, no wrapped stdlib error chain.
type SyntaxError struct {
	Line    int
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 [line %d] Error: %s", e.Line, e.Message)
}

// CompileError aggregates every SyntaxError a Compile call collected.
// The compiler never stops at the first error — it recovers via
// synchronize and keeps going — so callers need every diagnostic, not
// just the first.
type CompileError struct {
	Errors []SyntaxError
}

func (e CompileError) Error() string {
	lines := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		lines[i] = se.Error()
	}
	return strings.Join(lines, "\n")
}
