package vm

import "fmt"

// RuntimeError is raised when otherwise well-formed bytecode fails at
// execution time: a type mismatch on an arithmetic opcode, an
// undefined global, or a stack overflow or underflow. Line
// pinpoints the source line the failing instruction was compiled from,
// read back out of the chunk's line table. Grounded in the teacher's
// vm.RuntimeError, extended with a Line field since the teacher's VM
// never threaded line information through to its error type.
type RuntimeError struct {
	Line    int
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 [line %d] RuntimeError: %s", e.Line, e.Message)
}
