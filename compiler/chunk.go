package compiler

import "github.com/informatter/nilox/value"

// maxConstants is the byte-operand ceiling spec.md §3/§9 calls for: a
// single-byte OP_CONSTANT operand can only address 256 distinct slots.
const maxConstants = 256

// Chunk is a bytecode container: the instruction stream, its constants
// pool, and a parallel per-byte line table for runtime error reporting.
// Grounded in the teacher's compiler.Bytecode, split out into its own
// type (the teacher kept Instructions/ConstantsPool inline on Bytecode)
// and extended with the Lines array original_source/chunk.rs carries
// but the teacher never added.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Lines     []int
}

// NewChunk returns an empty chunk ready to be written into.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends one byte to the instruction stream, recording the
// source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends value v to the constants pool and returns its
// index. Callers must check the index against maxConstants themselves
// (the compiler turns an overflow into a CompileError instead of
// panicking here, since this is a library-level container).
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}
