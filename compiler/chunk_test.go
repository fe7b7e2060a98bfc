package compiler

import (
	"testing"

	"github.com/informatter/nilox/value"
)

func TestChunkWriteAppendsCodeAndLines(t *testing.T) {
	chunk := NewChunk()
	chunk.Write(byte(OpNil), 1)
	chunk.Write(byte(OpReturn), 1)

	if len(chunk.Code) != 2 {
		t.Fatalf("len(Code) = %d, want 2", len(chunk.Code))
	}
	if chunk.Lines[0] != 1 || chunk.Lines[1] != 1 {
		t.Errorf("Lines = %v, want [1 1]", chunk.Lines)
	}
}

func TestChunkAddConstant(t *testing.T) {
	chunk := NewChunk()
	index := chunk.AddConstant(value.Number_(42))
	if index != 0 {
		t.Fatalf("AddConstant() = %d, want 0", index)
	}
	if !chunk.Constants[0].Equal(value.Number_(42)) {
		t.Errorf("Constants[0] = %v, want 42", chunk.Constants[0])
	}

	second := chunk.AddConstant(value.Number_(7))
	if second != 1 {
		t.Errorf("AddConstant() = %d, want 1", second)
	}
}
