package compiler

import (
	"testing"

	"github.com/informatter/nilox/intern"
	"github.com/informatter/nilox/value"
)

func TestCompileNumberLiteral(t *testing.T) {
	chunk, err := Compile("1;", intern.New())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if chunk.Code[0] != byte(OpConstant) {
		t.Fatalf("Code[0] = %v, want OpConstant", chunk.Code[0])
	}
	if !chunk.Constants[chunk.Code[1]].Equal(value.Number_(1)) {
		t.Errorf("constant = %v, want 1", chunk.Constants[chunk.Code[1]])
	}
	if chunk.Code[2] != byte(OpPop) {
		t.Errorf("Code[2] = %v, want OpPop", chunk.Code[2])
	}
}

func TestCompileGlobalVariableRoundTrip(t *testing.T) {
	chunk, err := Compile(`var a = 1; print a;`, intern.New())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	var sawDefine, sawGet bool
	for _, b := range chunk.Code {
		if OpCode(b) == OpDefineGlobal {
			sawDefine = true
		}
		if OpCode(b) == OpGetGlobal {
			sawGet = true
		}
	}
	if !sawDefine {
		t.Errorf("chunk never emitted OP_DEFINE_GLOBAL")
	}
	if !sawGet {
		t.Errorf("chunk never emitted OP_GET_GLOBAL")
	}
}

func TestCompileLocalScopeEmitsOnePopPerLocal(t *testing.T) {
	chunk, err := Compile(`{ var a = 1; var b = 2; }`, intern.New())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	popCount := 0
	for _, b := range chunk.Code {
		if OpCode(b) == OpPop {
			popCount++
		}
	}
	if popCount != 2 {
		t.Errorf("OP_POP count = %d, want 2 (one per dropped local)", popCount)
	}

	for _, b := range chunk.Code {
		if OpCode(b) == OpDefineGlobal {
			t.Errorf("locals must not emit OP_DEFINE_GLOBAL")
		}
	}
}

func TestCompileSelfReferencingLocalInitializerIsAnError(t *testing.T) {
	_, err := Compile(`{ var a = a; }`, intern.New())
	if err == nil {
		t.Fatal("Compile() error = nil, want an error for self-referencing initializer")
	}
}

func TestCompileIfElseEmitsRelativeJumps(t *testing.T) {
	chunk, err := Compile(`if (true) { print 1; } else { print 2; }`, intern.New())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	var sawJumpIfFalse, sawJump bool
	for _, b := range chunk.Code {
		if OpCode(b) == OpJumpIfFalse {
			sawJumpIfFalse = true
		}
		if OpCode(b) == OpJump {
			sawJump = true
		}
	}
	if !sawJumpIfFalse || !sawJump {
		t.Errorf("if/else did not emit both OP_JUMP_IF_FALSE and OP_JUMP")
	}

	// OP_JUMP_IF_FALSE at 1 skips to the else branch's OP_POP at 11, and
	// OP_JUMP at 8 skips to OP_RETURN at 15; each operand is the distance
	// from the end of its own operand bytes.
	if got := int(chunk.Code[2])<<8 | int(chunk.Code[3]); got != 7 {
		t.Errorf("OP_JUMP_IF_FALSE offset = %d, want 7", got)
	}
	if got := int(chunk.Code[9])<<8 | int(chunk.Code[10]); got != 4 {
		t.Errorf("OP_JUMP offset = %d, want 4", got)
	}
}

func TestCompileWhileEmitsLoop(t *testing.T) {
	chunk, err := Compile(`while (false) { print 1; }`, intern.New())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	sawLoop := false
	for _, b := range chunk.Code {
		if OpCode(b) == OpLoop {
			sawLoop = true
		}
	}
	if !sawLoop {
		t.Errorf("while did not emit OP_LOOP")
	}
}

func TestCompileSyntaxErrorCollectsMultiple(t *testing.T) {
	_, err := Compile(`var ; var ;`, intern.New())
	if err == nil {
		t.Fatal("Compile() error = nil, want syntax errors")
	}
	compileErr, ok := err.(CompileError)
	if !ok {
		t.Fatalf("error type = %T, want CompileError", err)
	}
	if len(compileErr.Errors) != 2 {
		t.Errorf("len(CompileError.Errors) = %d, want 2 (one per bad declaration)", len(compileErr.Errors))
	}
}

func TestCompileStringConcatenationShareInterning(t *testing.T) {
	interner := intern.New()
	chunk, err := Compile(`"a" + "a";`, interner)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(chunk.Constants) != 2 {
		t.Fatalf("len(Constants) = %d, want 2", len(chunk.Constants))
	}
	if chunk.Constants[0].Object != chunk.Constants[1].Object {
		t.Errorf("equal-content string literals were not interned to the same object")
	}
}
