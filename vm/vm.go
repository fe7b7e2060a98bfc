// Package vm implements the stack-based bytecode interpreter: given a
// compiler.Chunk, it fetches, decodes, and executes one instruction at
// a time, mutating a value stack and a globals table as it goes.
//
// The fetch-decode-execute loop, the ip field, and the New()
// constructor shape follow the teacher project's vm.VM.Run; the
// switch over individual opcodes is generalized from the teacher's
// single-case OP_CONSTANT/OP_END dispatch to the full table spec.md
// §4.4 and §5 describe, and the stack/globals/interning model is
// grounded in original_source/vm.rs.
package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/informatter/nilox/compiler"
	"github.com/informatter/nilox/intern"
	"github.com/informatter/nilox/value"
)

// VM is a reusable bytecode interpreter. One VM can Interpret many
// programs in sequence; its globals table and intern table persist
// across calls, the way a REPL session needs them to.
type VM struct {
	stack    Stack
	globals  map[string]value.Value
	interner *intern.Table

	chunk *compiler.Chunk
	ip    int
}

// New creates a VM with an empty globals table, sharing interner with
// whatever Compiler calls will compile the source this VM executes (so
// that a string constant produced by the compiler and a string built at
// runtime by OP_ADD intern to the same object).
func New(interner *intern.Table) *VM {
	return &VM{
		globals:  make(map[string]value.Value),
		interner: interner,
	}
}

// Interpret compiles source and, if compilation succeeds, runs the
// resulting chunk. It returns either a compiler.CompileError or a
// RuntimeError; a nil return means the program ran to completion.
func (vm *VM) Interpret(source string) error {
	chunk, err := compiler.Compile(source, vm.interner)
	if err != nil {
		return err
	}
	return vm.run(chunk)
}

// run executes chunk to completion. A stack overflow is signaled by
// vm.push via panic(RuntimeError{...}) rather than a return value,
// since every opcode case would otherwise need to thread an overflow
// check through; the deferred recover here is the catch point, mirroring
// how clox's own VM would longjmp out of the dispatch loop on a stack
// overflow instead of unwinding one C stack frame at a time.
func (vm *VM) run(chunk *compiler.Chunk) (err error) {
	vm.chunk = chunk
	vm.ip = 0
	vm.stack.Reset()

	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(RuntimeError)
			if !ok {
				panic(r)
			}
			vm.stack.Reset()
			err = re
		}
	}()

	for {
		line := vm.currentLine()
		op := compiler.OpCode(vm.readByte())

		switch op {
		case compiler.OpReturn:
			return nil

		case compiler.OpConstant:
			constant := vm.chunk.Constants[vm.readByte()]
			vm.push(constant)

		case compiler.OpNil:
			vm.push(value.NilValue)
		case compiler.OpTrue:
			vm.push(value.Bool_(true))
		case compiler.OpFalse:
			vm.push(value.Bool_(false))

		case compiler.OpPop:
			vm.pop()

		case compiler.OpGetLocal:
			slot := int(vm.readByte())
			vm.push(vm.stack.Get(slot))

		case compiler.OpSetLocal:
			slot := int(vm.readByte())
			v, ok := vm.stack.Peek(0)
			if !ok {
				return vm.runtimeError(line, "Stack underflow in OP_SET_LOCAL.")
			}
			vm.stack.Set(slot, v)

		case compiler.OpGetGlobal:
			name := vm.readConstant().Object
			v, ok := vm.globals[name.Chars]
			if !ok {
				return vm.runtimeError(line, fmt.Sprintf("Undefined variable '%s'.", name.Chars))
			}
			vm.push(v)

		case compiler.OpDefineGlobal:
			name := vm.readConstant().Object
			v, ok := vm.pop()
			if !ok {
				return vm.runtimeError(line, "Stack underflow in OP_DEFINE_GLOBAL.")
			}
			vm.globals[name.Chars] = v

		case compiler.OpSetGlobal:
			name := vm.readConstant().Object
			v, ok := vm.stack.Peek(0)
			if !ok {
				return vm.runtimeError(line, "Stack underflow in OP_SET_GLOBAL.")
			}
			if _, defined := vm.globals[name.Chars]; !defined {
				return vm.runtimeError(line, fmt.Sprintf("Undefined variable '%s'.", name.Chars))
			}
			vm.globals[name.Chars] = v

		case compiler.OpEqual:
			b, okB := vm.pop()
			a, okA := vm.pop()
			if !okA || !okB {
				return vm.runtimeError(line, "Stack underflow in OP_EQUAL.")
			}
			vm.push(value.Bool_(a.Equal(b)))

		case compiler.OpGreater, compiler.OpLess, compiler.OpSubtract,
			compiler.OpMultiply, compiler.OpDivide:
			if err := vm.numericBinary(op, line); err != nil {
				return err
			}

		case compiler.OpAdd:
			if err := vm.add(line); err != nil {
				return err
			}

		case compiler.OpNot:
			a, ok := vm.pop()
			if !ok {
				return vm.runtimeError(line, "Stack underflow in OP_NOT.")
			}
			vm.push(value.Bool_(a.IsFalsey()))

		case compiler.OpNegate:
			a, ok := vm.pop()
			if !ok {
				return vm.runtimeError(line, "Stack underflow in OP_NEGATE.")
			}
			if a.Kind != value.Number {
				return vm.runtimeError(line, "Operand must be a number.")
			}
			vm.push(value.Number_(-a.Num))

		case compiler.OpPrint:
			v, ok := vm.pop()
			if !ok {
				return vm.runtimeError(line, "Stack underflow in OP_PRINT.")
			}
			fmt.Println(v.String())

		case compiler.OpJump:
			offset := vm.readShort()
			vm.ip += int(offset)

		case compiler.OpJumpIfFalse:
			offset := vm.readShort()
			v, ok := vm.stack.Peek(0)
			if !ok {
				return vm.runtimeError(line, "Stack underflow in OP_JUMP_IF_FALSE.")
			}
			if v.IsFalsey() {
				vm.ip += int(offset)
			}

		case compiler.OpLoop:
			offset := vm.readShort()
			vm.ip -= int(offset)

		default:
			return vm.runtimeError(line, fmt.Sprintf("unknown opcode %v at ip %d", op, vm.ip-1))
		}
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() uint16 {
	s := binary.BigEndian.Uint16(vm.chunk.Code[vm.ip : vm.ip+2])
	vm.ip += 2
	return s
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

func (vm *VM) currentLine() int {
	if vm.ip < len(vm.chunk.Lines) {
		return vm.chunk.Lines[vm.ip]
	}
	return -1
}

func (vm *VM) push(v value.Value) {
	if !vm.stack.Push(v) {
		panic(RuntimeError{Line: vm.currentLine(), Message: "Stack overflow."})
	}
}

func (vm *VM) pop() (value.Value, bool) {
	return vm.stack.Pop()
}

func (vm *VM) runtimeError(line int, message string) error {
	vm.stack.Reset()
	return RuntimeError{Line: line, Message: message}
}

// numericBinary implements the binary opcodes that only make sense on
// two numbers: >, <, -, *, /.
func (vm *VM) numericBinary(op compiler.OpCode, line int) error {
	b, okB := vm.pop()
	a, okA := vm.pop()
	if !okA || !okB {
		return vm.runtimeError(line, "Stack underflow.")
	}
	if a.Kind != value.Number || b.Kind != value.Number {
		return vm.runtimeError(line, "Operands must be numbers.")
	}

	switch op {
	case compiler.OpGreater:
		vm.push(value.Bool_(a.Num > b.Num))
	case compiler.OpLess:
		vm.push(value.Bool_(a.Num < b.Num))
	case compiler.OpSubtract:
		vm.push(value.Number_(a.Num - b.Num))
	case compiler.OpMultiply:
		vm.push(value.Number_(a.Num * b.Num))
	case compiler.OpDivide:
		vm.push(value.Number_(a.Num / b.Num))
	}
	return nil
}

// add implements OP_ADD, which overloads + for numbers and strings.
// Concatenated strings are interned just like source literals, so a
// runtime-built string can still be == to an equal-content literal.
func (vm *VM) add(line int) error {
	b, okB := vm.pop()
	a, okA := vm.pop()
	if !okA || !okB {
		return vm.runtimeError(line, "Stack underflow in OP_ADD.")
	}

	switch {
	case a.Kind == value.Number && b.Kind == value.Number:
		vm.push(value.Number_(a.Num + b.Num))
	case a.Kind == value.Obj && b.Kind == value.Obj:
		concatenated := a.Object.Chars + b.Object.Chars
		vm.push(value.Str(vm.interner.Intern(concatenated)))
	default:
		return vm.runtimeError(line, "Operands must be two numbers or two strings.")
	}
	return nil
}
