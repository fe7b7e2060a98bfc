package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/informatter/nilox/compiler"
	"github.com/informatter/nilox/intern"
)

// disasmCmd implements the "disasm" subcommand: compile a source file
// without running it and print its bytecode listing. Adapted from the
// teacher's emitBytecodeCmd, narrowed to the one behavior that survives
// the single-pass rewrite (disassembly); the teacher's -dumpBytecode
// hex-file and AST-to-JSON flags depended on its two-stage AST pipeline
// and have no equivalent here.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a file and print its bytecode listing" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Compile a nilox source file and print its disassembled bytecode.
`
}
func (d *disasmCmd) SetFlags(f *flag.FlagSet) {}

func (d *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return exitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return exitUsageError
	}

	chunk, err := compiler.Compile(string(data), intern.New())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileError
	}

	name := filepath.Base(filename)
	fmt.Print(chunk.Disassemble(name))
	return subcommands.ExitSuccess
}
