package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/informatter/nilox/intern"
	"github.com/informatter/nilox/vm"
)

// runCmd implements the "run" subcommand: execute a source file to
// completion. Grounded in the teacher's cmd_run.go runCmd, with the
// lexer/parser/tree-walk-interpreter pipeline swapped for a single
// compile-then-VM.Interpret call.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute nilox code from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute a nilox source file.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	machine := vm.New(intern.New())
	return runSource(machine, string(data))
}

// runSource runs source on machine and maps the outcome to the exit
// code contract: compile errors exit 65, runtime errors exit 70.
func runSource(machine *vm.VM, source string) subcommands.ExitStatus {
	err := machine.Interpret(source)
	if err == nil {
		return subcommands.ExitSuccess
	}

	fmt.Fprintln(os.Stderr, err)
	if isCompileError(err) {
		return exitCompileError
	}
	return exitRuntimeError
}
