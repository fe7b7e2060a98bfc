package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

// Exit codes follow the sysexits.h convention the rest of the toolchain
// uses for a scripting-language front end: 0 for a clean run, 64 for a
// CLI usage mistake, 65 for a source that failed to compile, 70 for a
// program that compiled fine but failed at runtime.
const (
	exitUsageError   = 64
	exitCompileError = 65
	exitRuntimeError = 70
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
