package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/informatter/nilox/intern"
	"github.com/informatter/nilox/vm"
)

// replCmd implements the "repl" subcommand: an interactive session
// backed by chzyer/readline for line editing and history, instead of
// the teacher's bare bufio.Scanner loop. One VM (and its globals/intern
// table) persists across the whole session, so a variable defined on
// one line is visible on the next.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive nilox session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive nilox session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("Welcome to nilox!")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start REPL: %v\n", err)
		return exitUsageError
	}
	defer rl.Close()

	machine := vm.New(intern.New())
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return exitUsageError
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		if !isBalanced(buffer.String()) {
			continue
		}

		source := buffer.String()
		buffer.Reset()

		if err := machine.Interpret(source); err != nil {
			fmt.Println(err)
		}
	}
}

// isBalanced reports whether source has as many '}' as '{', the same
// "wait for more input" heuristic the teacher's REPL uses (there: brace
// balance over the full token stream) so a multi-line block doesn't get
// compiled one incomplete line at a time.
func isBalanced(source string) bool {
	depth := 0
	for _, r := range source {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth <= 0
}
