package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/flashgenius/internal/client/client"
	"github.com/dmitrijs2005/flashgenius/internal/client/state"
	"github.com/dmitrijs2005/flashgenius/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// errUsage marks a command invoked with the wrong arguments.
var errUsage = errors.New("usage")

// command is one REPL command. run receives the words after the command
// name.
type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	run     func(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the FlashGenius CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to the matching entry of cmds. Unknown commands are reported
// back to the user. The loop exits on EOF, when ctx is done, or when the
// user types "exit" or "quit".
//
// Errors returned by handlers are printed and the loop continues, so a
// failed generation or a missing card set never ends the session.
func runREPL(ctx context.Context, cmds []command, statusFn func() string, reader *bufio.Reader) {
	index := make(map[string]command, len(cmds))
	for _, c := range cmds {
		index[c.name] = c
		for _, alias := range c.aliases {
			index[alias] = c
		}
	}

	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("fg %s> ", statusFn()))
		line, readErr := reader.ReadString('\n')
		parts := strings.Fields(line)

		if len(parts) > 0 {
			switch name := parts[0]; name {
			case "help":
				printHelp(cmds)

			case "exit", "quit":
				printlnFn("Bye!")
				return

			default:
				c, ok := index[name]
				if !ok {
					printlnFn("Unknown command:", name)
					break
				}
				if err := c.run(ctx, parts[1:]); err != nil {
					if errors.Is(err, errUsage) {
						printlnFn(fmt.Sprintf("Usage: %s", c.usage))
					} else {
						printlnFn("Error:", describeError(err))
					}
				}
			}
		}

		if readErr != nil {
			return
		}
	}
}

func printHelp(cmds []command) {
	printlnFn("Available commands:")
	for _, c := range cmds {
		printlnFn(fmt.Sprintf("  %-28s %s", c.usage, c.help))
	}
	printlnFn(fmt.Sprintf("  %-28s %s", "help", "show this list"))
	printlnFn(fmt.Sprintf("  %-28s %s", "exit | quit", "leave the program"))
}

// describeError turns the error taxonomy into short user-facing advice.
func describeError(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "the generation service rejected our credentials; check the API secret or key"
	case errors.Is(err, client.ErrUnavailable):
		return "the generation service is unavailable, try again later (" + err.Error() + ")"
	case errors.Is(err, state.ErrBusy):
		return "a generation is already running"
	case errors.Is(err, common.ErrNotFound):
		return "not found: " + err.Error()
	default:
		return err.Error()
	}
}
