// Command gfmi is the CLI front-end over the core engine (spec.md §6):
// build an index from a graph description, query it, compute a
// locality-improving permutation, or validate an on-disk buffer.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printTopLevelHelp(os.Stderr)
		return -1
	}

	switch args[0] {
	case "index":
		return cmdIndex(args[1:])
	case "query":
		return cmdQuery(args[1:])
	case "permutation":
		return cmdPermutation(args[1:])
	case "validate":
		return cmdValidate(args[1:])
	case "help":
		return cmdHelp(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "gfmi: unknown subcommand %q\n", args[0])
		printTopLevelHelp(os.Stderr)
		return -1
	}
}
