package main

import (
	"fmt"
	"io"
	"os"
)

var subcommandHelp = map[string]string{
	"index": "gfmi index [-i path] [-g] [-o path] [-p path] [-s N] [-r N] [-c codec] [-v]\n" +
		"  Build an FM-index from an rGFA (-g) or fmdg graph description.\n" +
		"  -i  input graph path (default stdin)\n" +
		"  -g  input is rGFA (default fmdg)\n" +
		"  -o  output .fmdi path (default stdout)\n" +
		"  -p  permutation file path\n" +
		"  -s  ISA sample rate (default 256)\n" +
		"  -r  rank sample rate (default 256; must equal the build's fixed rate)\n" +
		"  -c  at-rest compression codec: none, zstd, s2, lz4 (default none)\n" +
		"  -v  verbose",
	"query": "gfmi query <count|locate|enumerate> -r path [-i path] [-f] [-o path] [-j N] [-v]\n" +
		"  Run queries from -i (default stdin) against the index at -r.\n" +
		"  -r  index path (required)\n" +
		"  -i  query input path (default stdin)\n" +
		"  -f  query input is fastq (default: one pattern per line)\n" +
		"  -o  output path (default stdout)\n" +
		"  -j  worker goroutines (default 1)\n" +
		"  -v  verbose",
	"permutation": "gfmi permutation [-i path] [-o path] [-p path] [-t secs] [-u secs] [-j N] [-v]\n" +
		"  Anneal a locality-improving vertex permutation.\n" +
		"  -i  input graph path (default stdin)\n" +
		"  -o  output permutation path (default stdout)\n" +
		"  -p  seed permutation path\n" +
		"  -t  deadline in seconds (default 15)\n" +
		"  -u  progress-report interval in seconds (default 3)\n" +
		"  -j  worker goroutines (default 1)\n" +
		"  -v  verbose",
	"validate": "gfmi validate [-i path]\n" +
		"  Check that an index file's envelope, container, encoded graph and FM-index parse,\n" +
		"  and that its permutation has one entry per vertex.",
	"help": "gfmi help [subcommand]",
}

func printTopLevelHelp(w io.Writer) {
	fmt.Fprintln(w, "usage: gfmi <index|query|permutation|validate|help> [flags]")
}

func cmdHelp(args []string) int {
	if len(args) == 0 {
		printTopLevelHelp(os.Stdout)
		return 0
	}

	text, ok := subcommandHelp[args[0]]
	if !ok {
		fmt.Fprintf(os.Stdout, "gfmi: no help for %q\n", args[0])
		return 0
	}

	fmt.Fprintln(os.Stdout, text)
	return 0
}
