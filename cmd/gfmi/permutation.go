package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pangenome/gfmi/anneal"
	"github.com/pangenome/gfmi/cmd/gfmi/internal/clilog"
	"github.com/pangenome/gfmi/constraintset"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
	"github.com/pangenome/gfmi/ioformats"
)

// constraintDepth matches S4's worked scenario (spec.md §8): constraint
// sets up to length 4, allowing walks to span multiple vertices.
const constraintDepth = 4

func cmdPermutation(args []string) int {
	fs := flag.NewFlagSet("permutation", flag.ContinueOnError)
	inputPath := fs.String("i", "", "input graph path (default stdin)")
	outputPath := fs.String("o", "", "output permutation path (default stdout)")
	seedPermPath := fs.String("p", "", "seed permutation path")
	deadlineSecs := fs.Int("t", 15, "deadline in seconds")
	reportSecs := fs.Int("u", 3, "progress-report interval in seconds")
	jobs := fs.Int("j", 1, "worker goroutines")
	verbose := fs.Bool("v", false, "verbose")
	if err := fs.Parse(args); err != nil {
		return -1
	}

	log := clilog.New(os.Stderr, *verbose)

	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	defer closeIn()

	g, err := ioformats.ParseFMDG(in, inputLabel(*inputPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	g.Freeze()

	log.Printf("extracting constraint sets (depth=%d)", constraintDepth)

	constraints := constraintset.Extract(g, constraintDepth, true)

	opts := []anneal.Option{anneal.WithParallelCost(*jobs > 1)}
	if *seedPermPath != "" {
		f, err := os.Open(*seedPermPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gfmi: %v: %s: %v\n", errs.ErrIO, *seedPermPath, err)
			return -1
		}
		seed, err := ioformats.ParsePermutation(f, *seedPermPath)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
			return -1
		}
		if err := ioformats.ValidatePermutation(seed, g); err != nil {
			fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
			return -1
		}

		opts = append(opts, anneal.WithInitialPermutation(seed))
	}

	state, err := anneal.New(g, constraints, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	log.Printf("annealing: initial cost %.1f, deadline %ds", state.CurrentCost(), *deadlineSecs)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*deadlineSecs)*time.Second)
	defer cancel()

	runWithProgress(ctx, state, log, time.Duration(*reportSecs)*time.Second)

	log.Printf("done: best cost %.1f after %d iterations", state.BestCost(), state.Iteration())

	out, closeOut, err := openOutput(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	defer closeOut()

	if err := writePermutation(out, state.BestPermutation()); err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	return 0
}

// runWithProgress drives state.Iterate in a loop (rather than a single
// state.Run(ctx) call) so a progress line can be logged every reportEvery,
// matching the -u flag's purpose.
func runWithProgress(ctx context.Context, state *anneal.State, log *clilog.Logger, reportEvery time.Duration) {
	lastReport := time.Now()
	for state.HasMore() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		state.Iterate()

		if time.Since(lastReport) >= reportEvery {
			log.Printf("iteration %d: cur cost %.1f, best cost %.1f, temp %.4f", state.Iteration(), state.CurrentCost(), state.BestCost(), state.Temperature())
			lastReport = time.Now()
		}
	}
}

func writePermutation(w io.Writer, perm []graph.VID) error {
	for _, v := range perm {
		if _, err := w.Write([]byte(strconv.FormatInt(int64(v), 10) + "\n")); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
	}

	return nil
}
