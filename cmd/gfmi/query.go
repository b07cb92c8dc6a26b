package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pangenome/gfmi/cmd/gfmi/internal/clilog"
	"github.com/pangenome/gfmi/cmd/gfmi/internal/container"
	"github.com/pangenome/gfmi/encodedgraph"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/fmi"
	"github.com/pangenome/gfmi/graph"
	"github.com/pangenome/gfmi/query"
	"github.com/pangenome/gfmi/storage"
)

func cmdQuery(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "gfmi: query requires a mode: count, locate, or enumerate")
		return -1
	}

	mode := args[0]
	if mode != "count" && mode != "locate" && mode != "enumerate" {
		fmt.Fprintf(os.Stderr, "gfmi: %v: unknown query mode %q\n", errs.ErrUnsupported, mode)
		return -1
	}

	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	indexPath := fs.String("r", "", "index path (required)")
	inputPath := fs.String("i", "", "query input path (default stdin)")
	isFastq := fs.Bool("f", false, "query input is fastq")
	outputPath := fs.String("o", "", "output path (default stdout)")
	jobs := fs.Int("j", 1, "worker goroutines")
	verbose := fs.Bool("v", false, "verbose")
	if err := fs.Parse(args[1:]); err != nil {
		return -1
	}

	if *indexPath == "" {
		fmt.Fprintf(os.Stderr, "gfmi: %v: -r is required\n", errs.ErrInvalidConfig)
		return -1
	}

	log := clilog.New(os.Stderr, *verbose)

	engine, err := loadEngine(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	defer closeIn()

	patterns, err := readPatterns(in, *isFastq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	log.Printf("running %d queries in mode %q with %d workers", len(patterns), mode, *jobs)

	results := runQueries(engine, patterns, mode, *jobs)

	out, closeOut, err := openOutput(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	defer closeOut()

	w := bufio.NewWriter(out)
	for _, line := range results {
		if _, err := fmt.Fprintln(w, line); err != nil {
			fmt.Fprintf(os.Stderr, "gfmi: %v: %v\n", errs.ErrIO, err)
			return -1
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v: %v\n", errs.ErrIO, err)
		return -1
	}

	return 0
}

func loadEngine(path string) (*query.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrIO, path, err)
	}

	raw, err := storage.Unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrCorruptBuffer, path, err)
	}

	bundle, err := container.Read(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrCorruptBuffer, path, err)
	}

	eg, err := encodedgraph.FromBuffer(bundle.EncodedGraph)
	if err != nil {
		return nil, err
	}
	idx, err := fmi.FromBuffer(bundle.Index)
	if err != nil {
		return nil, err
	}
	g, err := eg.Reconstruct()
	if err != nil {
		return nil, err
	}

	_, vertexTextPos, err := fmi.BuildText(eg, bundle.Permutation)
	if err != nil {
		return nil, err
	}

	return query.New(g, eg, idx, bundle.Permutation, vertexTextPos)
}

func readPatterns(r io.Reader, fastq bool) ([][]byte, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var patterns [][]byte
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if fastq {
			// FASTQ records are four lines: @id, sequence, +, qualities.
			// The sequence is the second line of each record.
			if (lineNo-1)%4 != 1 {
				continue
			}
		}
		if line == "" {
			continue
		}

		patterns = append(patterns, []byte(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	return patterns, nil
}

func runQueries(e *query.Engine, patterns [][]byte, mode string, jobs int) []string {
	results := make([]string, len(patterns))

	if jobs < 1 {
		jobs = 1
	}

	var wg sync.WaitGroup
	work := make(chan int)

	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = formatResult(e, patterns[i], mode)
			}
		}()
	}

	for i := range patterns {
		work <- i
	}
	close(work)
	wg.Wait()

	return results
}

func formatResult(e *query.Engine, pattern []byte, mode string) string {
	switch mode {
	case "count":
		return fmt.Sprintf("%d", e.Count(pattern))
	case "locate":
		walks := e.Locate(pattern)
		parts := make([]string, len(walks))
		for i, w := range walks {
			vid, _ := w.StartVertex()
			parts[i] = fmt.Sprintf("(%d, %d)", vid, w.StartOffset())
		}

		return strings.Join(parts, " ")
	case "enumerate":
		walks := e.Locate(pattern)
		lines := make([]string, len(walks))
		for i, w := range walks {
			lines[i] = formatWalk(w)
		}

		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func formatWalk(w graph.Walk) string {
	parts := make([]string, w.Len())
	for i, n := range w {
		if n.GraphLo == 0 {
			parts[i] = fmt.Sprintf("(%d)", n.VID)
		} else {
			parts[i] = fmt.Sprintf("(%d, %d)", n.VID, n.GraphLo)
		}
	}

	return strings.Join(parts, " ")
}
