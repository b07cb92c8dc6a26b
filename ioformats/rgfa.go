// Package ioformats holds the file format readers the core engine treats as
// external collaborators (spec.md §6): rGFA, the custom fmdg text format,
// and the permutation file. None of these touch fmi/encodedgraph
// internals directly; they all just build a graph.Graph or []graph.VID that
// the rest of the module consumes.
package ioformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
)

// SegmentTags holds the optional rGFA segment tags (spec.md §6): SN:Z (name),
// SO:i (offset), SR:i (rank). They round-trip for tooling but are never
// consulted by fmi or query.
type SegmentTags struct {
	Name      string
	Offset    int64
	HasOffset bool
	Rank      int64
	HasRank   bool
}

// ParseRGFA reads rGFA (S/L line) text from r and builds a graph.Graph. path
// is used only for error context. Segment ids are of the form
// "[prefix][0-9]+"; the numeric suffix minus 1 is used as the vertex id
// (spec.md §6).
func ParseRGFA(r io.Reader, path string) (*graph.Graph, map[graph.VID]SegmentTags, error) {
	g := graph.New()
	tags := make(map[graph.VID]SegmentTags)
	idToVID := make(map[string]graph.VID)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		switch fields[0] {
		case "S":
			vid, t, err := parseSegmentLine(fields)
			if err != nil {
				return nil, nil, wrapParseErr(path, lineNo, err)
			}

			segID := fields[1]
			label := []byte(fields[2])
			if err := g.AddVertex(vid, label); err != nil {
				return nil, nil, wrapParseErr(path, lineNo, err)
			}

			idToVID[segID] = vid
			tags[vid] = t
		case "L":
			src, dst, err := parseLinkLine(fields, idToVID)
			if err != nil {
				return nil, nil, wrapParseErr(path, lineNo, err)
			}
			if err := g.AddEdge(src, dst); err != nil {
				return nil, nil, wrapParseErr(path, lineNo, err)
			}
		default:
			return nil, nil, wrapParseErr(path, lineNo, fmt.Errorf("%w: unrecognized line type %q", errs.ErrInputParse, fields[0]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", errs.ErrIO, path, err)
	}

	return g, tags, nil
}

func parseSegmentLine(fields []string) (graph.VID, SegmentTags, error) {
	if len(fields) < 3 {
		return 0, SegmentTags{}, fmt.Errorf("%w: S line needs id and sequence, got %d fields", errs.ErrInputParse, len(fields))
	}

	vid, err := vidFromSegmentID(fields[1])
	if err != nil {
		return 0, SegmentTags{}, err
	}

	var t SegmentTags
	for _, raw := range fields[3:] {
		if raw == "" {
			continue
		}

		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 {
			return 0, SegmentTags{}, fmt.Errorf("%w: malformed tag %q", errs.ErrInputParse, raw)
		}

		switch parts[0] + ":" + parts[1] {
		case "SN:Z":
			t.Name = parts[2]
		case "SO:i":
			n, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				return 0, SegmentTags{}, fmt.Errorf("%w: SO:i value %q: %v", errs.ErrInputParse, parts[2], err)
			}
			t.Offset, t.HasOffset = n, true
		case "SR:i":
			n, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				return 0, SegmentTags{}, fmt.Errorf("%w: SR:i value %q: %v", errs.ErrInputParse, parts[2], err)
			}
			t.Rank, t.HasRank = n, true
		}
	}

	return vid, t, nil
}

func parseLinkLine(fields []string, idToVID map[string]graph.VID) (src, dst graph.VID, err error) {
	if len(fields) < 6 {
		return 0, 0, fmt.Errorf("%w: L line needs id1, strand1, id2, strand2, cigar, got %d fields", errs.ErrInputParse, len(fields))
	}

	src, ok := idToVID[fields[1]]
	if !ok {
		return 0, 0, fmt.Errorf("%w: link references unknown segment id %q", errs.ErrInputParse, fields[1])
	}
	dst, ok = idToVID[fields[3]]
	if !ok {
		return 0, 0, fmt.Errorf("%w: link references unknown segment id %q", errs.ErrInputParse, fields[3])
	}

	return src, dst, nil
}

// vidFromSegmentID extracts the trailing decimal run of id and returns it
// minus 1 as a graph.VID.
func vidFromSegmentID(id string) (graph.VID, error) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return 0, fmt.Errorf("%w: segment id %q has no numeric suffix", errs.ErrInputParse, id)
	}

	n, err := strconv.ParseUint(id[i:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: segment id %q: %v", errs.ErrInputParse, id, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: segment id %q numeric suffix must be >= 1", errs.ErrInputParse, id)
	}

	return graph.VID(n - 1), nil
}

func wrapParseErr(path string, lineNo int, err error) error {
	return fmt.Errorf("%s:%d: %w", path, lineNo, err)
}
