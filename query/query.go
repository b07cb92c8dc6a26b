// Package query implements the graph-aware query engine (spec.md §4.6):
// backward search with forks, extending plain FM-index backward search
// across vertex boundaries via the OIMT and the graph's true predecessor
// adjacency.
//
// original_source's backward-search driver (fmd_fmd.c/.h) and the base
// interval-merge tree underlying its OIMT specialization are both absent
// from the retrieved pack (confirmed via its _INDEX.md manifest; only the
// OIMT's own partition/query logic in fmd_oimt.c survives). This package
// is grounded on spec.md §4.6's textual description of the algorithm plus
// the already-ported fmi and oimt packages, not on a direct port of a
// missing driver. See DESIGN.md for the specific simplification this
// forces at vertex-boundary crossings: rather than pre-clustering
// predecessor sets into tight permutation-index runs at build time (what
// the constraint sets computed by constraintset/anneal are for), crossing
// resolves predecessors by asking the graph directly and uses the OIMT as
// a last-character filter over the bounding permutation-index range of
// those predecessors, not as the sole source of truth.
package query

import (
	"fmt"
	"sort"

	"github.com/pangenome/gfmi/encodedgraph"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/fmi"
	"github.com/pangenome/gfmi/graph"
	"github.com/pangenome/gfmi/oimt"
)

// Engine answers substring queries against a graph via its FM-index and
// OIMT, resolving matches back to (vertex, offset) walks.
type Engine struct {
	g    *graph.Graph
	eg   *encodedgraph.Graph
	idx  *fmi.Index
	perm []graph.VID
	pos  []int // text offset of perm[i]'s '(' byte, ascending in i

	posOf map[graph.VID]int // vid -> permutation index
	tree  *oimt.Tree

	noForks int
}

// New builds a query engine over an index constructed from eg and perm via
// fmi.BuildText/fmi.Build, where vertexTextPos is BuildText's second return
// value.
func New(g *graph.Graph, eg *encodedgraph.Graph, idx *fmi.Index, perm []graph.VID, vertexTextPos []int) (*Engine, error) {
	if len(perm) != len(vertexTextPos) {
		return nil, fmt.Errorf("%w: permutation has %d entries, %d text positions", errs.ErrMismatch, len(perm), len(vertexTextPos))
	}
	if len(perm) != g.NumVertices() {
		return nil, fmt.Errorf("%w: permutation has %d entries, graph has %d vertices", errs.ErrMismatch, len(perm), g.NumVertices())
	}

	posOf := make(map[graph.VID]int, len(perm))
	lastCharEnc := make([]int, len(perm))
	for i, v := range perm {
		posOf[v] = i

		enc, ok := fmi.EncodeRankChar(eg.LastChar(v))
		if !ok {
			return nil, fmt.Errorf("%w: vertex %d's last label character is not rankable", errs.ErrInvalidSymbol, v)
		}
		lastCharEnc[i] = enc
	}

	return &Engine{
		g:     g,
		eg:    eg,
		idx:   idx,
		perm:  append([]graph.VID(nil), perm...),
		pos:   append([]int(nil), vertexTextPos...),
		posOf: posOf,
		tree:  oimt.Build(lastCharEnc, fmi.RankAlphabetSize),
	}, nil
}

// NoForks returns the number of forks spawned by the most recent Search
// call (spec.md §4.6: "fork statistics are recorded for tests").
func (e *Engine) NoForks() int { return e.noForks }

// Count returns the number of walks whose concatenated labels equal
// pattern.
func (e *Engine) Count(pattern []byte) int {
	return len(e.Search(pattern))
}

// Locate returns the (vid, offset) start of every walk matching pattern.
func (e *Engine) Locate(pattern []byte) []graph.Walk {
	return e.Search(pattern)
}

// Search is backward search with forks (spec.md §4.6): it returns every
// walk through the graph whose concatenated vertex labels equal pattern,
// crossing vertex boundaries as needed.
func (e *Engine) Search(pattern []byte) []graph.Walk {
	if len(pattern) == 0 {
		return nil
	}

	e.noForks = 0

	var out []graph.Walk
	e.searchFMI(pattern, len(pattern), len(pattern), 0, int(e.idx.NoChars()), nil, &out)

	return out
}

// searchFMI advances a fork that is still entirely expressible as an fmi
// SA range. pattern[pos:segmentEnd] is the suffix matched so far within a
// single, not-yet-identified vertex; [lo, hi) is its SA range. suffix holds
// WalkNodes already resolved for pattern[segmentEnd:], from earlier
// crossings (built back-to-front, per graph.Walk.Prepend's convention).
func (e *Engine) searchFMI(pattern []byte, pos, segmentEnd, lo, hi int, suffix graph.Walk, out *[]graph.Walk) {
	if lo >= hi {
		return
	}

	if pos == 0 {
		for row := lo; row < hi; row++ {
			vid, offset, ok := e.resolveRow(row)
			if !ok {
				continue
			}

			node := graph.WalkNode{VID: vid, StrLo: 0, StrHi: segmentEnd, GraphLo: offset, GraphHi: offset + segmentEnd}
			*out = append(*out, suffix.Prepend(node))
		}

		return
	}

	c := pattern[pos-1]

	// Double-rank around the match character and the vertex-start marker
	// together, sharing one superblock/block fetch per boundary (spec.md
	// §4.5).
	newLo, newHi, okC, openLo, openHi, okOpen := e.idx.ExtendRangeDouble(lo, hi, c, fmi.VertexOpen)

	if okC {
		e.searchFMI(pattern, pos-1, segmentEnd, newLo, newHi, suffix, out)
	}

	if pos == segmentEnd {
		// Nothing has been matched within this segment yet, so there is no
		// vertex whose full label this range could represent: crossing is
		// only meaningful once the tracked suffix could plausibly equal a
		// whole vertex label (no vertex's label has length 0).
		return
	}

	if !okOpen {
		return
	}

	for row := openLo; row < openHi; row++ {
		vid, ok := e.resolveOpenRow(row)
		if !ok {
			continue
		}

		e.noForks++

		node := graph.WalkNode{VID: vid, StrLo: pos, StrHi: segmentEnd, GraphLo: 0, GraphHi: segmentEnd - pos}
		crossed := suffix.Prepend(node)

		for _, u := range e.validPredecessors(vid, c) {
			e.noForks++
			e.matchBackwardInVertex(pattern, pos, u, crossed, out)
		}
	}
}

// matchBackwardInVertex matches pattern[0:pos] against v's label, comparing
// byte-by-byte backward from v's last character, and crosses into v's own
// predecessors (recursively) if v's label runs out first.
func (e *Engine) matchBackwardInVertex(pattern []byte, pos int, v graph.VID, suffix graph.Walk, out *[]graph.Walk) {
	label := e.eg.VertexLen(v)

	bound := pos
	if label < bound {
		bound = label
	}

	matched := 0
	for matched < bound {
		c := e.eg.DecodedByteAt(v, label-1-matched)
		if c != pattern[pos-1-matched] {
			return // mismatch: this fork dies
		}
		matched++
	}

	newPos := pos - matched

	if newPos == 0 {
		node := graph.WalkNode{VID: v, StrLo: 0, StrHi: pos, GraphLo: label - matched, GraphHi: label}
		*out = append(*out, suffix.Prepend(node))
		return
	}

	// v's label ran out before the pattern did: cross again.
	node := graph.WalkNode{VID: v, StrLo: newPos, StrHi: pos, GraphLo: 0, GraphHi: label}
	crossed := suffix.Prepend(node)

	for _, u := range e.validPredecessors(v, pattern[newPos-1]) {
		e.noForks++
		e.matchBackwardInVertex(pattern, newPos, u, crossed, out)
	}
}

// validPredecessors returns v's true graph predecessors whose last label
// character equals neededChar, using the OIMT as a last-character filter
// over the bounding permutation-index range of v's predecessors (see the
// package doc comment for why this, rather than a precomputed tight run,
// is how this port resolves the crossing).
func (e *Engine) validPredecessors(v graph.VID, neededChar byte) []graph.VID {
	preds := e.g.In(v)
	if len(preds) == 0 {
		return nil
	}

	enc, ok := fmi.EncodeRankChar(neededChar)
	if !ok {
		return nil
	}

	start, end := len(e.perm), -1
	for _, u := range preds {
		pi := e.posOf[u]
		if pi < start {
			start = pi
		}
		if pi > end {
			end = pi
		}
	}

	candidates := e.tree.Query(start, end, enc, -1)

	var result []graph.VID
	for _, u := range preds {
		pi := e.posOf[u]
		if !withinAny(candidates, pi) {
			continue
		}
		if e.eg.LastChar(u) == neededChar {
			result = append(result, u)
		}
	}

	return result
}

func withinAny(ivs []oimt.Interval, i int) bool {
	for _, iv := range ivs {
		if i >= iv.Lo && i <= iv.Hi {
			return true
		}
	}

	return false
}

// resolveRow maps a BWT row whose suffix starts inside some vertex's label
// to that vertex and the label offset the suffix starts at.
func (e *Engine) resolveRow(row int) (vid graph.VID, offset int, ok bool) {
	textPos := e.idx.Locate(row)

	i := sort.Search(len(e.pos), func(i int) bool { return e.pos[i] > textPos }) - 1
	if i < 0 {
		return 0, 0, false
	}

	offset = textPos - e.pos[i] - 1 // -1 for the '(' byte itself
	if offset < 0 || offset >= e.eg.VertexLen(e.perm[i]) {
		return 0, 0, false // landed on '(' or past the label into the marker run
	}

	return e.perm[i], offset, true
}

// resolveOpenRow maps a BWT row whose suffix starts exactly at a vertex's
// '(' marker to that vertex.
func (e *Engine) resolveOpenRow(row int) (graph.VID, bool) {
	textPos := e.idx.Locate(row)

	i := sort.Search(len(e.pos), func(i int) bool { return e.pos[i] >= textPos })
	if i >= len(e.pos) || e.pos[i] != textPos {
		return 0, false
	}

	return e.perm[i], true
}
