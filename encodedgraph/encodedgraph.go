// Package encodedgraph implements spec.md §4.2, component B: a packed
// representation of vertex labels at ⌈log₂|Σ|⌉ bits/char plus outgoing
// adjacency, built from a graph.Graph, with a fixed binary serialization
// and the forward walk-matching algorithm used to verify query results
// against the source graph.
//
// The fixed-offset header/table layout follows the same Parse/Bytes
// convention as section.NumericHeader in the teacher package, generalized
// from a 32-byte metric header to this component's alphabet-table-plus-
// per-vertex-payload shape.
package encodedgraph

import (
	"math/bits"
	"sort"

	"github.com/pangenome/gfmi/bitstream"
	"github.com/pangenome/gfmi/endian"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
)

// vertexRecord is the per-vertex payload: its outgoing adjacency and its
// label packed at CharBits bits/character.
type vertexRecord struct {
	id     graph.VID
	nChars int
	label  *bitstream.Bitstream
	out    []graph.VID
}

// Graph is the encoded, packed form of a graph.Graph.
type Graph struct {
	alphabet []byte // Σ, sorted ascending
	encode   [256]uint8
	decode   [256]byte
	present  [256]bool
	charBits int

	order      []graph.VID
	vertices   map[graph.VID]*vertexRecord
	totalChars int64
	totalEdges int64
}

// Alphabet returns Σ in ascending byte order.
func (g *Graph) Alphabet() []byte { return g.alphabet }

// CharBits returns ⌈log₂|Σ|⌉, the number of bits used to pack one
// character.
func (g *Graph) CharBits() int { return g.charBits }

// Encode returns the 0-based rank of byte c within Σ. Only valid if
// Present(c) is true.
func (g *Graph) Encode(c byte) uint8 { return g.encode[c] }

// Decode returns the byte corresponding to encoded rank r.
func (g *Graph) Decode(r uint8) byte { return g.decode[r] }

// Present reports whether byte c appears in Σ.
func (g *Graph) Present(c byte) bool { return g.present[c] }

// NumVertices returns |V|.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// TotalEncodedCharacters returns the sum of all label lengths (spec.md §3
// invariant: total encoded characters = Σ label_lengths).
func (g *Graph) TotalEncodedCharacters() int64 { return g.totalChars }

// TotalEdges returns the sum of all out-degrees (spec.md §3 invariant).
func (g *Graph) TotalEdges() int64 { return g.totalEdges }

// VertexLen returns the label length of vertex v, or -1 if v is unknown.
func (g *Graph) VertexLen(v graph.VID) int {
	rec, ok := g.vertices[v]
	if !ok {
		return -1
	}

	return rec.nChars
}

// Out returns the outgoing adjacency of v.
func (g *Graph) Out(v graph.VID) []graph.VID {
	rec, ok := g.vertices[v]
	if !ok {
		return nil
	}

	return rec.out
}

// VertexIDs returns all vertex ids in construction order.
func (g *Graph) VertexIDs() []graph.VID {
	out := make([]graph.VID, len(g.order))
	copy(out, g.order)

	return out
}

// DecodedByteAt returns the decoded label byte at position pos (0-based)
// within vertex v's label.
func (g *Graph) DecodedByteAt(v graph.VID, pos int) byte {
	rec := g.vertices[v]

	return g.decode[rec.label.Read(pos*g.charBits, g.charBits)]
}

// LastChar returns the decoded final byte of vertex v's label, used by the
// OIMT to partition vertices by their last character (spec.md §4.6).
func (g *Graph) LastChar(v graph.VID) byte {
	rec := g.vertices[v]

	return g.DecodedByteAt(v, rec.nChars-1)
}

// Build constructs an encoded graph from g. The source graph need not be
// frozen, but callers should freeze it first since Build takes a
// point-in-time snapshot.
func Build(g *graph.Graph) (*Graph, error) {
	eg := &Graph{
		vertices: make(map[graph.VID]*vertexRecord, g.NumVertices()),
	}

	seen := make(map[byte]struct{})
	for _, id := range g.VertexIDs() {
		v := g.Vertex(id)
		for _, c := range v.Label {
			seen[c] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return eg, nil
	}
	if len(seen) > 256 {
		return nil, errs.ErrAlphabetOverflow
	}

	eg.alphabet = make([]byte, 0, len(seen))
	for c := range seen {
		eg.alphabet = append(eg.alphabet, c)
	}
	sort.Slice(eg.alphabet, func(i, j int) bool { return eg.alphabet[i] < eg.alphabet[j] })

	for i, c := range eg.alphabet {
		eg.encode[c] = uint8(i)
		eg.decode[i] = c
		eg.present[c] = true
	}

	eg.charBits = charBitsFor(len(eg.alphabet))

	for _, id := range g.VertexIDs() {
		v := g.Vertex(id)
		rec := &vertexRecord{
			id:     id,
			nChars: len(v.Label),
			label:  bitstream.NewWithBitCapacity(len(v.Label) * eg.charBits),
		}
		for i, c := range v.Label {
			rec.label.Write(i*eg.charBits, uint64(eg.encode[c]), eg.charBits)
		}
		rec.label.Fit(len(v.Label) * eg.charBits)

		out := g.Out(id)
		rec.out = append(rec.out[:0:0], out...)

		eg.vertices[id] = rec
		eg.order = append(eg.order, id)
		eg.totalChars += int64(len(v.Label))
		eg.totalEdges += int64(len(out))
	}

	return eg, nil
}

// MatchWalks returns every walk through the graph whose concatenated
// labels exactly match pattern, starting from vertex start at offset
// startOffset within its label. It implements spec.md §4.2's walk-matching
// algorithm: greedily match up to min(remaining query, remaining label)
// characters, emit the walk if the query is exhausted, and otherwise
// branch across every outgoing neighbor (DFS, pre-order) once the current
// vertex's label is exhausted. A character mismatch before either bound is
// reached is a dead end and contributes no walks.
func (g *Graph) MatchWalks(pattern []byte, start graph.VID, startOffset int) []graph.Walk {
	if len(pattern) == 0 {
		return nil
	}

	return g.matchWalk(pattern, start, startOffset, 0)
}

func (g *Graph) matchWalk(pattern []byte, v graph.VID, o int, posInPattern int) []graph.Walk {
	rec, ok := g.vertices[v]
	if !ok {
		return nil
	}

	remainingLabel := rec.nChars - o
	remainingPattern := len(pattern) - posInPattern
	bound := remainingLabel
	if remainingPattern < bound {
		bound = remainingPattern
	}

	matched := 0
	for matched < bound {
		c := g.DecodedByteAt(v, o+matched)
		if c != pattern[posInPattern+matched] {
			break
		}
		matched++
	}
	if matched < bound {
		return nil // mismatch before either the query or the label ran out
	}

	node := graph.WalkNode{
		VID:     v,
		StrLo:   posInPattern,
		StrHi:   posInPattern + matched,
		GraphLo: o,
		GraphHi: o + matched,
	}
	newPos := posInPattern + matched

	if newPos == len(pattern) {
		return []graph.Walk{{node}}
	}

	// Query not exhausted: the vertex label must be, or bound would not
	// have equalled remainingLabel.
	var results []graph.Walk
	for _, nb := range rec.out {
		for _, sub := range g.matchWalk(pattern, nb, 0, newPos) {
			results = append(results, sub.Prepend(node))
		}
	}

	return results
}

// charBitsFor returns ⌈log₂(n)⌉ for n >= 1, with the convention that a
// single-symbol alphabet still costs 1 bit (a zero-width field cannot be
// addressed by Bitstream.Read/Write).
func charBitsFor(n int) int {
	if n <= 1 {
		return 1
	}

	return bits.Len(uint(n - 1))
}
