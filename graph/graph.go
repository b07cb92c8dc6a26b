// Package graph holds the data model for string-labeled directed graphs
// (spec.md §3): a vertex set keyed by vid plus a multiset of directed
// edges, with both incoming and outgoing adjacency maintained for O(1)
// neighbor lookup in either direction.
package graph

import (
	"fmt"

	"github.com/pangenome/gfmi/errs"
)

// VID is a vertex identifier. Per spec.md §3 it is a non-negative integer.
type VID int64

// Vertex is a unique vertex id paired with an immutable, non-empty byte
// label.
type Vertex struct {
	ID    VID
	Label []byte
}

// Graph is a set of vertices unique by vid and a multiset of directed
// edges. Vertices and edges are only added during construction; call
// Freeze once the graph is complete to make that invariant explicit and
// catch accidental mutation after the graph has been handed to the encoder
// (spec.md §3).
type Graph struct {
	vertices map[VID]*Vertex
	out      map[VID][]VID
	in       map[VID][]VID
	order    []VID // insertion order, used for deterministic iteration
	edges    int
	frozen   bool
}

// New creates an empty, mutable Graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[VID]*Vertex),
		out:      make(map[VID][]VID),
		in:       make(map[VID][]VID),
	}
}

// AddVertex inserts a vertex with the given id and label. Returns
// errs.ErrDuplicateVertex if the id already exists, errs.ErrEmptyLabel if
// the label has zero length, or errs.ErrUnsupported if the graph is
// already frozen.
func (g *Graph) AddVertex(id VID, label []byte) error {
	if g.frozen {
		return fmt.Errorf("%w: graph is frozen", errs.ErrUnsupported)
	}
	if len(label) == 0 {
		return errs.ErrEmptyLabel
	}
	if _, exists := g.vertices[id]; exists {
		return fmt.Errorf("%w: vid %d", errs.ErrDuplicateVertex, id)
	}

	owned := make([]byte, len(label))
	copy(owned, label)

	g.vertices[id] = &Vertex{ID: id, Label: owned}
	g.order = append(g.order, id)

	return nil
}

// AddEdge inserts a directed edge src -> dst. Edges form a multiset: adding
// the same (src, dst) pair twice creates two parallel edges. Returns
// errs.ErrVertexNotFound if either endpoint is missing.
func (g *Graph) AddEdge(src, dst VID) error {
	if g.frozen {
		return fmt.Errorf("%w: graph is frozen", errs.ErrUnsupported)
	}
	if _, ok := g.vertices[src]; !ok {
		return fmt.Errorf("%w: src vid %d", errs.ErrVertexNotFound, src)
	}
	if _, ok := g.vertices[dst]; !ok {
		return fmt.Errorf("%w: dst vid %d", errs.ErrVertexNotFound, dst)
	}

	g.out[src] = append(g.out[src], dst)
	g.in[dst] = append(g.in[dst], src)
	g.edges++

	return nil
}

// Freeze marks the graph immutable; subsequent AddVertex/AddEdge calls
// return an error. Freezing is idempotent.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether the graph has been frozen.
func (g *Graph) Frozen() bool { return g.frozen }

// Vertex returns the vertex with the given id, or nil if it does not exist.
func (g *Graph) Vertex(id VID) *Vertex { return g.vertices[id] }

// NumVertices returns |V|.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// NumEdges returns |E|, counting parallel edges.
func (g *Graph) NumEdges() int { return g.edges }

// VertexIDs returns all vertex ids in insertion order.
func (g *Graph) VertexIDs() []VID {
	out := make([]VID, len(g.order))
	copy(out, g.order)

	return out
}

// Out returns the outgoing neighbor list of v (may contain duplicates for
// parallel edges). The returned slice must not be modified.
func (g *Graph) Out(v VID) []VID { return g.out[v] }

// In returns the incoming neighbor list of v (may contain duplicates for
// parallel edges). The returned slice must not be modified.
func (g *Graph) In(v VID) []VID { return g.in[v] }

// TotalLabelLength returns the sum of all vertex label lengths, equal to
// the "total encoded characters" count the encoder records (spec.md §3).
func (g *Graph) TotalLabelLength() int {
	total := 0
	for _, v := range g.vertices {
		total += len(v.Label)
	}

	return total
}
