package graph

// WalkNode is one matched segment of a walk through the graph: the vertex
// it traverses, the half-open range of the query string it accounts for
// ([StrLo, StrHi)), and the half-open range within that vertex's label
// that was matched ([GraphLo, GraphHi)).
//
// Metadata is opaque payload attached by callers (the query engine leaves
// it unset); WalkNode equality ignores it, since
// spec.md §4.2 defines walk equality purely over the matched-range fields.
type WalkNode struct {
	Metadata any
	VID      VID
	StrLo    int
	StrHi    int
	GraphLo  int
	GraphHi  int
}

func (n WalkNode) matchedFieldsEqual(o WalkNode) bool {
	return n.VID == o.VID &&
		n.StrLo == o.StrLo && n.StrHi == o.StrHi &&
		n.GraphLo == o.GraphLo && n.GraphHi == o.GraphHi
}

// Walk is an ordered sequence of WalkNodes describing a contiguous path
// through the graph that matches some query substring.
//
// The source implementation represents a walk as a sentinel-headed doubly
// linked list (dummy.next = dummy) to simplify head/tail insertion; per
// spec.md §9 that sentinel carries no semantic role, so Walk is instead a
// plain owned slice with Prepend/Append helpers covering the same two
// insertion patterns the backward-search and forward-matching code paths
// need.
type Walk []WalkNode

// Append returns a new Walk with n appended at the tail.
func (w Walk) Append(n WalkNode) Walk {
	out := make(Walk, len(w), len(w)+1)
	copy(out, w)

	return append(out, n)
}

// Prepend returns a new Walk with n inserted at the head. Backward search
// builds a walk back-to-front, so this is the common-case insertion during
// query.
func (w Walk) Prepend(n WalkNode) Walk {
	out := make(Walk, 0, len(w)+1)
	out = append(out, n)

	return append(out, w...)
}

// Equal reports whether two walks have the same length and element-wise
// equal nodes, per spec.md §4.2's "equality is element-wise pair
// comparison across all nodes in order".
func (w Walk) Equal(o Walk) bool {
	if len(w) != len(o) {
		return false
	}
	for i := range w {
		if !w[i].matchedFieldsEqual(o[i]) {
			return false
		}
	}

	return true
}

// Len returns the number of nodes in the walk.
func (w Walk) Len() int { return len(w) }

// StartVertex returns the vid of the walk's first node and true, or the
// zero value and false if the walk is empty.
func (w Walk) StartVertex() (VID, bool) {
	if len(w) == 0 {
		return 0, false
	}

	return w[0].VID, true
}

// StartOffset returns the GraphLo offset of the walk's first node, which is
// the (vid, offset) locate result for this walk's occurrence.
func (w Walk) StartOffset() int {
	if len(w) == 0 {
		return 0
	}

	return w[0].GraphLo
}
