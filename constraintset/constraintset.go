// Package constraintset implements spec.md §4.3, component C: extraction
// of constraint sets from a graph. A constraint set maps a prefix string
// `p` of length 1..D, readable by walking forward from some vertex
// position, to the sorted set of vertices that are incoming neighbors of
// the walk's head vertex — the vertices whose BWT row would sit adjacent
// to `p` in the ideal sorted order.
//
// The recursive bucket-by-next-character algorithm follows
// original_source's fmd_constraint_set.c; the hash-table-of-vectors shape
// there is replaced with Go maps and slices.
package constraintset

import (
	"sort"

	"github.com/pangenome/gfmi/graph"
)

// Set is one extracted constraint: a prefix and the sorted set of
// vertices that constrain it.
type Set struct {
	Prefix   string
	Vertices []graph.VID
}

// path tracks one live walk during extraction: head is the vertex the
// walk started from (whose incoming neighbors feed the constraint), end
// is the vertex the walk currently occupies, pos is the next unread
// offset within end's label.
type path struct {
	head graph.VID
	end  graph.VID
	pos  int
}

// Extract enumerates every prefix of length 1..maxDepth reachable by
// walking forward from any vertex position, each paired with the sorted
// union of incoming neighbors of all walk heads that produced it.
//
// When multipleVertexSpan is true, a walk that exhausts its current
// vertex's label forks across every outgoing neighbor and continues from
// offset 0; when false, such a walk is a dead end and contributes no
// further prefixes.
func Extract(g *graph.Graph, maxDepth int, multipleVertexSpan bool) []Set {
	alphabet := buildAlphabet(g)

	paths := make([]path, 0, g.NumVertices())
	for _, v := range g.VertexIDs() {
		paths = append(paths, path{head: v, end: v, pos: 0})
	}

	results := make(map[string][]graph.VID)
	extractHelper(g, paths, "", results, alphabet, maxDepth, multipleVertexSpan)

	return toSortedSlice(results)
}

func buildAlphabet(g *graph.Graph) []byte {
	seen := make(map[byte]struct{})
	for _, v := range g.VertexIDs() {
		for _, c := range g.Vertex(v).Label {
			seen[c] = struct{}{}
		}
	}
	alphabet := make([]byte, 0, len(seen))
	for c := range seen {
		alphabet = append(alphabet, c)
	}
	sort.Slice(alphabet, func(i, j int) bool { return alphabet[i] < alphabet[j] })

	return alphabet
}

func extractHelper(
	g *graph.Graph,
	paths []path,
	prefix string,
	results map[string][]graph.VID,
	alphabet []byte,
	maxDepth int,
	multipleVertexSpan bool,
) {
	if len(paths) == 0 {
		return
	}

	buckets := make(map[byte][]path, len(alphabet))

	for _, p := range paths {
		label := g.Vertex(p.end).Label

		if p.pos >= len(label) {
			if !multipleVertexSpan {
				continue // dead end: no further vertex to span into
			}
			for _, nb := range g.Out(p.end) {
				nbLabel := g.Vertex(nb).Label
				if len(nbLabel) == 0 {
					continue
				}
				c := nbLabel[0]
				buckets[c] = append(buckets[c], path{head: p.head, end: nb, pos: 1})
			}
			continue
		}

		c := label[p.pos]
		buckets[c] = append(buckets[c], path{head: p.head, end: p.end, pos: p.pos + 1})
	}

	for _, c := range alphabet {
		bucket := buckets[c]
		if len(bucket) == 0 {
			continue
		}

		newPrefix := prefix + string(c)
		results[newPrefix] = unionIncoming(g, bucket)

		if len(newPrefix) < maxDepth {
			extractHelper(g, bucket, newPrefix, results, alphabet, maxDepth, multipleVertexSpan)
		}
	}
}

func unionIncoming(g *graph.Graph, bucket []path) []graph.VID {
	seen := make(map[graph.VID]struct{})
	for _, p := range bucket {
		for _, in := range g.In(p.head) {
			seen[in] = struct{}{}
		}
	}

	out := make([]graph.VID, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func toSortedSlice(results map[string][]graph.VID) []Set {
	out := make([]Set, 0, len(results))
	for prefix, vertices := range results {
		out = append(out, Set{Prefix: prefix, Vertices: vertices})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Prefix) != len(out[j].Prefix) {
			return len(out[i].Prefix) < len(out[j].Prefix)
		}

		return out[i].Prefix < out[j].Prefix
	})

	return out
}
