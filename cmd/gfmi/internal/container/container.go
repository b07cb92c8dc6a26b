// Package container is the gfmi CLI's on-disk ".fmdi" file format: a small
// bundle of the core's own byte-identical ToBuffer/FromBuffer payloads
// (encodedgraph.Graph, fmi.Index) plus the vertex permutation used to build
// them, so that `gfmi query` can reconstruct a full query.Engine from one
// file. Each inner payload still round-trips through its own package's
// ToBuffer/FromBuffer exactly as spec.md §6 requires; this package only
// frames them together.
package container

import (
	"encoding/binary"
	"fmt"

	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
)

const magic = uint32(0x46474d44) // "FGMD"

// Bundle is the three payloads a query-capable reload needs.
type Bundle struct {
	EncodedGraph []byte
	Index        []byte
	Permutation  []graph.VID
}

// Write frames b into the container's on-disk layout:
//
//	32b magic
//	64b len(EncodedGraph), EncodedGraph bytes
//	64b len(Index), Index bytes
//	64b len(Permutation), Permutation vids (64b each)
func Write(b Bundle) []byte {
	size := 4 + 8 + len(b.EncodedGraph) + 8 + len(b.Index) + 8 + len(b.Permutation)*8
	out := make([]byte, 0, size)

	out = binary.LittleEndian.AppendUint32(out, magic)
	out = appendChunk(out, b.EncodedGraph)
	out = appendChunk(out, b.Index)

	out = binary.LittleEndian.AppendUint64(out, uint64(len(b.Permutation)))
	for _, v := range b.Permutation {
		out = binary.LittleEndian.AppendUint64(out, uint64(v))
	}

	return out
}

func appendChunk(out, chunk []byte) []byte {
	out = binary.LittleEndian.AppendUint64(out, uint64(len(chunk)))

	return append(out, chunk...)
}

// Read is the exact inverse of Write.
func Read(data []byte) (Bundle, error) {
	r := &cursor{data: data}

	m, err := r.u32()
	if err != nil {
		return Bundle{}, err
	}
	if m != magic {
		return Bundle{}, errs.ErrInvalidMagic
	}

	eg, err := r.chunk()
	if err != nil {
		return Bundle{}, err
	}
	idx, err := r.chunk()
	if err != nil {
		return Bundle{}, err
	}

	n, err := r.u64()
	if err != nil {
		return Bundle{}, err
	}

	perm := make([]graph.VID, n)
	for i := range perm {
		v, err := r.u64()
		if err != nil {
			return Bundle{}, err
		}
		perm[i] = graph.VID(v)
	}

	return Bundle{EncodedGraph: eg, Index: idx, Permutation: perm}, nil
}

type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) u32() (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, fmt.Errorf("%w: truncated container header", errs.ErrCorruptBuffer)
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos : c.pos+4])
	c.pos += 4

	return v, nil
}

func (c *cursor) u64() (uint64, error) {
	if c.pos+8 > len(c.data) {
		return 0, fmt.Errorf("%w: truncated container field", errs.ErrCorruptBuffer)
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos : c.pos+8])
	c.pos += 8

	return v, nil
}

func (c *cursor) chunk() ([]byte, error) {
	n, err := c.u64()
	if err != nil {
		return nil, err
	}
	if c.pos+int(n) > len(c.data) {
		return nil, fmt.Errorf("%w: truncated container chunk", errs.ErrCorruptBuffer)
	}
	b := c.data[c.pos : c.pos+int(n)]
	c.pos += int(n)

	return b, nil
}
