package encodedgraph

import (
	"fmt"

	"github.com/pangenome/gfmi/bitstream"
	"github.com/pangenome/gfmi/endian"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
)

// tableSize is the byte width of each of the three alphabet lookup tables
// (occupancy, encode, decode): one byte per possible input byte value.
const tableSize = 256

// ToBuffer serializes the encoded graph per spec.md §4.2:
//
//	64b alphabet size
//	3 x 256B tables (occupancy, encode, decode)
//	64b no_vertices, 64b no_edges, 64b no_total_encoded_characters
//	per vertex: 64b vid, 64b no_encoded_characters, 64b no_outgoing_edges,
//	            adjacency (64b each), bit-packed label payload,
//	            64-bit-boundary padding
func (g *Graph) ToBuffer() []byte {
	engine := endian.GetLittleEndianEngine()
	buf := make([]byte, 0, 8+3*tableSize+24+g.estimatedVertexBytes())

	buf = engine.AppendUint64(buf, uint64(len(g.alphabet)))

	occupancy := make([]byte, tableSize)
	encodeTbl := make([]byte, tableSize)
	decodeTbl := make([]byte, tableSize)
	for i := 0; i < tableSize; i++ {
		if g.present[i] {
			occupancy[i] = 1
		}
		encodeTbl[i] = g.encode[i]
		decodeTbl[i] = g.decode[i]
	}
	buf = append(buf, occupancy...)
	buf = append(buf, encodeTbl...)
	buf = append(buf, decodeTbl...)

	buf = engine.AppendUint64(buf, uint64(len(g.vertices)))
	buf = engine.AppendUint64(buf, uint64(g.totalEdges))
	buf = engine.AppendUint64(buf, uint64(g.totalChars))

	for _, id := range g.order {
		rec := g.vertices[id]
		buf = engine.AppendUint64(buf, uint64(rec.id))
		buf = engine.AppendUint64(buf, uint64(rec.nChars))
		buf = engine.AppendUint64(buf, uint64(len(rec.out)))
		for _, nb := range rec.out {
			buf = engine.AppendUint64(buf, uint64(nb))
		}
		buf = append(buf, rec.label.Bytes()...) // already 64-bit-boundary padded
	}

	return buf
}

func (g *Graph) estimatedVertexBytes() int {
	return len(g.vertices)*24 + int(g.totalEdges)*8 + int(g.totalChars)*g.charBits/8
}

// FromBuffer is the exact inverse of ToBuffer.
func FromBuffer(data []byte) (*Graph, error) {
	engine := endian.GetLittleEndianEngine()
	r := &reader{data: data, engine: engine}

	alphaLen, err := r.u64()
	if err != nil {
		return nil, err
	}

	occupancy, err := r.bytes(tableSize)
	if err != nil {
		return nil, err
	}
	encodeTbl, err := r.bytes(tableSize)
	if err != nil {
		return nil, err
	}
	decodeTbl, err := r.bytes(tableSize)
	if err != nil {
		return nil, err
	}

	g := &Graph{vertices: make(map[graph.VID]*vertexRecord)}
	for i := 0; i < tableSize; i++ {
		g.present[i] = occupancy[i] != 0
		g.encode[i] = encodeTbl[i]
		g.decode[i] = decodeTbl[i]
	}
	g.alphabet = make([]byte, 0, alphaLen)
	for i := 0; i < tableSize; i++ {
		if g.present[i] {
			g.alphabet = append(g.alphabet, byte(i))
		}
	}
	if uint64(len(g.alphabet)) != alphaLen {
		return nil, fmt.Errorf("%w: alphabet size mismatch", errs.ErrCorruptBuffer)
	}
	g.charBits = charBitsFor(len(g.alphabet))

	numVertices, err := r.u64()
	if err != nil {
		return nil, err
	}
	g.totalEdges, err = r.i64()
	if err != nil {
		return nil, err
	}
	g.totalChars, err = r.i64()
	if err != nil {
		return nil, err
	}

	for i := uint64(0); i < numVertices; i++ {
		vid, err := r.u64()
		if err != nil {
			return nil, err
		}
		nChars, err := r.u64()
		if err != nil {
			return nil, err
		}
		nOut, err := r.u64()
		if err != nil {
			return nil, err
		}

		out := make([]graph.VID, nOut)
		for j := range out {
			v, err := r.u64()
			if err != nil {
				return nil, err
			}
			out[j] = graph.VID(v)
		}

		payloadBits := int(nChars) * g.charBits
		payloadBytes := (payloadBits + 63) / 64 * 8
		raw, err := r.bytes(payloadBytes)
		if err != nil {
			return nil, err
		}

		rec := &vertexRecord{
			id:     graph.VID(vid),
			nChars: int(nChars),
			out:    out,
			label:  bitstream.InitFromBuffer(raw),
		}
		g.vertices[rec.id] = rec
		g.order = append(g.order, rec.id)
	}

	return g, nil
}

// reader is a small cursor over a byte slice, modeled on the
// teacher's direct-slice Parse style but handling the variable-length
// per-vertex records this component's layout requires.
type reader struct {
	data   []byte
	pos    int
	engine interface {
		Uint64([]byte) uint64
	}
}

func (r *reader) u64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("%w: truncated uint64 at offset %d", errs.ErrCorruptBuffer, r.pos)
	}
	v := r.engine.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8

	return v, nil
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()

	return int64(v), err
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated %d-byte field at offset %d", errs.ErrCorruptBuffer, n, r.pos)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n

	return out, nil
}
