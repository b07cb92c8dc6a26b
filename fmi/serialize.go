package fmi

import (
	"fmt"

	"github.com/pangenome/gfmi/endian"
	"github.com/pangenome/gfmi/errs"
)

var engine = endian.GetLittleEndianEngine()

const headerWords = 8 // 64 B, spec.md §3's header region

// ToBuffer serializes idx into the single contiguous buffer layout
// described by spec.md §3: header, F column, L superblocks, SA-occupancy
// superblocks, SA samples, and a reserved region holding the raw BWT
// byte of every row, including the rows of the four non-ranked symbols
// (spec.md §4.5's note that those rows "are recoverable by position
// without rank support" — this port makes that recovery trivial by
// storing them directly rather than re-deriving terminator/marker
// positions from V, P and str_term_pos).
func (idx *Index) ToBuffer() []byte {
	buf := make([]byte, 0, idx.estimatedBytes())

	// Header, patched with the final size once the buffer is complete.
	headerAt := len(buf)
	buf = engine.AppendUint64(buf, 0) // sizeInBytes placeholder
	buf = engine.AppendUint64(buf, idx.noChars)
	buf = engine.AppendUint64(buf, idx.isaRate)
	buf = engine.AppendUint64(buf, idx.strTermPos)
	buf = engine.AppendUint64(buf, idx.noX)
	buf = engine.AppendUint64(buf, idx.noSAValues)
	buf = engine.AppendUint64(buf, 0) // reserved
	buf = engine.AppendUint64(buf, 0) // reserved

	for _, v := range idx.f {
		buf = engine.AppendUint64(buf, v)
	}
	buf = engine.AppendUint64(buf, 0) // reserved F slot
	buf = engine.AppendUint64(buf, 0) // reserved F slot

	buf = engine.AppendUint64(buf, uint64(len(idx.superblocks)))
	for _, sb := range idx.superblocks {
		for _, c := range sb.sbc {
			buf = engine.AppendUint64(buf, c)
		}
		for _, blk := range sb.blocks {
			for _, c := range blk.bc {
				buf = engine.AppendUint32(buf, c)
			}
			buf = engine.AppendUint64(buf, blk.bv0)
			buf = engine.AppendUint64(buf, blk.bv1)
			buf = engine.AppendUint64(buf, blk.bv2)
		}
	}

	buf = engine.AppendUint64(buf, uint64(len(idx.saOcc)))
	for _, sb := range idx.saOcc {
		buf = engine.AppendUint64(buf, sb.popcount)
		for _, c := range sb.blockCount {
			buf = engine.AppendUint32(buf, c)
		}
		for _, bv := range sb.bv {
			buf = engine.AppendUint64(buf, bv)
		}
	}

	for _, v := range idx.sa {
		buf = engine.AppendUint64(buf, v)
	}

	buf = append(buf, idx.bwt...)

	engine.PutUint64(buf[headerAt:], uint64(len(buf)))

	return buf
}

// estimatedBytes sizes the initial ToBuffer allocation; it need not be
// exact, only a reasonable lower bound to avoid repeated growth.
func (idx *Index) estimatedBytes() int {
	perSB := noRanked*8 + blocksPerSB*(noRanked*4+24)
	perSAOcc := 8 + 5*4 + 6*8

	return 128 + len(idx.superblocks)*perSB + len(idx.saOcc)*perSAOcc + len(idx.sa)*8 + len(idx.bwt)
}

type fmiReader struct {
	data []byte
	pos  int
}

func (r *fmiReader) u64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("%w: truncated while reading 8-byte field at offset %d", errs.ErrCorruptBuffer, r.pos)
	}
	v := engine.Uint64(r.data[r.pos:])
	r.pos += 8

	return v, nil
}

func (r *fmiReader) u32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("%w: truncated while reading 4-byte field at offset %d", errs.ErrCorruptBuffer, r.pos)
	}
	v := engine.Uint32(r.data[r.pos:])
	r.pos += 4

	return v, nil
}

func (r *fmiReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated while reading %d bytes at offset %d", errs.ErrCorruptBuffer, n, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

// FromBuffer is the exact inverse of ToBuffer: it adopts data (the caller
// retains ownership; FromBuffer does not mutate it) and rebinds every
// region from sizes re-derived from the header and the per-region counts
// written alongside each one, per spec.md §4.5's "from_buffer ... rebinds
// region pointers from sizes re-derived from the header" and DESIGN.md's
// fix for the source's n_sa_val recomputation bug: NoSAValues always
// comes from the header field, never recomputed from noChars/isaRate.
func FromBuffer(data []byte) (*Index, error) {
	r := &fmiReader{data: data}

	sizeInBytes, err := r.u64()
	if err != nil {
		return nil, err
	}
	if int(sizeInBytes) != len(data) {
		return nil, fmt.Errorf("%w: header declares %d bytes, buffer has %d", errs.ErrCorruptBuffer, sizeInBytes, len(data))
	}

	idx := &Index{}

	if idx.noChars, err = r.u64(); err != nil {
		return nil, err
	}
	if idx.isaRate, err = r.u64(); err != nil {
		return nil, err
	}
	if idx.strTermPos, err = r.u64(); err != nil {
		return nil, err
	}
	if idx.noX, err = r.u64(); err != nil {
		return nil, err
	}
	if idx.noSAValues, err = r.u64(); err != nil {
		return nil, err
	}
	if _, err = r.u64(); err != nil { // reserved
		return nil, err
	}
	if _, err = r.u64(); err != nil { // reserved
		return nil, err
	}

	for i := range idx.f {
		if idx.f[i], err = r.u64(); err != nil {
			return nil, err
		}
	}
	if _, err = r.u64(); err != nil { // reserved
		return nil, err
	}
	if _, err = r.u64(); err != nil { // reserved
		return nil, err
	}

	noSB, err := r.u64()
	if err != nil {
		return nil, err
	}
	idx.superblocks = make([]superblock, noSB)
	for i := range idx.superblocks {
		sb := &idx.superblocks[i]
		for c := range sb.sbc {
			if sb.sbc[c], err = r.u64(); err != nil {
				return nil, err
			}
		}
		for b := range sb.blocks {
			blk := &sb.blocks[b]
			for c := range blk.bc {
				if blk.bc[c], err = r.u32(); err != nil {
					return nil, err
				}
			}
			if blk.bv0, err = r.u64(); err != nil {
				return nil, err
			}
			if blk.bv1, err = r.u64(); err != nil {
				return nil, err
			}
			if blk.bv2, err = r.u64(); err != nil {
				return nil, err
			}
		}
	}

	noSAOcc, err := r.u64()
	if err != nil {
		return nil, err
	}
	idx.saOcc = make([]saSuperblock, noSAOcc)
	for i := range idx.saOcc {
		sb := &idx.saOcc[i]
		if sb.popcount, err = r.u64(); err != nil {
			return nil, err
		}
		for c := range sb.blockCount {
			if sb.blockCount[c], err = r.u32(); err != nil {
				return nil, err
			}
		}
		for b := range sb.bv {
			if sb.bv[b], err = r.u64(); err != nil {
				return nil, err
			}
		}
	}

	idx.sa = make([]uint64, idx.noSAValues)
	for i := range idx.sa {
		if idx.sa[i], err = r.u64(); err != nil {
			return nil, err
		}
	}

	bwt, err := r.bytes(int(idx.noChars))
	if err != nil {
		return nil, err
	}
	idx.bwt = append([]byte(nil), bwt...)

	return idx, nil
}
