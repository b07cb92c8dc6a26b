package fmi

import (
	"log"
	"math/bits"
)

// Rank returns |{ j <= pos : L[j] == c }| in O(1) (spec.md §4.5). Per the
// source's documented "rank(-1, c)" edge case (see DESIGN.md), a negative
// pos returns 0 rather than relying on unsigned wraparound. c must be one
// of the six rankable symbols ('(' , A, C, G, N, T); an invalid symbol is
// a programmer error (spec.md §7) — it is reported on stderr and Rank
// returns 0 rather than panicking.
func (idx *Index) Rank(pos int, c byte) uint64 {
	if pos < 0 {
		return 0
	}

	enc, ok := encodeRanked(c)
	if !ok {
		log.Printf("gfmi: fmi.Rank called with non-rankable symbol %q", c)
		return 0
	}

	return idx.rankEnc(pos, enc)
}

func (idx *Index) rankEnc(pos int, enc int) uint64 {
	if pos >= int(idx.noChars) {
		pos = int(idx.noChars) - 1
	}

	s := pos / superblockWidth
	b := (pos % superblockWidth) / blockWidth
	m := uint(pos % blockWidth)

	sb := &idx.superblocks[s]
	blk := &sb.blocks[b]

	base := sb.sbc[enc] + uint64(blk.bc[enc])
	word := waveletIndicator(enc, blk.bv0, blk.bv1, blk.bv2)

	return base + uint64(bits.OnesCount64(word&maskThrough(m)))
}

// maskThrough returns a mask with bits [0, m] set (m inclusive), handling
// the m == 63 case where 1<<64 would overflow.
func maskThrough(m uint) uint64 {
	if m == 63 {
		return ^uint64(0)
	}

	return (uint64(1) << (m + 1)) - 1
}

// RankDouble computes Rank(pos, c1) and Rank(pos, c2) sharing a single
// superblock/block fetch, as spec.md §4.5 requires ("a required
// performance operation, not an optimization") since backward search
// always ranks around both the pattern character and the vertex-start
// marker together.
func (idx *Index) RankDouble(pos int, c1, c2 byte) (uint64, uint64) {
	if pos < 0 {
		return 0, 0
	}

	e1, ok1 := encodeRanked(c1)
	e2, ok2 := encodeRanked(c2)
	if !ok1 || !ok2 {
		log.Printf("gfmi: fmi.RankDouble called with non-rankable symbol(s) %q %q", c1, c2)
		return 0, 0
	}

	clamped := pos
	if clamped >= int(idx.noChars) {
		clamped = int(idx.noChars) - 1
	}

	s := clamped / superblockWidth
	b := (clamped % superblockWidth) / blockWidth
	m := uint(clamped % blockWidth)

	sb := &idx.superblocks[s]
	blk := &sb.blocks[b]
	mask := maskThrough(m)

	r1 := sb.sbc[e1] + uint64(blk.bc[e1]) + uint64(bits.OnesCount64(waveletIndicator(e1, blk.bv0, blk.bv1, blk.bv2)&mask))
	r2 := sb.sbc[e2] + uint64(blk.bc[e2]) + uint64(bits.OnesCount64(waveletIndicator(e2, blk.bv0, blk.bv1, blk.bv2)&mask))

	return r1, r2
}

// charAt returns the BWT symbol at row i.
func (idx *Index) charAt(i int) byte {
	return idx.bwt[i]
}

// fBase returns the F column base for an already-encoded rank symbol.
func (idx *Index) fBase(enc int) uint64 {
	return idx.f[enc]
}
