package fmi

import "math/bits"

// Count returns the number of occurrences of pattern as a contiguous
// substring of the indexed text, via standard FM-index backward search
// (spec.md §4.5). pattern must consist solely of rankable symbols; any
// other symbol makes the match empty since backward search widens from a
// zero-width range that can never be restored. An empty pattern counts 0.
func (idx *Index) Count(pattern []byte) int {
	if len(pattern) == 0 {
		return 0
	}

	lo, hi, ok := idx.backwardSearch(pattern)
	if !ok {
		return 0
	}

	return hi - lo
}

// backwardSearch returns the half-open SA row range [lo, hi) matching
// pattern, and false if the search emptied out before consuming the
// whole pattern.
func (idx *Index) backwardSearch(pattern []byte) (int, int, bool) {
	lo, hi := 0, int(idx.noChars)

	for i := len(pattern) - 1; i >= 0; i-- {
		var ok bool
		lo, hi, ok = idx.ExtendRange(lo, hi, pattern[i])
		if !ok {
			return 0, 0, false
		}
	}

	return lo, hi, true
}

// ExtendRange performs one backward-search step: given the SA row range
// [lo, hi) matching some already-matched suffix, it returns the range
// matching c+suffix, and false if prepending c empties the range.
func (idx *Index) ExtendRange(lo, hi int, c byte) (int, int, bool) {
	enc, ok := encodeRanked(c)
	if !ok {
		return 0, 0, false
	}

	base := int(idx.fBase(enc))
	newLo := base + int(idx.rankEnc(lo-1, enc))
	newHi := base + int(idx.rankEnc(hi-1, enc))

	if newLo >= newHi {
		return 0, 0, false
	}

	return newLo, newHi, true
}

// ExtendRangeDouble performs the two backward-search steps query's
// backward-search-with-forks needs at every iteration — extending by the
// next pattern character and by the vertex-start marker — sharing a
// single superblock/block fetch per boundary via RankDouble, per spec.md
// §4.5's "double-rank... a required performance operation, not an
// optimization".
func (idx *Index) ExtendRangeDouble(lo, hi int, c1, c2 byte) (lo1, hi1 int, ok1 bool, lo2, hi2 int, ok2 bool) {
	e1, okEnc1 := encodeRanked(c1)
	e2, okEnc2 := encodeRanked(c2)
	if !okEnc1 || !okEnc2 {
		return 0, 0, false, 0, 0, false
	}

	r1Lo, r2Lo := idx.RankDouble(lo-1, c1, c2)
	r1Hi, r2Hi := idx.RankDouble(hi-1, c1, c2)

	base1, base2 := int(idx.fBase(e1)), int(idx.fBase(e2))

	lo1, hi1 = base1+int(r1Lo), base1+int(r1Hi)
	lo2, hi2 = base2+int(r2Lo), base2+int(r2Hi)
	ok1 = lo1 < hi1
	ok2 = lo2 < hi2

	return
}

// Locate maps SA row i to its text position (spec.md §4.5): if i's
// occupancy bit is set, the position is read directly from the sampled
// SA array; otherwise Locate LF-steps until it lands on a sampled row,
// counting hops along the way. Worst case hops is isa_rate-1 for
// non-boundary rows, 0 for the always-sampled marker rows.
func (idx *Index) Locate(i int) int {
	hops := 0
	for !idx.occupied(i) {
		c := idx.charAt(i)
		enc, ok := encodeRanked(c)
		if !ok {
			// unreachable for a well-formed index: every BWT row not in
			// the always-sampled range carries a rankable base.
			return -1
		}
		i = int(idx.fBase(enc)) + int(idx.rankEnc(i, enc)) - 1
		hops++
	}

	return int(idx.sa[idx.occRank(i)]) + hops
}

// LocateAll counts pattern and locates every matching SA row.
func (idx *Index) LocateAll(pattern []byte) []int {
	lo, hi, ok := idx.backwardSearch(pattern)
	if !ok {
		return nil
	}

	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, idx.Locate(i))
	}

	return out
}

// occupied reports whether SA row i has a sampled value.
func (idx *Index) occupied(i int) bool {
	sbIdx := i / saSuperblockWidth
	within := i % saSuperblockWidth
	bIdx := within / blockWidth
	m := uint(within % blockWidth)

	return (idx.saOcc[sbIdx].bv[bIdx]>>m)&1 == 1
}

// occRank returns the number of sampled rows strictly before row i,
// which is also the index of row i's own sample when occupied(i) holds.
func (idx *Index) occRank(i int) int {
	sbIdx := i / saSuperblockWidth
	within := i % saSuperblockWidth
	bIdx := within / blockWidth
	m := uint(within % blockWidth)

	sb := &idx.saOcc[sbIdx]
	count := int(sb.popcount)
	if bIdx > 0 {
		count += int(sb.blockCount[bIdx-1])
	}
	count += bits.OnesCount64(sb.bv[bIdx] & maskBefore(m))

	return count
}

// maskBefore returns a mask with bits [0, m) set (m exclusive).
func maskBefore(m uint) uint64 {
	if m == 0 {
		return 0
	}

	return (uint64(1) << m) - 1
}
