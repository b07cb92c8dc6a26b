package fmi

import (
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/internal/options"
	"github.com/pangenome/gfmi/suffixarray"
)

// Build constructs an Index over text, following spec.md §4.5's nine
// construction steps: suffix-sort, derive the BWT, count '(' and the
// permutation markers, decide the sampled-SA set, populate L's
// bitvectors and cumulative caches, populate F, populate the
// SA-occupancy bitmap.
func Build(text []byte, opts ...BuildOption) (*Index, error) {
	if len(text) == 0 {
		return nil, errs.ErrEmptyText
	}

	cfg := &buildConfig{isaRate: 256}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	sa := suffixarray.Build(text)
	n := len(sa)

	bwt := make([]byte, n)
	strTermPos := -1

	var V, P int
	var termCount, openCount, closeCount, commaCount, dotCount int
	var baseCount [5]int // A, C, G, N, T totals, in that order

	for i, s := range sa {
		var c byte
		if s > 0 {
			c = text[s-1]
		} else {
			c = byteTerm
			strTermPos = i
		}
		bwt[i] = c

		switch c {
		case byteTerm:
			termCount++
		case byteOpen:
			openCount++
			V++
		case byteClose:
			closeCount++
		case byteComma:
			commaCount++
			P++
		case byteDot:
			dotCount++
			P++
		case byteA:
			baseCount[0]++
		case byteC:
			baseCount[1]++
		case byteG:
			baseCount[2]++
		case byteN:
			baseCount[3]++
		case byteT:
			baseCount[4]++
		}
	}

	idx := &Index{
		noChars:    uint64(n),
		isaRate:    uint64(cfg.isaRate),
		strTermPos: uint64(strTermPos),
		noX:        uint64(V),
		bwt:        bwt,
	}

	// F column: cumulative prefix sums in ASCII order, collapsing the
	// non-ranked markers into the '(' and 'A' slots (spec.md §4.5 step 7).
	idx.f[encX] = uint64(termCount)
	idx.f[encA] = idx.f[encX] + uint64(openCount+closeCount+commaCount+dotCount)
	idx.f[encC] = idx.f[encA] + uint64(baseCount[0])
	idx.f[encG] = idx.f[encC] + uint64(baseCount[1])
	idx.f[encN] = idx.f[encG] + uint64(baseCount[2])
	idx.f[encT] = idx.f[encN] + uint64(baseCount[3])

	idx.buildL(bwt)
	idx.buildSAOccupancy(sa, V, P, cfg.isaRate)

	return idx, nil
}

// buildL populates the superblock/block wavelet bitvectors and their
// cumulative-count caches, one pass over the BWT (spec.md §4.5 step 6).
func (idx *Index) buildL(bwt []byte) {
	n := len(bwt)
	nSB := (n + superblockWidth - 1) / superblockWidth
	if nSB == 0 {
		nSB = 1
	}
	idx.superblocks = make([]superblock, nSB)

	var ctRanked [noRanked]int
	var sbBase [noRanked]int

	for i := 0; i < n; i++ {
		s := i / superblockWidth
		bIdx := (i % superblockWidth) / blockWidth
		m := uint(i % blockWidth)

		if i%superblockWidth == 0 {
			for c := 0; c < noRanked; c++ {
				idx.superblocks[s].sbc[c] = uint64(ctRanked[c])
				sbBase[c] = ctRanked[c]
			}
		}
		if i%blockWidth == 0 {
			for c := 0; c < noRanked; c++ {
				idx.superblocks[s].blocks[bIdx].bc[c] = uint32(ctRanked[c] - sbBase[c])
			}
		}

		enc, ranked := encodeRanked(bwt[i])
		if ranked {
			b0, b1, b2 := waveletBits(enc)
			blk := &idx.superblocks[s].blocks[bIdx]
			if b0 {
				blk.bv0 |= 1 << m
			}
			if b1 {
				blk.bv1 |= 1 << m
			}
			if b2 {
				blk.bv2 |= 1 << m
			}
			ctRanked[enc]++
		}
	}
}

// buildSAOccupancy decides the sampled-SA set per spec.md §4.5 step 4,
// populates the occupancy bitmap's superblock/block popcount caches
// (step 8), and collects the sampled SA values in BWT-row order.
func (idx *Index) buildSAOccupancy(sa []int, V, P, isaRate int) {
	n := len(sa)
	nSB := (n + saSuperblockWidth - 1) / saSuperblockWidth
	if nSB == 0 {
		nSB = 1
	}
	idx.saOcc = make([]saSuperblock, nSB)
	idx.sa = make([]uint64, 0, 2*V+1)

	occBits := make([]bool, n)
	alwaysSampled := 2*V + 1
	skipUntil := alwaysSampled + P

	for i := 0; i < n; i++ {
		switch {
		case i < alwaysSampled:
			occBits[i] = true
		case i < skipUntil:
			// permutation marker row, never sampled
		default:
			if sa[i]%isaRate == 0 {
				occBits[i] = true
			}
		}
	}

	var running, blockBase int
	for i := 0; i < n; i++ {
		sbIdx := i / saSuperblockWidth
		within := i % saSuperblockWidth
		bIdx := within / blockWidth
		m := uint(within % blockWidth)

		if within == 0 {
			idx.saOcc[sbIdx].popcount = uint64(running)
			blockBase = running
		}
		if within%blockWidth == 0 && bIdx > 0 {
			idx.saOcc[sbIdx].blockCount[bIdx-1] = uint32(running - blockBase)
		}

		if occBits[i] {
			idx.saOcc[sbIdx].bv[bIdx] |= 1 << m
			idx.sa = append(idx.sa, uint64(sa[i]))
			running++
		}
	}

	idx.noSAValues = uint64(running)
}
