// Package fmi implements the cache-line-aligned FM-index over the
// DNA-restricted alphabet {'\0', '(', ')', ',', '.', A, C, G, N, T}
// (spec.md §3, §4.5): a Burrows-Wheeler transform of a text derived from
// a permuted, encoded graph, augmented with sampled suffix-array values,
// supporting O(1) rank, count via backward search, and bounded-hop
// locate.
//
// Six of the ten alphabet symbols participate in rank queries — A, C, G,
// T, N and '(' — and are packed three-bits-per-position across three
// parallel bitvectors per 64-character block (the "wavelet" encoding).
// The remaining four symbols ('\0', ')', ',', '.') are accounted for in
// the F column only; their BWT rows are either unique (the terminator),
// recoverable from the matching '(' row via the vertex-length table in
// encodedgraph (')'), or, for ',' and '.' (the permutation markers), kept
// only as raw BWT bytes: rows whose suffix starts with a permutation
// marker are never sampled.
package fmi

// Ranked alphabet encodings. waveletBits gives each symbol the codeword
// enc+1 read as (bv0, bv1, bv2): '('=001, A=010, C=011, G=100, N=101,
// T=110.
// encX represents '(', the vertex-start marker, which is rankable but not
// itself a base.
const (
	encX = 0
	encA = 1
	encC = 2
	encG = 3
	encN = 4
	encT = 5

	noRanked = 6
)

// Non-ranked alphabet bytes: the terminator and the three marker bytes
// collapsed into the F column only (spec.md §4.5 step 7).
const (
	byteTerm  byte = 0
	byteOpen  byte = '('
	byteClose byte = ')'
	byteComma byte = ','
	byteDot   byte = '.'
	byteA     byte = 'A'
	byteC     byte = 'C'
	byteG     byte = 'G'
	byteN     byte = 'N'
	byteT     byte = 'T'
)

// encodeRanked returns the rank-alphabet encoding for c and true if c is
// one of the six rankable symbols.
func encodeRanked(c byte) (int, bool) {
	switch c {
	case byteOpen:
		return encX, true
	case byteA:
		return encA, true
	case byteC:
		return encC, true
	case byteG:
		return encG, true
	case byteN:
		return encN, true
	case byteT:
		return encT, true
	default:
		return 0, false
	}
}

// RankAlphabetSize is the number of symbols that participate in rank
// queries (spec.md §4.5: A, C, G, T, N, '('). query/oimt index their own
// per-symbol structures with this many slots.
const RankAlphabetSize = noRanked

// VertexOpen and VertexClose are the vertex-boundary marker bytes used by
// BuildText and by query's backward-search-with-forks to detect when a
// match has crossed from one vertex's label into another's.
const (
	VertexOpen  = byteOpen
	VertexClose = byteClose
)

// EncodeRankChar is the exported form of encodeRanked, for callers (the
// query package, tests) that need to index per-symbol structures such as
// an OIMT by the same encoding Rank/Count use.
func EncodeRankChar(c byte) (int, bool) { return encodeRanked(c) }

// decodeRanked is the inverse of encodeRanked.
func decodeRanked(enc int) byte {
	switch enc {
	case encX:
		return byteOpen
	case encA:
		return byteA
	case encC:
		return byteC
	case encG:
		return byteG
	case encN:
		return byteN
	case encT:
		return byteT
	default:
		return 0
	}
}

// wavelet bit assignment: which of the three per-block bitvectors get a
// set bit at a position encoding symbol enc. This table is used both when
// populating L (Build) and when reconstructing an indicator bitvector for
// a symbol during Rank, so the two sides can never drift apart.
func waveletBits(enc int) (bv0, bv1, bv2 bool) {
	switch enc {
	case encX: // (0,0,1)
		return false, false, true
	case encA: // (0,1,0)
		return false, true, false
	case encC: // (0,1,1)
		return false, true, true
	case encG: // (1,0,0)
		return true, false, false
	case encN: // (1,0,1)
		return true, false, true
	case encT: // (1,1,0)
		return true, true, false
	default:
		return false, false, false
	}
}

// waveletIndicator reconstructs the 64-bit indicator word for symbol enc
// from a block's three codeword bitvectors (spec.md §4.5: "wavelet(e, bv)
// reconstructs the indicator bitvector for symbol e from the three
// codeword bitvectors using a fixed 6-way case table"). Bit m of the
// result is 1 iff position m of the block encodes enc.
func waveletIndicator(enc int, bv0, bv1, bv2 uint64) uint64 {
	w0, w1, w2 := waveletBits(enc)

	t0, t1, t2 := bv0, bv1, bv2
	if !w0 {
		t0 = ^t0
	}
	if !w1 {
		t1 = ^t1
	}
	if !w2 {
		t2 = ^t2
	}

	return t0 & t1 & t2
}
