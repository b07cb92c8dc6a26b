// Package bitstream implements a random-access, bit-addressable buffer
// backed by a growable array of 64-bit words (spec.md §4.1, component A).
//
// encodedgraph builds its packed vertex labels on a Bitstream. The FM-index
// L-superblock bitvectors (plain uint64 words in fmi) and the annealing
// constraint matrix (byte slices in anneal) do not use it.
package bitstream

import (
	"hash/fnv"

	"github.com/pangenome/gfmi/endian"
	"github.com/pangenome/gfmi/internal/pool"
)

const wordBits = 64

// defaultWords is the initial word capacity for a zero-value Bitstream
// created with New(); chosen small since most Bitstreams are built
// incrementally and grow by doubling.
const defaultWords = 4

// Bitstream is a growable sequence of 64-bit words addressed at bit
// granularity. The zero value is not usable; construct with New or
// InitFromBuffer.
//
// A Bitstream is not safe for concurrent use; callers needing concurrent
// reads during single-writer construction should finish writing and treat
// the result as immutable, per spec.md §5's "no writes while readers exist"
// discipline.
type Bitstream struct {
	words []uint64
}

// New creates an empty Bitstream with a small initial word capacity.
func New() *Bitstream {
	return &Bitstream{words: make([]uint64, 0, defaultWords)}
}

// NewWithBitCapacity creates an empty Bitstream pre-sized to hold at least
// bitCount bits without reallocating.
func NewWithBitCapacity(bitCount int) *Bitstream {
	n := wordsFor(bitCount)
	if n < defaultWords {
		n = defaultWords
	}

	return &Bitstream{words: make([]uint64, 0, n)}
}

// InitFromBuffer adopts an externally provided byte buffer as the backing
// store, rounding the length up to a whole number of 64-bit words and
// zero-filling the tail. The buffer is interpreted little-endian, matching
// the canonical on-disk byte order (spec.md §9).
func InitFromBuffer(data []byte) *Bitstream {
	n := (len(data) + 7) / 8
	words := make([]uint64, n)
	engine := endian.GetLittleEndianEngine()

	full := len(data) / 8
	for i := range full {
		words[i] = engine.Uint64(data[i*8 : i*8+8])
	}

	if rem := len(data) % 8; rem > 0 {
		var tail [8]byte
		copy(tail[:], data[full*8:])
		words[full] = engine.Uint64(tail[:])
	}

	return &Bitstream{words: words}
}

func wordsFor(bitCount int) int {
	if bitCount <= 0 {
		return 0
	}

	return (bitCount + wordBits - 1) / wordBits
}

func maskN(n int) uint64 {
	switch {
	case n <= 0:
		return 0
	case n >= wordBits:
		return ^uint64(0)
	default:
		return (uint64(1) << uint(n)) - 1
	}
}

// WordCount returns the number of 64-bit words currently backing the stream.
func (b *Bitstream) WordCount() int { return len(b.words) }

// BitCapacity returns the number of addressable bits currently backing the
// stream (WordCount() * 64).
func (b *Bitstream) BitCapacity() int { return len(b.words) * wordBits }

// Words returns the raw backing word slice. The caller must not retain a
// mutable reference across a Write/Fit/Detach call, since those may
// reallocate the slice.
func (b *Bitstream) Words() []uint64 { return b.words }

// grow ensures the buffer has at least enough words to address
// [bitIdx, bitIdx+width), doubling capacity (in words) as needed and
// zero-initializing newly allocated words.
func (b *Bitstream) grow(bitIdx, width int) {
	need := wordsFor(bitIdx + width)
	if need <= len(b.words) {
		return
	}

	newCap := cap(b.words)
	if newCap == 0 {
		newCap = defaultWords
	}
	for newCap < need {
		newCap *= 2
	}

	grown := make([]uint64, need, newCap)
	copy(grown, b.words)
	b.words = grown
}

// Read returns the width-bit (width <= 64) unsigned value stored starting
// at bit index bitIdx, treating the buffer as one continuous bit sequence
// (equivalent to a logical 128-bit shift-and-mask across a word boundary).
// Reading past the end of the allocated buffer returns zero bits as if the
// buffer were infinitely zero-extended.
func (b *Bitstream) Read(bitIdx, width int) uint64 {
	if width <= 0 {
		return 0
	}

	wordIdx := bitIdx / wordBits
	bitOff := bitIdx % wordBits

	if wordIdx >= len(b.words) {
		return 0
	}

	lo := b.words[wordIdx]
	if bitOff+width <= wordBits {
		return (lo >> uint(bitOff)) & maskN(width)
	}

	lowBits := wordBits - bitOff
	var hi uint64
	if wordIdx+1 < len(b.words) {
		hi = b.words[wordIdx+1]
	}
	highBits := width - lowBits

	return (lo >> uint(bitOff)) | ((hi & maskN(highBits)) << uint(lowBits))
}

// Write stores the low width bits (width <= 64) of value starting at bit
// index bitIdx, growing the buffer by doubling if bitIdx+width exceeds the
// current capacity. Bits outside [bitIdx, bitIdx+width) in any word touched
// by the write are left unmodified (partial-word writes preserve untouched
// bits).
func (b *Bitstream) Write(bitIdx int, value uint64, width int) {
	if width <= 0 {
		return
	}

	b.grow(bitIdx, width)
	value &= maskN(width)

	wordIdx := bitIdx / wordBits
	bitOff := bitIdx % wordBits

	if bitOff+width <= wordBits {
		m := maskN(width) << uint(bitOff)
		b.words[wordIdx] = (b.words[wordIdx] &^ m) | (value << uint(bitOff))

		return
	}

	lowBits := wordBits - bitOff
	highBits := width - lowBits

	lowMask := maskN(lowBits) << uint(bitOff)
	b.words[wordIdx] = (b.words[wordIdx] &^ lowMask) | ((value << uint(bitOff)) & lowMask)

	highMask := maskN(highBits)
	b.words[wordIdx+1] = (b.words[wordIdx+1] &^ highMask) | ((value >> uint(lowBits)) & highMask)
}

// Fit resizes the buffer to exactly ceil(bitCount/64) words, growing with
// zero-filled tail words or truncating as needed. Unlike Write-triggered
// growth, Fit never leaves spare capacity beyond the requested size.
func (b *Bitstream) Fit(bitCount int) {
	n := wordsFor(bitCount)
	if n == len(b.words) {
		return
	}

	fit := make([]uint64, n)
	copy(fit, b.words)
	b.words = fit
}

// Detach transfers ownership of the backing word array to the caller,
// leaving the Bitstream empty. Subsequent use of the Bitstream without
// another Write/InitFromBuffer call operates on an empty buffer.
func (b *Bitstream) Detach() ([]uint64, int) {
	words := b.words
	b.words = nil

	return words, len(words)
}

// Bytes serializes the backing words to little-endian bytes, the canonical
// on-disk byte order (spec.md §9). The returned slice is freshly allocated;
// the scratch buffer used during serialization is pooled, since
// encodedgraph's ToBuffer invokes Bytes() once per vertex label when
// writing out an encoded graph.
func (b *Bitstream) Bytes() []byte {
	engine := endian.GetLittleEndianEngine()

	scratch := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(scratch)

	for _, w := range b.words {
		scratch.B = engine.AppendUint64(scratch.B, w)
	}

	out := make([]byte, scratch.Len())
	copy(out, scratch.Bytes())

	return out
}

// Hash computes the FNV-1a hash of the buffer's raw word bytes, per
// spec.md §4.1. FNV-1a is pinned explicitly by the spec rather than left to
// implementer preference, so this does not use the xxHash64 helper used
// elsewhere in the module.
func (b *Bitstream) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b.Bytes())

	return h.Sum64()
}
