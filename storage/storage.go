// Package storage wraps a finished .fmdi buffer (fmi.Index.ToBuffer's
// output) in an at-rest/at-transport compression envelope. It is the I/O
// wrapper spec.md places outside the core: it never inspects fmi's internal
// layout, only the opaque bytes the core already produced.
package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/pangenome/gfmi/compress"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/format"
	"github.com/pangenome/gfmi/internal/hash"
)

// envelopeMagic identifies a storage envelope, distinct from fmi's own
// buffer magic so a misrouted raw .fmdi buffer is rejected early.
const envelopeMagic = uint32(0x464d4453) // "FMDS"

// envelopeHeaderSize is magic(4) + compressionType(1) + pad(3) + rawSize(8) +
// checksum(8).
const envelopeHeaderSize = 24

// Wrap compresses a serialized .fmdi buffer with the given codec and frames
// it with a small header recording the codec, the uncompressed size, and an
// xxHash64 checksum of the uncompressed bytes, so Unwrap can both decompress
// without being told which codec was used and detect at-rest corruption the
// codec's own decompression step wouldn't otherwise catch.
func Wrap(raw []byte, ct format.CompressionType) ([]byte, error) {
	codec, err := compress.CreateCodec(ct, "storage envelope")
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: compress: %v", errs.ErrIO, err)
	}

	out := make([]byte, envelopeHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:4], envelopeMagic)
	out[4] = byte(ct)
	binary.LittleEndian.PutUint64(out[8:16], uint64(len(raw)))
	binary.LittleEndian.PutUint64(out[16:24], hash.Checksum(raw))
	copy(out[envelopeHeaderSize:], compressed)

	return out, nil
}

// Unwrap reverses Wrap, returning the original .fmdi buffer.
func Unwrap(data []byte) ([]byte, error) {
	if len(data) < envelopeHeaderSize {
		return nil, fmt.Errorf("%w: storage envelope shorter than header", errs.ErrInvalidHeaderSize)
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != envelopeMagic {
		return nil, errs.ErrInvalidMagic
	}

	ct := format.CompressionType(data[4])
	rawSize := binary.LittleEndian.Uint64(data[8:16])
	wantChecksum := binary.LittleEndian.Uint64(data[16:24])

	codec, err := compress.CreateCodec(ct, "storage envelope")
	if err != nil {
		return nil, err
	}

	raw, err := codec.Decompress(data[envelopeHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", errs.ErrIO, err)
	}
	if uint64(len(raw)) != rawSize {
		return nil, fmt.Errorf("%w: decompressed size %d, header says %d", errs.ErrCorruptBuffer, len(raw), rawSize)
	}
	if got := hash.Checksum(raw); got != wantChecksum {
		return nil, fmt.Errorf("%w: checksum mismatch: got %#x, want %#x", errs.ErrCorruptBuffer, got, wantChecksum)
	}

	return raw, nil
}
