// Package compress provides pluggable compression codecs for the storage
// envelope wrapped around a finished .fmdi buffer.
//
// The fmi package never imports this package: per spec.md's Non-goals, no
// compression beyond bit-packing exists inside the index structure itself.
// This package is consumed exclusively by the storage package, which wraps
// and unwraps an already-serialized buffer for at-rest or at-transport
// savings; the unwrapped bytes handed back to fmi.FromBuffer are always
// byte-identical to what fmi.ToBuffer produced.
//
// Four codecs are available: None (fastest, no savings), Zstd (best ratio),
// S2 (balanced), and LZ4 (fastest decompression).
package compress
