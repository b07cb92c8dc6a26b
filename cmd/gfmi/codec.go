package main

import (
	"fmt"

	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/format"
)

// parseCodecName maps the CLI's -c flag value to a format.CompressionType,
// matching the names storage's underlying codecs are known by (see
// format.CompressionType.String).
func parseCodecName(name string) (format.CompressionType, error) {
	switch name {
	case "none":
		return format.CompressionNone, nil
	case "zstd":
		return format.CompressionZstd, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: -c %q: must be one of none, zstd, s2, lz4", errs.ErrInvalidConfig, name)
	}
}
