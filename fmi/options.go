package fmi

import (
	"fmt"

	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/internal/options"
)

// BuildOption configures Build.
type BuildOption = options.Option[*buildConfig]

type buildConfig struct {
	isaRate int
}

// WithISARate sets the suffix-array sampling rate (spec.md §4.5 step 4).
// Must be >= 1; the default is 256 (spec.md §6's `-s` flag default).
func WithISARate(rate int) BuildOption {
	return options.New(func(c *buildConfig) error {
		if rate < 1 {
			return fmt.Errorf("%w: isa_rate must be >= 1, got %d", errs.ErrInvalidConfig, rate)
		}
		c.isaRate = rate

		return nil
	})
}
