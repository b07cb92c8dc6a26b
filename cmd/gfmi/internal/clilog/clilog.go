// Package clilog is the minimal verbose-gated logger the gfmi CLI writes
// progress and diagnostic lines through (spec.md §6's `-v` flag).
package clilog

import (
	"fmt"
	"io"
	"time"
)

// Logger writes timestamped lines to an underlying writer only when
// verbose is enabled; otherwise every call is a no-op.
type Logger struct {
	w       io.Writer
	verbose bool
}

// New returns a Logger writing to w, gated by verbose.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{w: w, verbose: verbose}
}

// Printf writes a formatted, timestamped line if verbose is enabled.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}

	fmt.Fprintf(l.w, "[%s] "+format+"\n", append([]any{time.Now().Format("15:04:05.000")}, args...)...)
}
