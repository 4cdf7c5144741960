// Package logging builds the leveled console logger shared by the CLI, store, and server.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Prefix is prepended to every log line.
const Prefix = "taskboard"

// Options holds logger configuration.
type Options struct {
	// Level is a level name (debug, info, warn, error). Empty means warn.
	Level string

	// Debug forces debug level regardless of Level.
	Debug bool

	// Timestamps adds a time to each line. The server turns this on.
	Timestamps bool
}

// New creates a logger writing to w.
// Unknown level names fall back to warn.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.WarnLevel
	if opts.Level != "" {
		if parsed, err := log.ParseLevel(strings.ToLower(opts.Level)); err == nil {
			level = parsed
		}
	}
	if opts.Debug {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       log.TextFormatter,
		ReportTimestamp: opts.Timestamps,
		Prefix:          Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
