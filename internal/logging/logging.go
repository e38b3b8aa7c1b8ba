// Package logging builds the zerolog.Logger injected into every
// component's constructor. The composition root builds one shared
// logger and passes it down rather than each component configuring
// its own.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the process-wide logger's level and format.
type Config struct {
	// Level is one of debug, info, warn, error. Invalid or empty
	// falls back to info.
	Level string
	// Pretty switches to zerolog's human-readable console writer,
	// useful when running "serve" attached to a terminal instead of
	// piped into an MCP client over stdio.
	Pretty bool
}

// New builds a zerolog.Logger writing to stderr, never stdout — stdout
// is reserved for the MCP stdio transport's JSON-RPC frames.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
