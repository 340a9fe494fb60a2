// Package logging builds the one *slog.Logger each Googol process uses for
// its lifetime: a single tagged logger per component, rendered through
// lmittmann/tint for readable colorized terminal output.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// New builds a logger tagged with component (e.g. "dispatcher", "barrel0"),
// writing to stderr.
func New(component string) *slog.Logger {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level: slog.LevelInfo,
	})
	return slog.New(handler).With("component", component)
}
