// Package logger configures the process-wide zerolog logger and hands out
// per-function sub-loggers.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Setup replaces the base logger. An empty level means "info". When w is a
// terminal the output is rendered with zerolog's console writer.
func Setup(level string, w io.Writer) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", level, err)
		}
		lvl = l
	}

	if w == nil {
		w = os.Stderr
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.TimeOnly}
	}

	mu.Lock()
	base = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()
	return nil
}

// Get returns the base logger.
func Get() *zerolog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	return &l
}

// WithFunc returns a sub-logger tagged with the calling function name,
// e.g. logger.WithFunc("host.Boot").
func WithFunc(name string) *zerolog.Logger {
	mu.RLock()
	l := base.With().Str("func", name).Logger()
	mu.RUnlock()
	return &l
}
