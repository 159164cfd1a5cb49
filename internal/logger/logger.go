package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newDefault()
)

func newDefault() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// L returns the package logger. The pointer is to a private copy, so level
// methods chain off it directly.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// SetWriter redirects the package logger, returning the previous logger so
// tests can restore it.
func SetWriter(w io.Writer) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	prev := log
	log = zerolog.New(w).With().Timestamp().Logger()
	return prev
}

// Restore puts back a logger previously returned by SetWriter.
func Restore(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// SetLevel adjusts the global log level ("debug", "info", "warn", "error").
func SetLevel(level string) {
	if parsed, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}
}
