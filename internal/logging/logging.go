// Package logging builds the zerolog logger of the binary.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"tank-arena/internal/config"
)

// New returns a logger for c and the closer of its output. The terminal
// belongs to the renderer, so the default output is a rotating file; Console
// switches to a colored writer on stderr.
func New(c config.LogConfig) (zerolog.Logger, io.Closer, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case c.Console:
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	case c.File != "":
		f := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB, // megabytes
			MaxBackups: c.MaxBackups,
		}
		out, closer = f, f
	default:
		out = io.Discard
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	// libraries that log through the standard logger end up in the same place
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger.With().Str("source", "stdlog").Logger())

	return logger, closer, nil
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
