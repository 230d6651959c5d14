// Package logging configures the process logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File receives logs when set; otherwise they go to stderr. The TUI
	// always sets it so log lines do not tear the screen.
	File string
}

func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrapf(err, "parse log level %q", s)
		}
		level = l
	}

	if opts.File == "" {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return zerolog.Nop(), nil, errors.Wrap(err, "mkdir log dir")
	}
	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
	}
	return zerolog.New(lj).Level(level).With().Timestamp().Logger(), lj, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
