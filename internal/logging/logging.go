// Package logging builds the process slog logger. Log files are written
// through a buffered zap write syncer so request paths never block on disk.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON = "json"
	FormatText = "text"

	fileBufferSize    = 256 * 1024
	fileFlushInterval = time.Second
)

// Options configures New.
type Options struct {
	Level  string
	Format string
	// File, when set, receives a copy of every record.
	File string
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// ParseLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// New returns a logger and a close func that flushes and closes the log
// file. The close func is never nil.
func New(opts Options) (*slog.Logger, func() error, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nop, err
	}

	var w io.Writer = opts.Stderr
	if w == nil {
		w = os.Stderr
	}

	closeFn := nop
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nop, fmt.Errorf("open log file: %w", err)
		}
		ws := &zapcore.BufferedWriteSyncer{
			WS:            zapcore.AddSync(f),
			Size:          fileBufferSize,
			FlushInterval: fileFlushInterval,
		}
		w = io.MultiWriter(w, ws)
		closeFn = func() error {
			stopErr := ws.Stop()
			closeErr := f.Close()
			if stopErr != nil {
				return fmt.Errorf("flush log file: %w", stopErr)
			}
			return closeErr
		}
	}

	h, err := newHandler(w, opts.Format, lvl)
	if err != nil {
		_ = closeFn()
		return nil, nop, err
	}

	return slog.New(h), closeFn, nil
}

func newHandler(w io.Writer, format string, lvl slog.Level) (slog.Handler, error) {
	ho := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return slog.NewJSONHandler(w, ho), nil
	case FormatText:
		return slog.NewTextHandler(w, ho), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want json|text)", format)
	}
}

func nop() error { return nil }
