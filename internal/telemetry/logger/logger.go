package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (text, json).
	Format string
	// Output receives records (defaults to os.Stderr).
	Output io.Writer
	// DebugOutput, when set, receives records below INFO instead of Output.
	DebugOutput io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: os.Stderr,
	}
}

// Logger is a slog.Logger with an adjustable level and owned sinks.
type Logger struct {
	*slog.Logger

	level   *slog.LevelVar
	closers []io.Closer
}

// New creates a logger writing to the configured writers.
// An unknown level falls back to info.
func New(cfg Config) *Logger {
	level := new(slog.LevelVar)
	if lvl, err := ParseLevel(cfg.Level); err == nil {
		level.Set(lvl)
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler = newHandler(cfg.Format, output, opts)
	if cfg.DebugOutput != nil {
		handler = &splitHandler{
			debug: newHandler(cfg.Format, cfg.DebugOutput, opts),
			main:  handler,
		}
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// Open creates a logger whose sinks are named: "stderr", "stdout" or a
// file path opened for appending. An empty debugOutput keeps debug
// records on output. Close releases opened files.
func Open(level, format, output, debugOutput string) (*Logger, error) {
	out, outCloser, err := OpenSink(output)
	if err != nil {
		return nil, err
	}

	cfg := Config{Level: level, Format: format, Output: out}
	var closers []io.Closer
	if outCloser != nil {
		closers = append(closers, outCloser)
	}

	if debugOutput != "" {
		dbg, dbgCloser, err := OpenSink(debugOutput)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, err
		}
		cfg.DebugOutput = dbg
		if dbgCloser != nil {
			closers = append(closers, dbgCloser)
		}
	}

	l := New(cfg)
	l.closers = closers
	return l, nil
}

// OpenSink resolves a sink name to a writer. The closer is nil for the
// standard streams.
func OpenSink(name string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("open log sink: %w", err)
	}
	return f, f, nil
}

// SetLevel changes the minimum level at runtime. An unknown level is
// rejected and the current one kept.
func (l *Logger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(lvl)
	return nil
}

// Level returns the current minimum level as a string.
func (l *Logger) Level() string {
	return strings.ToLower(l.level.Level().String())
}

// Close closes any files the logger opened.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	l.closers = nil
	return errors.Join(errs...)
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// splitHandler sends records below INFO to debug and the rest to main.
type splitHandler struct {
	debug slog.Handler
	main  slog.Handler
}

func (h *splitHandler) pick(level slog.Level) slog.Handler {
	if level < slog.LevelInfo {
		return h.debug
	}
	return h.main
}

func (h *splitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.pick(level).Enabled(ctx, level)
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.pick(r.Level).Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{debug: h.debug.WithAttrs(attrs), main: h.main.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{debug: h.debug.WithGroup(name), main: h.main.WithGroup(name)}
}
