// Package logx provides structured logging for bindgen runs based on slog.
//
// Overview:
//   - Responsibility: Run logs in logfmt (sorted keys) or JSON
//   - Key Types: Logger interface, slog-backed implementation, Options
//   - Concurrency Model: All loggers are safe for concurrent use
//   - Error Semantics: No errors returned; write failures are dropped
//   - Performance Notes: One formatted write per record
//
// Usage:
//
//	logger := logx.New(logx.WithFormat(logx.FormatLogfmt), logx.WithLevel(slog.LevelDebug))
//	logger.Info("job finished", "source", src, "destination", dst)
package logx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger defines the structured logging interface used across bindgen.
// Implementations must be safe for concurrent use.
type Logger interface {
	// With returns a Logger with the given key-value pairs attached.
	With(kv ...any) Logger
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	// Error logs err under the "error" key ahead of the other pairs.
	Error(err error, msg string, kv ...any)
}

// Format specifies the output format for logs.
type Format string

const (
	// FormatLogfmt outputs logs in logfmt format (key=value pairs).
	FormatLogfmt Format = "logfmt"
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = "json"
)

// Options configures the logger behavior.
type Options struct {
	Format           Format     // Output format: logfmt or json
	Level            slog.Level // Minimum log level
	Color            bool       // Colorize the level field (logfmt only)
	Writer           io.Writer  // Output writer (default: os.Stderr)
	DisableTimestamp bool       // Disable timestamp in output
}

// Option configures logger behavior.
type Option func(*Options)

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithColor enables colorization for the level field only.
func WithColor(enabled bool) Option {
	return func(o *Options) {
		o.Color = enabled
	}
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.Writer = w
	}
}

// WithTimestamp toggles the time field.
func WithTimestamp(enabled bool) Option {
	return func(o *Options) {
		o.DisableTimestamp = !enabled
	}
}

type logger struct {
	sl *slog.Logger
}

// New creates a new Logger with the given options.
func New(opts ...Option) Logger {
	options := Options{
		Format: FormatLogfmt,
		Level:  slog.LevelInfo,
		Writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Writer == nil {
		options.Writer = os.Stderr
	}

	var h slog.Handler
	switch options.Format {
	case FormatJSON:
		h = slog.NewJSONHandler(options.Writer, &slog.HandlerOptions{
			Level: options.Level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if options.DisableTimestamp && len(groups) == 0 && a.Key == slog.TimeKey {
					return slog.Attr{}
				}
				return a
			},
		})
	default:
		h = newHandler(options)
	}
	return &logger{sl: slog.New(h)}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return New(WithWriter(io.Discard), WithLevel(slog.LevelError+1))
}

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, raw != ""
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ParseFormat maps a format name to a Format.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatLogfmt:
		return FormatLogfmt, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want logfmt or json)", raw)
	}
}

func (l *logger) With(kv ...any) Logger {
	return &logger{sl: l.sl.With(kv...)}
}

func (l *logger) Debug(msg string, kv ...any) {
	l.sl.Debug(msg, kv...)
}

func (l *logger) Info(msg string, kv ...any) {
	l.sl.Info(msg, kv...)
}

func (l *logger) Warn(msg string, kv ...any) {
	l.sl.Warn(msg, kv...)
}

func (l *logger) Error(err error, msg string, kv ...any) {
	if err != nil {
		kv = append([]any{"error", err}, kv...)
	}
	l.sl.Error(msg, kv...)
}
