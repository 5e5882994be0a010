package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// handler is a slog.Handler that writes logfmt with sorted fields.
type handler struct {
	opts   Options
	mu     *sync.Mutex
	writer io.Writer
	attrs  []slog.Attr
	group  string
}

func newHandler(opts Options) *handler {
	return &handler{
		opts:   opts,
		mu:     &sync.Mutex{},
		writer: opts.Writer,
	}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	if !h.opts.DisableTimestamp {
		t := r.Time
		if t.IsZero() {
			t = time.Now()
		}
		buf.WriteString("time=")
		buf.WriteString(t.Format(time.RFC3339))
		buf.WriteString(" ")
	}

	level := levelString(r.Level)
	buf.WriteString("level=")
	if h.opts.Color {
		buf.WriteString(colorizeLevel(level))
	} else {
		buf.WriteString(level)
	}

	buf.WriteString(" msg=")
	buf.WriteString(fmt.Sprintf("%q", r.Message))

	attrs := append([]slog.Attr{}, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})

	for _, attr := range sortAttrs(attrs) {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		buf.WriteString(" ")
		buf.WriteString(attr.Key)
		buf.WriteString("=")
		buf.WriteString(formatValue(attr.Value))
	}
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, buf.String())
	return err
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.qualify(a))
	}
	return &next
}

func (h *handler) WithGroup(name string) slog.Handler {
	next := *h
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return &next
}

func (h *handler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}

// sortAttrs sorts attributes by key for stable output.
func sortAttrs(attrs []slog.Attr) []slog.Attr {
	sorted := make([]slog.Attr, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})
	return sorted
}

// formatValue formats a slog.Value for logfmt output.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return fmt.Sprintf("%q", v.String())
	case slog.KindInt64:
		return fmt.Sprintf("%d", v.Int64())
	case slog.KindUint64:
		return fmt.Sprintf("%d", v.Uint64())
	case slog.KindFloat64:
		f := v.Float64()
		if f == float64(int64(f)) {
			return fmt.Sprintf("%.0f", f)
		}
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", f), "0"), ".")
	case slog.KindBool:
		return fmt.Sprintf("%t", v.Bool())
	case slog.KindDuration:
		// milliseconds, like the rest of our logs
		return fmt.Sprintf("%d", v.Duration().Milliseconds())
	case slog.KindTime:
		return fmt.Sprintf("%q", v.Time().Format(time.RFC3339))
	default:
		return fmt.Sprintf("%q", fmt.Sprint(v.Any()))
	}
}

func levelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

// colorizeLevel adds ANSI color codes only to the level value.
func colorizeLevel(level string) string {
	const (
		reset   = "\033[0m"
		red     = "\033[31m"
		yellow  = "\033[33m"
		cyan    = "\033[36m"
		magenta = "\033[35m"
	)

	switch level {
	case "DEBUG":
		return magenta + level + reset
	case "INFO":
		return cyan + level + reset
	case "WARN":
		return yellow + level + reset
	case "ERROR":
		return red + level + reset
	default:
		return level
	}
}
