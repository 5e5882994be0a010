// Package logxtest provides an in-memory logx.Logger for tests.
package logxtest

import (
	"sync"
	"testing"

	"go.eggybyte.com/bindgen/internal/logx"
)

// Entry is one captured log record.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
	Error   error
}

type store struct {
	mu      sync.Mutex
	entries []Entry
}

// Logger captures records, including fields added through With.
type Logger struct {
	t      testing.TB
	store  *store
	fields []any
}

// New returns an empty capturing logger bound to t.
func New(t testing.TB) *Logger {
	return &Logger{t: t, store: &store{}}
}

// With returns a logger sharing this logger's capture with extra fields.
func (l *Logger) With(kv ...any) logx.Logger {
	fields := make([]any, 0, len(l.fields)+len(kv))
	fields = append(append(fields, l.fields...), kv...)
	return &Logger{t: l.t, store: l.store, fields: fields}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log("DEBUG", msg, nil, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log("INFO", msg, nil, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log("WARN", msg, nil, kv) }

func (l *Logger) Error(err error, msg string, kv ...any) {
	l.log("ERROR", msg, err, kv)
}

func (l *Logger) log(level, msg string, err error, kv []any) {
	fields := make(map[string]any)
	all := append(append([]any{}, l.fields...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		if key, ok := all[i].(string); ok {
			fields[key] = all[i+1]
		}
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = append(l.store.entries, Entry{Level: level, Message: msg, Fields: fields, Error: err})
}

// Entries returns every captured record in order.
func (l *Logger) Entries() []Entry {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return append([]Entry(nil), l.store.entries...)
}

// Find returns the records with the given level and message.
func (l *Logger) Find(level, msg string) []Entry {
	var found []Entry
	for _, e := range l.Entries() {
		if e.Level == level && e.Message == msg {
			found = append(found, e)
		}
	}
	return found
}

// AssertLogged fails the test unless a record with level and msg was captured.
func (l *Logger) AssertLogged(level, msg string) {
	l.t.Helper()
	if len(l.Find(level, msg)) == 0 {
		l.t.Errorf("expected log message not found: level=%s msg=%q", level, msg)
	}
}
