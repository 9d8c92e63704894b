package logger

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

// Entry is one recorded log call.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// TestLogger records entries in memory so tests can assert on them.
type TestLogger struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  []Field
}

// NewTestLogger creates an empty TestLogger.
func NewTestLogger() *TestLogger {
	return &TestLogger{
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
	}
}

func (l *TestLogger) Debug(msg string, fields ...Field) { l.log("debug", msg, fields) }
func (l *TestLogger) Info(msg string, fields ...Field)  { l.log("info", msg, fields) }
func (l *TestLogger) Warn(msg string, fields ...Field)  { l.log("warn", msg, fields) }
func (l *TestLogger) Error(msg string, fields ...Field) { l.log("error", msg, fields) }
func (l *TestLogger) Fatal(msg string, fields ...Field) { l.log("fatal", msg, fields) }

// With returns a logger sharing the same entry buffer with extra fields attached.
func (l *TestLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &TestLogger{mu: l.mu, entries: l.entries, fields: merged}
}

func (l *TestLogger) Named(string) Logger { return l }

func (l *TestLogger) Sync() error { return nil }

func (l *TestLogger) log(level, msg string, fields []Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range l.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, Entry{Level: level, Message: msg, Fields: enc.Fields})
}

// Entries returns a copy of all recorded entries.
func (l *TestLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(*l.entries))
	copy(out, *l.entries)
	return out
}

// Find returns the first entry with the given message.
func (l *TestLogger) Find(msg string) (Entry, bool) {
	for _, e := range l.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return Entry{}, false
}
