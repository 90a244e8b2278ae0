package logger

import (
	"fmt"
	"sync"
	"testing"
)

// TestLogger writes through t.Logf and records every line so tests can
// assert on logged output without capturing stdout.
type TestLogger struct {
	T *testing.T

	mu     sync.Mutex
	lines  []string
	fields map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger(t *testing.T) Logger {
	return &TestLogger{T: t, fields: map[string]interface{}{}}
}

func (l *TestLogger) log(level, msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf("[%s] %s", level, msg))
	l.mu.Unlock()
	if l.T != nil {
		l.T.Logf("[%s] %s", level, msg)
	}
}

// Lines returns a copy of everything logged so far.
func (l *TestLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg) }

// WithField records the field and returns the same recorder so a test can
// still read all lines from the instance it created.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fields[key] = value
	return l
}

// WithFields records all fields and returns the same recorder.
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range fields {
		l.fields[k] = v
	}
	return l
}

// NewMockLogger creates a simple logger for use in tests
// It can be called with or without a testing.T parameter
func NewMockLogger(t ...*testing.T) Logger {
	if len(t) > 0 {
		return NewTestLogger(t[0])
	}
	return NewTestLogger(nil)
}
