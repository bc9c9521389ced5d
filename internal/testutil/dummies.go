// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"errors"
	"sync"

	"github.com/raysh454/phishcatcher/internal/logging"
)

// ─── Logger ────────────────────────────────────────────────────────────

// LogEntry is one call recorded by DummyLogger.
type LogEntry struct {
	Level  string
	Msg    string
	Fields []logging.Field
}

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu      sync.Mutex
	Errors  []string
	Infos   []string
	Debugs  []string
	Warns   []string
	Entries []LogEntry
}

func (l *DummyLogger) record(level, msg string, fields []logging.Field) {
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Fields: append([]logging.Field(nil), fields...)})
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
	l.record("debug", msg, fields)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
	l.record("info", msg, fields)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
	l.record("warn", msg, fields)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
	l.record("error", msg, fields)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns the number of Error calls so far.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// FieldValue returns the value of key on the last entry logged with msg.
func (l *DummyLogger) FieldValue(msg, key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.Entries) - 1; i >= 0; i-- {
		if l.Entries[i].Msg != msg {
			continue
		}
		for _, f := range l.Entries[i].Fields {
			if f.Key == key {
				return f.Value, true
			}
		}
		return nil, false
	}
	return nil, false
}

// ─── Classifier ────────────────────────────────────────────────────────

// StubClassifier implements model.Classifier and returns Proba for every
// input. Width defaults to 23 and Classes to len(Proba).
type StubClassifier struct {
	Proba   []float64
	Width   int
	Classes int

	// Err, when set, is returned by PredictProba.
	Err error

	mu     sync.Mutex
	calls  int
	Inputs [][]float64
}

func (s *StubClassifier) PredictProba(x []float64) ([]float64, error) {
	s.mu.Lock()
	s.calls++
	s.Inputs = append(s.Inputs, append([]float64(nil), x...))
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]float64(nil), s.Proba...), nil
}

func (s *StubClassifier) NumFeatures() int {
	if s.Width == 0 {
		return 23
	}
	return s.Width
}

func (s *StubClassifier) NumClasses() int {
	if s.Classes == 0 {
		return len(s.Proba)
	}
	return s.Classes
}

// Calls returns how many times PredictProba ran.
func (s *StubClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ErrStub is a generic failure for doubles to return.
var ErrStub = errors.New("testutil: stub failure")
