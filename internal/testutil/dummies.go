// Package testutil provides shared test doubles for use across package tests.
package testutil

import (
	"sync"

	"github.com/raysh454/owaspscan/internal/logging"
)

// DummyLogger implements logging.Logger with in-memory recording.
// Children created through With share the parent's record.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// Count returns how many messages were logged at each level.
func (l *DummyLogger) Count() (debug, info, warn, errs int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Debugs), len(l.Infos), len(l.Warns), len(l.Errors)
}
