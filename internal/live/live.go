// Package live debounces analysis requests from interactive editors.
// Each key (typically one client connection) has at most one pending
// run; a newer submission cancels and replaces it.
package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/owaspscan/internal/logging"
	"github.com/raysh454/owaspscan/internal/model"
)

const (
	DefaultDelay  = 1000 * time.Millisecond
	DefaultBuffer = 16
)

var ErrClosed = errors.New("debouncer closed")

// Analyzer is the analysis call the debouncer schedules. *engine.Engine
// satisfies it.
type Analyzer interface {
	Analyze(text string) model.AnalysisResult
}

type EventType string

const (
	EventStatus EventType = "status"
	EventResult EventType = "result"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
)

// Event reports progress of one debounced job.
type Event struct {
	JobID  string                `json:"jobId"`
	Type   EventType             `json:"type"`
	Status Status                `json:"status,omitempty"`
	Result *model.AnalysisResult `json:"result,omitempty"`
	At     time.Time             `json:"at"`
}

type Config struct {
	// Delay is how long a submission waits for a newer one.
	Delay time.Duration

	// Buffer is the capacity of each key's event channel. Events that
	// do not fit are dropped.
	Buffer int
}

func DefaultConfig() Config {
	return Config{Delay: DefaultDelay, Buffer: DefaultBuffer}
}

type job struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	timer  *time.Timer
}

type session struct {
	events  chan Event
	pending *job
}

// Debouncer schedules analyses per key. It is safe for concurrent use.
type Debouncer struct {
	analyzer Analyzer
	cfg      Config
	logger   logging.Logger

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

func NewDebouncer(analyzer Analyzer, cfg Config, logger logging.Logger) *Debouncer {
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = DefaultBuffer
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Debouncer{
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger.With(logging.Component("live")),
		sessions: make(map[string]*session),
	}
}

// Events returns the event channel for key. The channel is closed by
// Release or Close; after Close it is returned already closed.
func (d *Debouncer) Events(key string) <-chan Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	return d.sessionLocked(key).events
}

// Submit schedules an analysis of text for key after the configured
// delay, replacing any pending analysis for the same key. It returns the
// new job ID.
func (d *Debouncer) Submit(key, text string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", ErrClosed
	}

	s := d.sessionLocked(key)
	d.cancelLocked(s)

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{id: uuid.NewString(), ctx: ctx, cancel: cancel}
	s.pending = j
	j.timer = time.AfterFunc(d.cfg.Delay, func() { d.run(key, j, text) })

	d.emitLocked(s, Event{JobID: j.id, Type: EventStatus, Status: StatusPending})
	d.logger.Debug("analysis scheduled",
		logging.Field{Key: "key", Value: key},
		logging.Field{Key: "job_id", Value: j.id},
		logging.Field{Key: "bytes", Value: len(text)},
	)
	return j.id, nil
}

// Cancel stops the pending analysis for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sessions[key]; ok {
		d.cancelLocked(s)
	}
}

// Release cancels pending work for key and closes its event channel.
func (d *Debouncer) Release(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[key]
	if !ok {
		return
	}
	d.cancelLocked(s)
	close(s.events)
	delete(d.sessions, key)
}

// Close cancels all pending work and closes every event channel.
// Submit fails with ErrClosed afterwards.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for key, s := range d.sessions {
		d.cancelLocked(s)
		close(s.events)
		delete(d.sessions, key)
	}
	d.closed = true
}

func (d *Debouncer) run(key string, j *job, text string) {
	d.mu.Lock()
	s, ok := d.sessions[key]
	if d.closed || !ok {
		d.mu.Unlock()
		return
	}
	if j.ctx.Err() != nil || s.pending != j {
		d.emitLocked(s, Event{JobID: j.id, Type: EventStatus, Status: StatusCanceled})
		d.mu.Unlock()
		return
	}
	d.emitLocked(s, Event{JobID: j.id, Type: EventStatus, Status: StatusRunning})
	d.mu.Unlock()

	start := time.Now()
	result := d.analyzer.Analyze(text)

	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok = d.sessions[key]
	if d.closed || !ok {
		return
	}
	if j.ctx.Err() != nil || s.pending != j {
		d.emitLocked(s, Event{JobID: j.id, Type: EventStatus, Status: StatusCanceled})
		return
	}
	s.pending = nil
	j.cancel()
	d.emitLocked(s, Event{JobID: j.id, Type: EventResult, Result: &result})
	d.emitLocked(s, Event{JobID: j.id, Type: EventStatus, Status: StatusDone})
	d.logger.Debug("analysis delivered",
		logging.Field{Key: "key", Value: key},
		logging.Field{Key: "job_id", Value: j.id},
		logging.Field{Key: "duration", Value: time.Since(start).String()},
	)
}

func (d *Debouncer) sessionLocked(key string) *session {
	s, ok := d.sessions[key]
	if !ok {
		s = &session{events: make(chan Event, d.cfg.Buffer)}
		d.sessions[key] = s
	}
	return s
}

// cancelLocked cancels the pending job. If its timer had not fired the
// canceled status is reported here; otherwise run reports it.
func (d *Debouncer) cancelLocked(s *session) {
	j := s.pending
	if j == nil {
		return
	}
	s.pending = nil
	j.cancel()
	if j.timer != nil && j.timer.Stop() {
		d.emitLocked(s, Event{JobID: j.id, Type: EventStatus, Status: StatusCanceled})
	}
}

// emitLocked sends without blocking and drops the event when the buffer
// is full.
func (d *Debouncer) emitLocked(s *session, ev Event) {
	ev.At = time.Now().UTC()
	select {
	case s.events <- ev:
	default:
		d.logger.Debug("event dropped",
			logging.Field{Key: "job_id", Value: ev.JobID},
			logging.Field{Key: "type", Value: string(ev.Type)},
		)
	}
}
