// Package history keeps recent analyses in memory for the dashboard and
// comparison views. Entries do not survive a restart.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/owaspscan/internal/model"
)

const DefaultMaxEntries = 50

var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded analysis.
type Entry struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"createdAt"`
	Code      string               `json:"code"`
	Result    model.AnalysisResult `json:"result"`
}

// Store is a bounded, concurrency-safe history. Once MaxEntries is
// reached the oldest entry is evicted on every Add.
type Store struct {
	mu      sync.RWMutex
	entries []Entry // oldest first
	max     int
	now     func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store holding at most maxEntries entries. Values
// below 1 select DefaultMaxEntries.
func NewStore(maxEntries int, opts ...Option) *Store {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	s := &Store{max: maxEntries, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records an analysis and returns the new entry.
func (s *Store) Add(code string, result model.AnalysisResult) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Code:      code,
		Result:    result,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.max; over > 0 {
		s.entries = append([]Entry(nil), s.entries[over:]...)
	}
	return e
}

// List returns the entries newest first.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e
	}
	return out
}

// Results returns the analysis results newest first.
func (s *Store) Results() []model.AnalysisResult {
	entries := s.List()
	out := make([]model.AnalysisResult, len(entries))
	for i, e := range entries {
		out[i] = e.Result
	}
	return out
}

func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
