package history_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/owaspscan/internal/history"
	"github.com/raysh454/owaspscan/internal/model"
)

func TestStore_AddListGet(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s := history.NewStore(10, history.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	a := s.Add("a", model.AnalysisResult{RiskScore: 10})
	b := s.Add("b", model.AnalysisResult{RiskScore: 20})

	if _, err := uuid.Parse(a.ID); err != nil {
		t.Fatalf("ID %q is not a uuid: %v", a.ID, err)
	}
	if a.ID == b.ID {
		t.Fatal("IDs must be unique")
	}
	if !b.CreatedAt.After(a.CreatedAt) {
		t.Errorf("CreatedAt not increasing: %v then %v", a.CreatedAt, b.CreatedAt)
	}

	list := s.List()
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("List should be newest first, got %+v", list)
	}

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code != "a" || got.Result.RiskScore != 10 {
		t.Errorf("unexpected entry %+v", got)
	}

	if _, err := s.Get("missing"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_EvictsOldest(t *testing.T) {
	t.Parallel()

	s := history.NewStore(3)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, s.Add(fmt.Sprint(i), model.AnalysisResult{}).ID)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	for _, id := range ids[:2] {
		if _, err := s.Get(id); !errors.Is(err, history.ErrNotFound) {
			t.Errorf("entry %s should have been evicted", id)
		}
	}
	if list := s.List(); list[0].Code != "4" || list[2].Code != "2" {
		t.Errorf("unexpected order after eviction: %+v", list)
	}
}

func TestStore_ClearAndDefaults(t *testing.T) {
	t.Parallel()

	s := history.NewStore(0)
	for i := 0; i < history.DefaultMaxEntries+5; i++ {
		s.Add("x", model.AnalysisResult{})
	}
	if s.Len() != history.DefaultMaxEntries {
		t.Fatalf("Len = %d, want %d", s.Len(), history.DefaultMaxEntries)
	}
	s.Clear()
	if s.Len() != 0 || len(s.List()) != 0 {
		t.Fatal("Clear left entries behind")
	}
}

func TestStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := history.NewStore(20)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				e := s.Add("code", model.AnalysisResult{})
				_, _ = s.Get(e.ID)
				_ = s.Results()
			}
		}()
	}
	wg.Wait()
	if s.Len() != 20 {
		t.Fatalf("Len = %d, want 20", s.Len())
	}
}
