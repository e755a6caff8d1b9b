package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/i474232898/weather-etl/internal/pipeline"
)

func run(id string, started time.Time) pipeline.RunRecord {
	return pipeline.RunRecord{ID: id, Status: pipeline.StatusRunning, StartedAt: started}
}

func TestMemoryStoreEmpty(t *testing.T) {
	s := NewMemoryStore(10, 0)

	if _, err := s.GetLatest(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLatest err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetRun("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun err = %v, want ErrNotFound", err)
	}
	if _, err := s.List(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("List err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreUpsert(t *testing.T) {
	s := NewMemoryStore(10, 0)
	now := time.Now()

	s.SaveRun(run("a", now))
	done := run("a", now)
	done.Status = pipeline.StatusSucceeded
	s.SaveRun(done)

	runs, err := s.List(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run after upsert, got %d", len(runs))
	}
	if runs[0].Status != pipeline.StatusSucceeded {
		t.Errorf("status = %s, want succeeded", runs[0].Status)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore(0, 0)
	base := time.Now()
	for i := 0; i < 5; i++ {
		s.SaveRun(run(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	runs, err := s.List(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"r4", "r3", "r2"}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d", len(runs), len(want))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Errorf("runs[%d] = %s, want %s", i, runs[i].ID, id)
		}
	}

	latest, err := s.GetLatest()
	if err != nil || latest.ID != "r4" {
		t.Errorf("latest = %s, %v", latest.ID, err)
	}
}

func TestMemoryStoreRetention(t *testing.T) {
	t.Run("by count", func(t *testing.T) {
		s := NewMemoryStore(2, 0)
		now := time.Now()
		s.SaveRun(run("a", now))
		s.SaveRun(run("b", now))
		s.SaveRun(run("c", now))

		if _, err := s.GetRun("a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected oldest run evicted, got %v", err)
		}
		runs, _ := s.List(0)
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})

	t.Run("by age", func(t *testing.T) {
		now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
		s := NewMemoryStore(0, time.Hour)
		s.now = func() time.Time { return now }

		s.SaveRun(run("old", now.Add(-3*time.Hour)))
		s.SaveRun(run("fresh", now.Add(-10*time.Minute)))

		if _, err := s.GetRun("old"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected old run evicted, got %v", err)
		}
		if _, err := s.GetRun("fresh"); err != nil {
			t.Errorf("expected fresh run kept, got %v", err)
		}
	})

	t.Run("newest kept even when stale", func(t *testing.T) {
		now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
		s := NewMemoryStore(0, time.Hour)
		s.now = func() time.Time { return now }

		s.SaveRun(run("stale", now.Add(-5*time.Hour)))
		if _, err := s.GetLatest(); err != nil {
			t.Errorf("expected stale run kept as latest, got %v", err)
		}
	})
}
