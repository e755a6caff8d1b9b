package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-etl/internal/staging"
	"github.com/i474232898/weather-etl/internal/weather"
)

type scriptedExecutor struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (e *scriptedExecutor) Run(context.Context) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.calls <= e.failures {
		return Result{}, e.err
	}
	return Result{
		Record:    weather.NormalizedRecord{City: "Kansas", Description: "clear sky"},
		File:      staging.File{Path: "/tmp/x.csv", Name: "x.csv"},
		ObjectKey: "weather_data/x.csv",
	}, nil
}

// mapStore is a minimal RunStore for runner tests.
type mapStore struct {
	mu   sync.Mutex
	runs map[string]RunRecord
	last string
}

func newMapStore() *mapStore {
	return &mapStore{runs: make(map[string]RunRecord)}
}

func (s *mapStore) SaveRun(run RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	s.last = run.ID
}

func (s *mapStore) GetRun(id string) (RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return RunRecord{}, errors.New("not found")
	}
	return run, nil
}

func (s *mapStore) GetLatest() (RunRecord, error) {
	return s.GetRun(s.last)
}

func (s *mapStore) List(int) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []RunRecord
	for _, r := range s.runs {
		out = append(out, r)
	}
	return out, nil
}

func TestRunnerRetriesThenSucceeds(t *testing.T) {
	exec := &scriptedExecutor{failures: 1, err: errors.New("503")}
	st := newMapStore()
	r := NewRunner(exec, st, RetryPolicy{Retries: 2, Delay: time.Millisecond}, time.Minute, "Kansas")

	rec, err := r.RunNow(context.Background(), TriggerCLI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != StatusSucceeded {
		t.Errorf("status = %s", rec.Status)
	}
	if rec.Attempts != 2 || exec.calls != 2 {
		t.Errorf("attempts = %d, calls = %d, want 2", rec.Attempts, exec.calls)
	}
	if rec.ObjectKey != "weather_data/x.csv" || rec.Record == nil || rec.Record.City != "Kansas" {
		t.Errorf("record = %+v", rec)
	}
	if rec.FinishedAt == nil {
		t.Error("finishedAt not set")
	}

	stored, err := st.GetRun(rec.ID)
	if err != nil || stored.Status != StatusSucceeded {
		t.Errorf("stored = %+v, %v", stored, err)
	}
}

func TestRunnerExhaustsRetries(t *testing.T) {
	failure := errors.New("upstream down")
	exec := &scriptedExecutor{failures: 100, err: failure}
	st := newMapStore()
	r := NewRunner(exec, st, RetryPolicy{Retries: 2, Delay: time.Millisecond}, time.Minute, "Kansas")

	rec, err := r.RunNow(context.Background(), TriggerSchedule)
	if !errors.Is(err, failure) {
		t.Fatalf("err = %v, want %v", err, failure)
	}
	if rec.Status != StatusFailed {
		t.Errorf("status = %s, want failed", rec.Status)
	}
	if rec.Attempts != 3 || exec.calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", rec.Attempts, exec.calls)
	}
	if rec.Error == "" {
		t.Error("expected error message on record")
	}
}

func TestRunnerNoRetries(t *testing.T) {
	exec := &scriptedExecutor{failures: 100, err: errors.New("boom")}
	r := NewRunner(exec, newMapStore(), RetryPolicy{}, 0, "Kansas")

	rec, err := r.RunNow(context.Background(), TriggerCLI)
	if err == nil {
		t.Fatal("expected error")
	}
	if rec.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", rec.Attempts)
	}
}

func TestRunnerCancelledDuringRetryDelay(t *testing.T) {
	exec := &scriptedExecutor{failures: 100, err: errors.New("boom")}
	r := NewRunner(exec, newMapStore(), RetryPolicy{Retries: 5, Delay: time.Hour}, 0, "Kansas")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rec, err := r.RunNow(ctx, TriggerCLI)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if rec.Status != StatusFailed || rec.Attempts != 1 {
		t.Errorf("record = %+v", rec)
	}
}

func TestRunnerTrigger(t *testing.T) {
	exec := &scriptedExecutor{}
	st := newMapStore()
	r := NewRunner(exec, st, RetryPolicy{}, time.Minute, "Kansas")

	rec := r.Trigger(TriggerManual)
	if rec.Status != StatusRunning || rec.ID == "" {
		t.Errorf("initial record = %+v", rec)
	}
	r.Wait()

	final, err := r.Get(rec.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != StatusSucceeded || final.Trigger != TriggerManual {
		t.Errorf("final record = %+v", final)
	}
}
