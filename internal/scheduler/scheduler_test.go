package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/i474232898/weather-etl/internal/pipeline"
)

type countingRunner struct {
	mu       sync.Mutex
	triggers []pipeline.Trigger
}

func (r *countingRunner) RunNow(_ context.Context, trigger pipeline.Trigger) (pipeline.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	return pipeline.RunRecord{ID: "run-1", Status: pipeline.StatusSucceeded}, nil
}

func TestStartRejectsInvalidCron(t *testing.T) {
	s := New("every now and then", &countingRunner{})
	defer s.Stop()

	if err := s.Start(); err == nil {
		t.Fatal("expected invalid cron expression to be rejected")
	}
}

func TestStartAndStop(t *testing.T) {
	s := New("0 * * * *", &countingRunner{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

func TestRunJobUsesScheduleTrigger(t *testing.T) {
	r := &countingRunner{}
	s := New("0 * * * *", r)

	s.runJob()

	if len(r.triggers) != 1 || r.triggers[0] != pipeline.TriggerSchedule {
		t.Errorf("triggers = %v", r.triggers)
	}
}
