package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-etl/internal/pipeline"
)

// Runner executes one pipeline run to completion.
type Runner interface {
	RunNow(ctx context.Context, trigger pipeline.Trigger) (pipeline.RunRecord, error)
}

// Scheduler triggers pipeline runs on a cron cadence. Missed intervals are
// not backfilled.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	cron      string
}

// New creates a new Scheduler.
func New(cron string, runner Runner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		cron:      cron,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.cron).Do(s.runJob)
	if err != nil {
		return err
	}

	log.Printf("INFO: scheduler: weather pipeline scheduled with %q", s.cron)
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runJob() {
	log.Println("scheduler: running weather pipeline")

	rec, err := s.runner.RunNow(context.Background(), pipeline.TriggerSchedule)
	if err != nil {
		log.Printf("scheduler: run %s failed: %v", rec.ID, err)
		return
	}
	log.Printf("scheduler: run %s completed: %s", rec.ID, rec.ObjectKey)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
