package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/i474232898/weather-etl/internal/metrics"
)

// Executor performs one attempt of the pipeline.
type Executor interface {
	Run(ctx context.Context) (Result, error)
}

// RetryPolicy is applied to the whole run: after a failed attempt the run
// restarts from the readiness check after Delay, up to Retries more times.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
}

// Runner executes pipeline runs under the retry policy and records each one
// in the run store.
type Runner struct {
	exec    Executor
	store   RunStore
	policy  RetryPolicy
	timeout time.Duration
	city    string

	wg sync.WaitGroup
}

// NewRunner creates a Runner. A zero timeout means runs are bounded only by
// the caller's context.
func NewRunner(exec Executor, store RunStore, policy RetryPolicy, timeout time.Duration, city string) *Runner {
	return &Runner{
		exec:    exec,
		store:   store,
		policy:  policy,
		timeout: timeout,
		city:    city,
	}
}

func (r *Runner) newRecord(trigger Trigger) RunRecord {
	rec := RunRecord{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    StatusRunning,
		City:      r.city,
		StartedAt: time.Now().UTC(),
	}
	r.store.SaveRun(rec)
	return rec
}

// RunNow executes one run synchronously and returns its final record. The
// error is the last attempt's error when every attempt failed.
func (r *Runner) RunNow(ctx context.Context, trigger Trigger) (RunRecord, error) {
	return r.execute(ctx, r.newRecord(trigger))
}

// Trigger starts a run in the background and returns its initial record.
// Use Wait to block until background runs finish.
func (r *Runner) Trigger(trigger Trigger) RunRecord {
	rec := r.newRecord(trigger)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.execute(context.Background(), rec); err != nil {
			log.Printf("ERROR: run %s failed: %v", rec.ID, err)
		}
	}()
	return rec
}

// Wait blocks until all runs started by Trigger have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, rec RunRecord) (RunRecord, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log.Printf("INFO: run %s (%s) starting for %s", rec.ID, rec.Trigger, rec.City)

	var result Result
	operation := func() error {
		rec.Attempts++
		res, err := r.exec.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	retries := r.policy.Retries
	if retries < 0 {
		retries = 0
	}
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.policy.Delay), uint64(retries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		log.Printf("INFO: run %s attempt %d failed, retrying in %s: %v", rec.ID, rec.Attempts, wait, err)
	}

	err := backoff.RetryNotify(operation, bo, notify)

	finished := time.Now().UTC()
	rec.FinishedAt = &finished
	if err != nil {
		// Retry returns the context error when cancelled while waiting.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("run aborted after %d attempts: %w", rec.Attempts, err)
		}
		rec.Status = StatusFailed
		rec.Error = err.Error()
		log.Printf("ERROR: run %s failed after %d attempts: %v", rec.ID, rec.Attempts, err)
	} else {
		rec.Status = StatusSucceeded
		rec.FilePath = result.File.Path
		rec.ObjectKey = result.ObjectKey
		record := result.Record
		rec.Record = &record
		log.Printf("INFO: run %s succeeded in %d attempts: %s", rec.ID, rec.Attempts, rec.ObjectKey)
	}

	metrics.RunsTotal.WithLabelValues(string(rec.Trigger), string(rec.Status)).Inc()
	metrics.RunAttempts.Observe(float64(rec.Attempts))
	r.store.SaveRun(rec)

	return rec, err
}

// Latest returns the most recent run.
func (r *Runner) Latest() (RunRecord, error) {
	return r.store.GetLatest()
}

// Get returns a run by ID.
func (r *Runner) Get(id string) (RunRecord, error) {
	return r.store.GetRun(id)
}

// List returns up to limit runs, newest first.
func (r *Runner) List(limit int) ([]RunRecord, error) {
	return r.store.List(limit)
}
