package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weather-etl/internal/metrics"
)

var errInvalidReadiness = errors.New("invalid readiness configuration")

// ReadinessConfig bounds the readiness wait. Interval must be positive and
// Timeout at least Interval.
type ReadinessConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// TimeoutError reports that the endpoint never answered successfully
// within the readiness budget.
type TimeoutError struct {
	Waited   time.Duration
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("endpoint not ready after %s (%d attempts): %v", e.Waited, e.Attempts, e.Last)
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

// WaitReady calls probe immediately and then every cfg.Interval until it
// succeeds. It returns *TimeoutError once cfg.Timeout elapses, or the
// parent context's error if that is cancelled first.
func WaitReady(ctx context.Context, probe func(context.Context) error, cfg ReadinessConfig) error {
	if cfg.Interval <= 0 || cfg.Timeout < cfg.Interval {
		return fmt.Errorf("%w: interval %s, timeout %s", errInvalidReadiness, cfg.Interval, cfg.Timeout)
	}

	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var (
		attempts int
		lastErr  error
	)
	timeout := func() error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TimeoutError{Waited: time.Since(start), Attempts: attempts, Last: lastErr}
	}

	for {
		attempts++
		lastErr = probe(waitCtx)
		if lastErr == nil {
			metrics.ReadinessPolls.WithLabelValues("ready").Inc()
			return nil
		}
		metrics.ReadinessPolls.WithLabelValues("not_ready").Inc()

		if waitCtx.Err() != nil {
			return timeout()
		}

		timer := time.NewTimer(cfg.Interval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return timeout()
		case <-timer.C:
			// poll again
		}
	}
}
