// Package pipeline runs the four weather ETL stages in order: readiness
// check, extract, transform (with local staging) and load. Each stage's
// output is passed directly as the next stage's input.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/weather-etl/internal/metrics"
	"github.com/i474232898/weather-etl/internal/staging"
	"github.com/i474232898/weather-etl/internal/weather"
)

// Stage names, used in errors, logs and metrics.
const (
	StageReadiness = "readiness"
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
)

// Source is the weather endpoint: Ping for readiness, Fetch for extraction.
type Source interface {
	Ping(ctx context.Context) error
	Fetch(ctx context.Context) ([]byte, error)
}

// Stager persists a normalized record to local disk.
type Stager interface {
	Write(rec weather.NormalizedRecord) (staging.File, error)
}

// Uploader copies a staged file to durable storage and returns its key.
type Uploader interface {
	Upload(ctx context.Context, f staging.File) (string, error)
}

// Result holds every stage's output for one successful attempt.
type Result struct {
	Observation weather.RawObservation
	Record      weather.NormalizedRecord
	File        staging.File
	ObjectKey   string
}

// StageError tags an error with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline wires the stages together. It performs a single attempt; retries
// belong to the Runner.
type Pipeline struct {
	source    Source
	stager    Stager
	uploader  Uploader
	readiness ReadinessConfig
}

func New(source Source, stager Stager, uploader Uploader, readiness ReadinessConfig) *Pipeline {
	return &Pipeline{
		source:    source,
		stager:    stager,
		uploader:  uploader,
		readiness: readiness,
	}
}

// Run executes all four stages once, stopping at the first failure.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result

	err := timed(StageReadiness, func() error {
		return WaitReady(ctx, p.source.Ping, p.readiness)
	})
	if err != nil {
		return res, err
	}

	var body []byte
	err = timed(StageExtract, func() error {
		var ferr error
		body, ferr = p.source.Fetch(ctx)
		if ferr != nil {
			return ferr
		}
		res.Observation, ferr = weather.ParseObservation(body)
		return ferr
	})
	if err != nil {
		return res, err
	}

	err = timed(StageTransform, func() error {
		rec, terr := weather.Transform(res.Observation)
		if terr != nil {
			return terr
		}
		res.Record = rec
		res.File, terr = p.stager.Write(rec)
		return terr
	})
	if err != nil {
		return res, err
	}

	err = timed(StageLoad, func() error {
		var lerr error
		res.ObjectKey, lerr = p.uploader.Upload(ctx, res.File)
		return lerr
	})
	if err != nil {
		return res, err
	}

	return res, nil
}

func timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StageDuration.WithLabelValues(stage, status).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Printf("ERROR: stage %s failed after %s: %v", stage, time.Since(start).Round(time.Millisecond), err)
		return &StageError{Stage: stage, Err: err}
	}
	log.Printf("INFO: stage %s completed in %s", stage, time.Since(start).Round(time.Millisecond))
	return nil
}
