package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_etl_runs_total",
			Help: "Pipeline runs by trigger and final status",
		},
		[]string{"trigger", "status"},
	)

	RunAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weather_etl_run_attempts",
			Help:    "Attempts used per pipeline run",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_etl_stage_duration_seconds",
			Help:    "Stage latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage", "status"},
	)

	ReadinessPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_etl_readiness_polls_total",
			Help: "Readiness probes issued against the weather endpoint",
		},
		[]string{"result"},
	)

	UploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_etl_uploaded_bytes_total",
			Help: "Bytes uploaded to object storage",
		},
	)
)
