package pipeline

import (
	"time"

	"github.com/i474232898/weather-etl/internal/weather"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Trigger records what started a run.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
	TriggerCLI      Trigger = "cli"
)

// RunRecord is the observable summary of one pipeline invocation. Stages
// never read it; it exists for the status API and logs.
type RunRecord struct {
	ID         string                    `json:"id"`
	Trigger    Trigger                   `json:"trigger"`
	Status     Status                    `json:"status"`
	City       string                    `json:"city"`
	Attempts   int                       `json:"attempts"`
	StartedAt  time.Time                 `json:"startedAt"` // always UTC
	FinishedAt *time.Time                `json:"finishedAt,omitempty"`
	FilePath   string                    `json:"filePath,omitempty"`
	ObjectKey  string                    `json:"objectKey,omitempty"`
	Record     *weather.NormalizedRecord `json:"record,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

// RunStore is the contract the in-memory run history (and any future
// persistent store) must satisfy. SaveRun upserts by ID.
type RunStore interface {
	SaveRun(run RunRecord)
	GetRun(id string) (RunRecord, error)
	GetLatest() (RunRecord, error)
	List(limit int) ([]RunRecord, error)
}
