package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-etl/internal/pipeline"
)

var (
	// ErrNotFound is returned when no matching run is recorded.
	ErrNotFound = errors.New("run not found")
)

// MemoryStore is a concurrency-safe in-memory run history.
type MemoryStore struct {
	mu sync.RWMutex

	// ordered by insertion, oldest first
	runs []pipeline.RunRecord

	// retention configuration
	maxHistory int           // max number of runs kept
	maxAge     time.Duration // optional max age by start time
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveRun inserts a run or replaces the stored run with the same ID, then
// enforces retention.
func (s *MemoryStore) SaveRun(run pipeline.RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = run
			replaced = true
			break
		}
	}
	if !replaced {
		s.runs = append(s.runs, run)
	}

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.runs) > s.maxHistory {
		over := len(s.runs) - s.maxHistory
		s.runs = s.runs[over:]
	}

	// Enforce retention by age; the newest run is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.runs)-1; i++ {
			if !s.runs[i].StartedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.runs = s.runs[i:]
		}
	}
}

// GetRun returns the run with the given ID.
func (s *MemoryStore) GetRun(id string) (pipeline.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return pipeline.RunRecord{}, ErrNotFound
}

// GetLatest returns the most recently started run.
func (s *MemoryStore) GetLatest() (pipeline.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return pipeline.RunRecord{}, ErrNotFound
	}
	return s.runs[len(s.runs)-1], nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *MemoryStore) List(limit int) ([]pipeline.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return nil, ErrNotFound
	}

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]pipeline.RunRecord, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.runs[i])
	}
	return result, nil
}
