// Package contract provides interfaces, configuration and shared utilities for emforecast's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/carbonlens/emforecast/schema"
)

// StateStore persists opaque ensemble blobs by location.
// A location is a file path for the file backend and a state name otherwise.
type StateStore interface {
	// Get returns the blob stored at location. A missing blob is an error wrapping schema.ErrLoad.
	Get(ctx context.Context, location string) ([]byte, error)

	// Set stores blob at location, replacing any previous blob.
	Set(ctx context.Context, location string, blob []byte, savedAt time.Time) error

	// GetStatus returns status information about the state store
	GetStatus() (schema.StateStatus, error)

	// Close releases the underlying connection
	Close() error
}

// RunStore tracks training runs and per-candidate scores.
type RunStore interface {
	// BeginRun records the start of a training run
	BeginRun(runID string, startTime time.Time, seriesPoints int, configParams map[string]any) error

	// EndRun updates the run with completion data
	EndRun(runID string, endTime time.Time, best schema.ModelKind, bestTestMAE float64) error

	// RecordModelScore stores the performance of one candidate slot
	RecordModelScore(runID string, slot schema.ModelKind, rec schema.TrainedModelRecord) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves all training runs
	GetAllRuns() ([]schema.TrainingRunRecord, error)

	// GetAllModelScores retrieves all candidate scores
	GetAllModelScores() ([]schema.ModelScoreRecord, error)

	// Close closes the underlying connection
	Close() error
}

// StoreManager gives access to the long-lived stores of the process.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetRunStore() RunStore
}

// TrainingObserver receives training events, e.g. for metrics.
type TrainingObserver interface {
	ObserveCandidate(slot schema.ModelKind, outcome string, elapsed time.Duration)
	ObserveBest(slot schema.ModelKind, testMAE float64)
}
