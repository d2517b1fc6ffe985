package schema

import "time"

// StateStatus represents the status of the model state store.
type StateStatus struct {
	Backend      string    `json:"backend"`
	Connected    bool      `json:"connected"`
	TotalStates  int       `json:"total_states"`
	LastSaved    time.Time `json:"last_saved"`
	OldestSaved  time.Time `json:"oldest_saved"`
	TotalBytes   int64     `json:"total_bytes"`
	LastLocation string    `json:"last_location"`
}

// RunStatus represents the status of the training run store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
