package iocache

import (
	"context"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockStateStore is a mock implementation of StateStore for testing.
type MockStateStore struct {
	mock.Mock
}

var _ contract.StateStore = &MockStateStore{} // Compile-time check

// Get implements the StateStore interface.
func (m *MockStateStore) Get(ctx context.Context, location string) ([]byte, error) {
	args := m.Called(ctx, location)
	blob, _ := args.Get(0).([]byte)
	return blob, args.Error(1)
}

// Set implements the StateStore interface.
func (m *MockStateStore) Set(ctx context.Context, location string, blob []byte, savedAt time.Time) error {
	args := m.Called(ctx, location, blob, savedAt)
	return args.Error(0)
}

// GetStatus implements the StateStore interface.
func (m *MockStateStore) GetStatus() (schema.StateStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StateStatus), args.Error(1)
}

// Close implements the StateStore interface.
func (m *MockStateStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(runID string, startTime time.Time, seriesPoints int, configParams map[string]any) error {
	args := m.Called(runID, startTime, seriesPoints, configParams)
	return args.Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID string, endTime time.Time, best schema.ModelKind, bestTestMAE float64) error {
	args := m.Called(runID, endTime, best, bestTestMAE)
	return args.Error(0)
}

// RecordModelScore implements the RunStore interface.
func (m *MockRunStore) RecordModelScore(runID string, slot schema.ModelKind, rec schema.TrainedModelRecord) error {
	args := m.Called(runID, slot, rec)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.TrainingRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.TrainingRunRecord)
	return runs, args.Error(1)
}

// GetAllModelScores implements the RunStore interface.
func (m *MockRunStore) GetAllModelScores() ([]schema.ModelScoreRecord, error) {
	args := m.Called()
	scores, _ := args.Get(0).([]schema.ModelScoreRecord)
	return scores, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
