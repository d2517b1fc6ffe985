package iocache

import (
	"context"
	"fmt"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
)

// NewStateStore opens the state store selected by the configuration.
func NewStateStore(ctx context.Context, cfg *contract.Config) (contract.StateStore, error) {
	switch cfg.StateBackend {
	case schema.FileState, "":
		return NewFileStateStore(cfg.StateLocation), nil
	case schema.RedisState:
		store, err := NewRedisStateStore(ctx, cfg.StateDBConnect)
		if err != nil {
			return nil, err
		}
		return store, nil
	case schema.SQLiteState, schema.MySQLState, schema.PostgreSQLState:
		store, err := NewSQLStateStore(stateTable, cfg.StateBackend.DatabaseBackend(), cfg.StateDBConnect)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported state backend: %s", cfg.StateBackend)
	}
}

// WithStateStore opens the configured state store, runs fn and closes the store.
func WithStateStore(ctx context.Context, cfg *contract.Config, fn func(contract.StateStore) error) error {
	store, err := NewStateStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

// SaveEnsemble encodes a trained ensemble and writes it to location.
func SaveEnsemble(ctx context.Context, store contract.StateStore, location string, state schema.ModelEnsembleState) error {
	savedAt := time.Now().UTC()
	blob, err := EncodeState(state, savedAt)
	if err != nil {
		return err
	}
	return store.Set(ctx, location, blob, savedAt)
}

// LoadEnsemble reads and decodes the ensemble saved at location.
// A missing, foreign or corrupted state yields an error wrapping schema.ErrLoad.
func LoadEnsemble(ctx context.Context, store contract.StateStore, location string) (schema.ModelEnsembleState, error) {
	blob, err := store.Get(ctx, location)
	if err != nil {
		return schema.ModelEnsembleState{}, err
	}
	return DecodeState(blob)
}
