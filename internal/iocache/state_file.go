package iocache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
)

// FileStateStore keeps each ensemble in its own file. The location is the file path.
type FileStateStore struct {
	defaultPath string
}

var _ contract.StateStore = &FileStateStore{} // Compile-time check

// NewFileStateStore returns a store whose status reports on defaultPath.
func NewFileStateStore(defaultPath string) *FileStateStore {
	if defaultPath == "" {
		defaultPath = contract.GetStateFilePath()
	}
	return &FileStateStore{defaultPath: defaultPath}
}

// Get reads the blob at path.
func (st *FileStateStore) Get(_ context.Context, path string) ([]byte, error) {
	blob, err := os.ReadFile(st.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no saved state at %s", schema.ErrLoad, st.resolve(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrLoad, err)
	}
	return blob, nil
}

// Set writes the blob to a temporary file next to path and renames it into place.
func (st *FileStateStore) Set(_ context.Context, path string, blob []byte, savedAt time.Time) error {
	path = st.resolve(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state file %s: %w", path, err)
	}
	_ = os.Chtimes(path, savedAt, savedAt)
	return nil
}

// GetStatus reports on the default state file.
func (st *FileStateStore) GetStatus() (schema.StateStatus, error) {
	status := schema.StateStatus{
		Backend:      string(schema.FileState),
		Connected:    true,
		LastLocation: st.defaultPath,
	}
	info, err := os.Stat(st.defaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("failed to stat state file: %w", err)
	}
	status.TotalStates = 1
	status.TotalBytes = info.Size()
	status.LastSaved = info.ModTime()
	status.OldestSaved = info.ModTime()
	return status, nil
}

// Close is a no-op for files.
func (st *FileStateStore) Close() error {
	return nil
}

func (st *FileStateStore) resolve(path string) string {
	if path == "" {
		return st.defaultPath
	}
	return path
}
