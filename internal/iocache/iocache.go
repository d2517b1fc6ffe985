// Package iocache persists trained ensembles and training run history.
package iocache

import (
	"sync"

	"github.com/carbonlens/emforecast/internal/contract"
)

// StoreManager holds the long-lived stores of the process.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetRunStore returns the run tracking store.
func (mgr *StoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
