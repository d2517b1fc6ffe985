// main is the entry point of the emforecast CLI.
package main

import (
	"github.com/carbonlens/emforecast/cmd"
	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/iocache"
)

func main() {
	defer iocache.CloseStores()
	cmd.SetStoreManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}
