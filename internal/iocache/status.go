package iocache

import (
	"fmt"
	"io"
	"slices"

	"github.com/carbonlens/emforecast/schema"
)

const statusTimeLayout = "2006-01-02 15:04:05"

// PrintStateStatus prints state store status information.
func PrintStateStatus(w io.Writer, status schema.StateStatus) {
	_, _ = fmt.Fprintf(w, "State Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Saved States: %d\n", status.TotalStates)
	if status.TotalStates > 0 {
		_, _ = fmt.Fprintf(w, "Last Saved: %s (%s)\n", status.LastSaved.Format(statusTimeLayout), status.LastLocation)
		_, _ = fmt.Fprintf(w, "Oldest Saved: %s\n", status.OldestSaved.Format(statusTimeLayout))
	}
	_, _ = fmt.Fprintf(w, "Size: %d bytes\n", status.TotalBytes)
}

// PrintRunStatus prints run tracking status information.
func PrintRunStatus(w io.Writer, status schema.RunStatus) {
	_, _ = fmt.Fprintf(w, "Run Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format(statusTimeLayout))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
