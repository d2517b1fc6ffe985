package cmd

import (
	"runtime"

	"github.com/carbonlens/emforecast/internal/iocache"
	"github.com/spf13/cobra"
)

// versionCmd prints build metadata and the saved ensemble format this binary reads.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and state format information.",
	Long: `Print the release, commit, build time and Go runtime of this binary, plus the
format and version of the ensemble blobs it writes.

An ensemble saved by a binary with a different state format version is rejected
by 'predict' with a load error; compare this output on both sides when that happens.`,
	Run: func(cmd *cobra.Command, _ []string) {
		format, formatVersion := iocache.StateFormat()
		cmd.Printf("emforecast %s\n", version)
		cmd.Printf("  commit:  %s\n", commit)
		cmd.Printf("  built:   %s\n", date)
		cmd.Printf("  go:      %s\n", runtime.Version())
		cmd.Printf("  state:   %s v%d\n", format, formatVersion)
	},
}
