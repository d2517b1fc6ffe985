package cmd

import (
	"github.com/carbonlens/emforecast/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the emforecast MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents analyze emission trends,
train the forecaster and request forecasts through standard tools.

Tools:
  analyze_emission_trends   - statistics, trend, seasonality and change points
  train_emission_forecaster - train the candidates and save the best ensemble
  forecast_emissions        - forecast from a saved ensemble

Tool calls are throttled to --mcp-requests-per-minute. Flags and config values
act as defaults that each call may override.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Progress logs go to stderr so stdout stays reserved for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
