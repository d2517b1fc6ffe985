// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"fmt"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/ratelimit"
	"github.com/carbonlens/emforecast/schema"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ensembleCacheSize bounds the number of loaded ensembles kept in memory.
const ensembleCacheSize = 16

// NewMCPServer initializes and configures the emforecast MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) (*server.MCPServer, error) {
	ensembles, err := lru.New[string, schema.ModelEnsembleState](ensembleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ensemble cache: %w", err)
	}

	s := server.NewMCPServer(
		"Emission Forecast Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:   baseCfg,
		mgr:       mgr,
		limiter:   ratelimit.NewRateLimiter(baseCfg.MCPRequestsPerMinute),
		ensembles: ensembles,
	}

	// --- 1. Tool: analyze_emission_trends ---
	s.AddTool(mcp.NewTool("analyze_emission_trends",
		mcp.WithDescription("Compute statistics, linear trend, monthly seasonality and change points of a daily emission series."),
		mcp.WithString("input_path", mcp.Description("Path to a CSV or JSON file of dated emission records."), mcp.Required()),
		mcp.WithString("date_field", mcp.Description("Name of the date column (defaults to the server configuration).")),
		mcp.WithString("value_field", mcp.Description("Name of the emission value column (defaults to the server configuration).")),
	), h.handleAnalyzeTrends)

	// --- 2. Tool: train_emission_forecaster ---
	s.AddTool(mcp.NewTool("train_emission_forecaster",
		mcp.WithDescription("Train the linear, ARIMA and seasonal candidates on an emission series, select the best by test MAE and save the ensemble."),
		mcp.WithString("input_path", mcp.Description("Path to a CSV or JSON file of dated emission records."), mcp.Required()),
		mcp.WithString("date_field", mcp.Description("Name of the date column.")),
		mcp.WithString("value_field", mcp.Description("Name of the emission value column.")),
		mcp.WithString("state_location", mcp.Description("Name to save the trained ensemble under, without path separators (defaults to the server configuration).")),
		mcp.WithBoolean("statistical_models", mcp.Description("Whether the ARIMA and seasonal candidates may run. Defaults to the server configuration.")),
	), h.handleTrainForecaster)

	// --- 3. Tool: forecast_emissions ---
	s.AddTool(mcp.NewTool("forecast_emissions",
		mcp.WithDescription("Forecast daily emissions after the end of the training series using a saved ensemble."),
		mcp.WithNumber("horizon", mcp.Description("Number of days to forecast. Defaults to 30.")),
		mcp.WithNumber("confidence_level", mcp.Description("Confidence level reported with the interval. Defaults to 0.95.")),
		mcp.WithString("state_location", mcp.Description("Name the trained ensemble was saved under (defaults to the server configuration).")),
	), h.handleForecast)

	return s, nil
}

// StartMCPServer starts the emforecast MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s, err := NewMCPServer(baseCfg, mgr)
	if err != nil {
		return err
	}
	return server.ServeStdio(s)
}
