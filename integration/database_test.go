//go:build database

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestEmforecastWithMySQL tests the CLI with MySQL state and run tracking backends.
func TestEmforecastWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "emforecast",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/emforecast?parseTime=true", host, port.Port())
	runBackendLifecycle(t, map[string]string{
		"EMFORECAST_STATE_BACKEND":    "mysql",
		"EMFORECAST_STATE_DB_CONNECT": connStr,
		"EMFORECAST_RUN_BACKEND":      "mysql",
		"EMFORECAST_RUN_DB_CONNECT":   connStr,
	})
}

// TestEmforecastWithPostgres tests the CLI with PostgreSQL state and run tracking backends.
func TestEmforecastWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runBackendLifecycle(t, map[string]string{
		"EMFORECAST_STATE_BACKEND":    "postgresql",
		"EMFORECAST_STATE_DB_CONNECT": connStr,
		"EMFORECAST_RUN_BACKEND":      "postgresql",
		"EMFORECAST_RUN_DB_CONNECT":   connStr,
	})
}

// TestEmforecastWithRedis tests the CLI with a Redis state backend and no run tracking.
func TestEmforecastWithRedis(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	env := map[string]string{
		"EMFORECAST_STATE_BACKEND":    "redis",
		"EMFORECAST_STATE_DB_CONNECT": fmt.Sprintf("redis://%s:%s/0", host, port.Port()),
	}
	dir := t.TempDir()
	input := writeSeries(t, dir, "small")

	_, err = runEmforecast(t, env, "state", "clear")
	require.NoError(t, err)
	_, err = runEmforecast(t, env, "train", input, "--state-location", "plant-a")
	require.NoError(t, err)

	forecastFile := filepath.Join(dir, "forecast.json")
	_, err = runEmforecast(t, env, "predict", "--state-location", "plant-a", "--horizon", "10",
		"--output", "json", "--output-file", forecastFile)
	require.NoError(t, err)
	assertForecastFile(t, forecastFile, 10)

	out, err := runEmforecast(t, env, "state", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "State Backend: redis")
	assert.Contains(t, out, "Saved States: 1")
}

// runBackendLifecycle clears, trains, predicts, inspects and exports against SQL backends.
func runBackendLifecycle(t *testing.T, env map[string]string) {
	t.Helper()
	dir := t.TempDir()
	input := writeSeries(t, dir, "small")

	_, err := runEmforecast(t, env, "state", "migrate")
	require.NoError(t, err)

	_, err = runEmforecast(t, env, "state", "clear")
	require.NoError(t, err)

	_, err = runEmforecast(t, env, "train", input)
	require.NoError(t, err)

	forecastFile := filepath.Join(dir, "forecast.json")
	_, err = runEmforecast(t, env, "predict", "--horizon", "14", "--output", "json", "--output-file", forecastFile)
	require.NoError(t, err)
	assertForecastFile(t, forecastFile, 14)

	out, err := runEmforecast(t, env, "state", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved States: 1")
	assert.Contains(t, out, "Total Runs: 1")

	exportPrefix := filepath.Join(dir, "history")
	_, err = runEmforecast(t, env, "state", "export", "--output-file", exportPrefix)
	require.NoError(t, err)
	assert.FileExists(t, exportPrefix+".training_runs.parquet")
	assert.FileExists(t, exportPrefix+".model_scores.parquet")
}

func assertForecastFile(t *testing.T, path string, horizon int) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var forecast struct {
		Predictions []float64 `json:"predictions"`
		Dates       []string  `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(data, &forecast))
	assert.Len(t, forecast.Predictions, horizon)
	assert.Len(t, forecast.Dates, horizon)
}
