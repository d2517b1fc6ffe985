package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// ModelKind identifies a forecasting candidate.
	ModelKind string

	// TrendDirection is the sign of a fitted trend slope.
	TrendDirection string

	// StateBackend represents where trained ensembles are persisted.
	StateBackend string

	// DatabaseBackend represents the database backend for run tracking.
	DatabaseBackend string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All candidate model kinds, in training order.
const (
	LinearModel   ModelKind = "linear"
	ARIMAModel    ModelKind = "arima"
	SeasonalModel ModelKind = "seasonal"
)

// Trend directions reported by the analyzer.
const (
	Increasing TrendDirection = "increasing"
	Decreasing TrendDirection = "decreasing"
)

// All state backends supported.
const (
	FileState       StateBackend = "file" // default
	SQLiteState     StateBackend = "sqlite"
	MySQLState      StateBackend = "mysql"
	PostgreSQLState StateBackend = "postgresql"
	RedisState      StateBackend = "redis"
)

// All run tracking backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// CandidateOrder is the stable training and tie-break order of the candidates.
var CandidateOrder = []ModelKind{LinearModel, ARIMAModel, SeasonalModel}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidModelKinds lists all valid model kinds.
var ValidModelKinds = map[ModelKind]struct{}{
	LinearModel:   {},
	ARIMAModel:    {},
	SeasonalModel: {},
}

// ValidStateBackends lists all valid state backends.
var ValidStateBackends = map[StateBackend]struct{}{
	FileState:       {},
	SQLiteState:     {},
	MySQLState:      {},
	PostgreSQLState: {},
	RedisState:      {},
}

// ValidDatabaseBackends lists all valid run tracking backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// DatabaseBackend maps a SQL state backend to its database backend. Non-SQL backends map to none.
func (b StateBackend) DatabaseBackend() DatabaseBackend {
	switch b {
	case SQLiteState:
		return SQLiteBackend
	case MySQLState:
		return MySQLBackend
	case PostgreSQLState:
		return PostgreSQLBackend
	default:
		return NoneBackend
	}
}
