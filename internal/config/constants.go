package config

import "time"

// Application constants
const (
	AppName    = "EVCO Demand Engine"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable (EVCO_SERVER_PORT, ...)
	EnvPrefix = "EVCO"

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultUploadsDir = "data/uploads"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	DefaultMaxUploadBytes = 32 << 20

	// Timeouts
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultAnalysisTimeout = 2 * time.Minute

	// API Endpoints
	APIBasePath     = "/api/v1"
	HealthEndpoint  = "/api/health"
	MetricsEndpoint = "/metrics"
)

// Monthly distribution policies
const (
	MonthlyPolicyEvenSpread     = "even-spread"
	MonthlyPolicyRepresentative = "representative"
)

// Volatility grouping modes
const (
	GroupByPart         = "part"
	GroupByPartCustomer = "part-customer"
)

// Report file names written by the exporter
const (
	NormalizedReportFile = "normalized.csv"
	ComparisonReportFile = "comparison.csv"
	VolatilityReportFile = "volatility.csv"
	RiskReportFile       = "inventory_risk.csv"
	ForecastReportFile   = "forecasts.csv"
	AnomalyReportFile    = "anomalies.csv"
	WorkbookReportFile   = "demand_report.xlsx"
)
