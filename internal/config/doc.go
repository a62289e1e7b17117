// Package config loads the demand engine configuration.
//
// Sources, lowest to highest precedence:
//
//	1. default:"..." struct tags
//	2. a YAML file (EVCO_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. environment variables prefixed with EVCO_, including those from a .env file
//
// Example:
//
//	EVCO_SERVER_PORT=8080
//	EVCO_ANALYSIS_DEFAULT_YEAR=2025
//	EVCO_ANALYSIS_MONTHLY_POLICY=even-spread
//	EVCO_LOGGING_LEVEL=debug
//
// Paths resolves the data, upload, report and log directories against a base
// directory that defaults to the executable location.
package config
