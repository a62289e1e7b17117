package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"2m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration.
// Relative directories are resolved against BaseDir, or the executable directory when unset.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	UploadsDir string `yaml:"uploads_dir" envconfig:"UPLOADS_DIR" default:"data/uploads"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// AnalysisConfig carries the engine tuning knobs.
// DefaultYear 0 means "resolve once at startup from the clock".
type AnalysisConfig struct {
	DefaultYear        int     `yaml:"default_year" envconfig:"DEFAULT_YEAR" default:"0"`
	MonthlyPolicy      string  `yaml:"monthly_policy" envconfig:"MONTHLY_POLICY" default:"even-spread"`
	GroupBy            string  `yaml:"group_by" envconfig:"GROUP_BY" default:"part-customer"`
	VolatilityHigh     float64 `yaml:"volatility_high" envconfig:"VOLATILITY_HIGH" default:"0.5"`
	VolatilityModerate float64 `yaml:"volatility_moderate" envconfig:"VOLATILITY_MODERATE" default:"0.25"`
	LowCoverageWeeks   float64 `yaml:"low_coverage_weeks" envconfig:"LOW_COVERAGE_WEEKS" default:"4"`
	TargetCoverWeeks   float64 `yaml:"target_cover_weeks" envconfig:"TARGET_COVER_WEEKS" default:"8"`
	Horizon            int     `yaml:"horizon" envconfig:"HORIZON" default:"12"`
	ConfidenceZ        float64 `yaml:"confidence_z" envconfig:"CONFIDENCE_Z" default:"1.96"`
	SeasonLength       int     `yaml:"season_length" envconfig:"SEASON_LENGTH" default:"4"`
	MaxConcurrency     int     `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"8"`
	MaxUploadBytes     int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	MaxRuns            int     `yaml:"max_runs" envconfig:"MAX_RUNS" default:"100"`
}

// Load loads configuration from .env, environment variables and an optional YAML file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays file values onto the env config.
// A field explicitly set in the environment always wins.
func mergeConfigs(fileConfig, envConfig Config) Config {
	overlay(&envConfig.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	overlay(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	overlay(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	overlay(&envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout, "SERVER_REQUEST_TIMEOUT")

	if len(fileConfig.Security.AllowedOrigins) > 0 && os.Getenv(EnvPrefix+"_SECURITY_ALLOWED_ORIGINS") == "" {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}

	overlay(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	overlay(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	overlay(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	overlay(&envConfig.Paths.BaseDir, fileConfig.Paths.BaseDir, "PATHS_BASE_DIR")
	overlay(&envConfig.Paths.DataDir, fileConfig.Paths.DataDir, "PATHS_DATA_DIR")
	overlay(&envConfig.Paths.UploadsDir, fileConfig.Paths.UploadsDir, "PATHS_UPLOADS_DIR")
	overlay(&envConfig.Paths.ReportsDir, fileConfig.Paths.ReportsDir, "PATHS_REPORTS_DIR")
	overlay(&envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir, "PATHS_LOGS_DIR")

	a, f := &envConfig.Analysis, fileConfig.Analysis
	overlay(&a.DefaultYear, f.DefaultYear, "ANALYSIS_DEFAULT_YEAR")
	overlay(&a.MonthlyPolicy, f.MonthlyPolicy, "ANALYSIS_MONTHLY_POLICY")
	overlay(&a.GroupBy, f.GroupBy, "ANALYSIS_GROUP_BY")
	overlay(&a.VolatilityHigh, f.VolatilityHigh, "ANALYSIS_VOLATILITY_HIGH")
	overlay(&a.VolatilityModerate, f.VolatilityModerate, "ANALYSIS_VOLATILITY_MODERATE")
	overlay(&a.LowCoverageWeeks, f.LowCoverageWeeks, "ANALYSIS_LOW_COVERAGE_WEEKS")
	overlay(&a.TargetCoverWeeks, f.TargetCoverWeeks, "ANALYSIS_TARGET_COVER_WEEKS")
	overlay(&a.Horizon, f.Horizon, "ANALYSIS_HORIZON")
	overlay(&a.ConfidenceZ, f.ConfidenceZ, "ANALYSIS_CONFIDENCE_Z")
	overlay(&a.SeasonLength, f.SeasonLength, "ANALYSIS_SEASON_LENGTH")
	overlay(&a.MaxConcurrency, f.MaxConcurrency, "ANALYSIS_MAX_CONCURRENCY")
	overlay(&a.MaxUploadBytes, f.MaxUploadBytes, "ANALYSIS_MAX_UPLOAD_BYTES")
	overlay(&a.MaxRuns, f.MaxRuns, "ANALYSIS_MAX_RUNS")

	return envConfig
}

func overlay[T comparable](dst *T, fileValue T, envKey string) {
	var zero T
	if fileValue == zero {
		return
	}
	if _, set := os.LookupEnv(EnvPrefix + "_" + envKey); set {
		return
	}
	*dst = fileValue
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	// JSON is the only log format
	c.Logging.Format = "json"
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	a := c.Analysis
	if a.DefaultYear != 0 && (a.DefaultYear < 1900 || a.DefaultYear > 9999) {
		return fmt.Errorf("analysis default year out of range: %d", a.DefaultYear)
	}
	switch strings.ToLower(a.MonthlyPolicy) {
	case MonthlyPolicyEvenSpread, MonthlyPolicyRepresentative:
	default:
		return fmt.Errorf("unknown monthly policy %q", a.MonthlyPolicy)
	}
	switch strings.ToLower(a.GroupBy) {
	case GroupByPart, GroupByPartCustomer:
	default:
		return fmt.Errorf("unknown group_by %q", a.GroupBy)
	}
	if a.VolatilityHigh <= a.VolatilityModerate {
		return fmt.Errorf("volatility_high (%v) must exceed volatility_moderate (%v)", a.VolatilityHigh, a.VolatilityModerate)
	}
	if a.Horizon <= 0 {
		return fmt.Errorf("forecast horizon must be positive")
	}
	if a.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	return nil
}

// ResolveYear returns the configured default year, falling back to now's year.
// Callers resolve it once at startup and pass the result into the normalizer.
func (a AnalysisConfig) ResolveYear(now time.Time) int {
	if a.DefaultYear > 0 {
		return a.DefaultYear
	}
	return now.Year()
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			UploadsDir: DefaultUploadsDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Analysis: AnalysisConfig{
			MonthlyPolicy:      MonthlyPolicyEvenSpread,
			GroupBy:            GroupByPartCustomer,
			VolatilityHigh:     0.5,
			VolatilityModerate: 0.25,
			LowCoverageWeeks:   4,
			TargetCoverWeeks:   8,
			Horizon:            12,
			ConfidenceZ:        1.96,
			SeasonLength:       4,
			MaxConcurrency:     8,
			MaxUploadBytes:     DefaultMaxUploadBytes,
			MaxRuns:            100,
		},
	}
}
