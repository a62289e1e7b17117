package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, MonthlyPolicyEvenSpread, cfg.Analysis.MonthlyPolicy)
				assert.Equal(t, GroupByPartCustomer, cfg.Analysis.GroupBy)
				assert.Equal(t, 0.5, cfg.Analysis.VolatilityHigh)
				assert.Equal(t, 0.25, cfg.Analysis.VolatilityModerate)
				assert.Equal(t, 12, cfg.Analysis.Horizon)
				assert.Equal(t, 0, cfg.Analysis.DefaultYear)
			},
		},
		{
			name: "env overrides",
			env: map[string]string{
				"EVCO_SERVER_PORT":            "9090",
				"EVCO_ANALYSIS_DEFAULT_YEAR":  "2025",
				"EVCO_ANALYSIS_HORIZON":       "8",
				"EVCO_ANALYSIS_MONTHLY_POLICY": "representative",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 2025, cfg.Analysis.DefaultYear)
				assert.Equal(t, 8, cfg.Analysis.Horizon)
				assert.Equal(t, MonthlyPolicyRepresentative, cfg.Analysis.MonthlyPolicy)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"EVCO_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "unknown monthly policy",
			env:     map[string]string{"EVCO_ANALYSIS_MONTHLY_POLICY": "first-week"},
			wantErr: true,
		},
		{
			name: "inverted volatility thresholds",
			env: map[string]string{
				"EVCO_ANALYSIS_VOLATILITY_HIGH":     "0.2",
				"EVCO_ANALYSIS_VOLATILITY_MODERATE": "0.3",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EVCO_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9191
analysis:
  default_year: 2024
  horizon: 6
  volatility_high: 0.8
  volatility_moderate: 0.4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 2024, cfg.Analysis.DefaultYear)
	assert.Equal(t, 6, cfg.Analysis.Horizon)

	_, err = loadFromFile(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMergesFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9191
analysis:
  default_year: 2024
  horizon: 6
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("EVCO_CONFIG_FILE", path)
	t.Setenv("EVCO_ANALYSIS_HORIZON", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "file value applies when env is unset")
	assert.Equal(t, 2024, cfg.Analysis.DefaultYear)
	assert.Equal(t, 10, cfg.Analysis.Horizon, "env wins over file")
}

func TestMergeConfigs(t *testing.T) {
	env := *Default()
	file := Config{}
	file.Server.Port = 7000
	file.Analysis.MonthlyPolicy = MonthlyPolicyRepresentative
	file.Security.AllowedOrigins = []string{"https://planner.example"}

	merged := mergeConfigs(file, env)
	assert.Equal(t, 7000, merged.Server.Port)
	assert.Equal(t, MonthlyPolicyRepresentative, merged.Analysis.MonthlyPolicy)
	assert.Equal(t, []string{"https://planner.example"}, merged.Security.AllowedOrigins)
	// zero file values leave env values alone
	assert.Equal(t, 12, merged.Analysis.Horizon)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(c *Config) {}},
		{name: "zero read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, wantErr: true},
		{name: "cors without origins", mutate: func(c *Config) { c.Security.AllowedOrigins = nil }, wantErr: true},
		{name: "bad group by", mutate: func(c *Config) { c.Analysis.GroupBy = "customer" }, wantErr: true},
		{name: "zero horizon", mutate: func(c *Config) { c.Analysis.Horizon = 0 }, wantErr: true},
		{name: "year out of range", mutate: func(c *Config) { c.Analysis.DefaultYear = 25 }, wantErr: true},
		{name: "unknown log output falls back", mutate: func(c *Config) { c.Logging.Output = "syslog" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "json", cfg.Logging.Format)
			assert.Contains(t, []string{"console", "file", "both"}, cfg.Logging.Output)
		})
	}
}

func TestResolveYear(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2026, AnalysisConfig{}.ResolveYear(now))
	assert.Equal(t, 2024, AnalysisConfig{DefaultYear: 2024}.ResolveYear(now))
}
