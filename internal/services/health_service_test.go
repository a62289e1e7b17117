package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/shared/testutil"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	paths := &config.Paths{
		BaseDir:    base,
		DataDir:    filepath.Join(base, "data"),
		UploadsDir: filepath.Join(base, "data", "uploads"),
		ReportsDir: filepath.Join(base, "data", "reports"),
		LogsDir:    filepath.Join(base, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name   string
		paths  func(t *testing.T) *config.Paths
		store  *RunStore
		status string
	}{
		{
			name:   "all dependencies ready",
			paths:  testPaths,
			store:  NewRunStore(5),
			status: "ready",
		},
		{
			name:   "missing run store",
			paths:  testPaths,
			status: "not_ready",
		},
		{
			name:   "no paths configured",
			paths:  func(*testing.T) *config.Paths { return nil },
			store:  NewRunStore(5),
			status: "not_ready",
		},
		{
			name: "reports directory removed",
			paths: func(t *testing.T) *config.Paths {
				p := testPaths(t)
				require.NoError(t, os.RemoveAll(p.ReportsDir))
				return p
			},
			store:  NewRunStore(5),
			status: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("1.0.0", "", "", tt.paths(t), tt.store, logger)
			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.status, status.Status)
			assert.Equal(t, "1.0.0", status.Version)
			assert.Contains(t, status.Services, "run_store")
			assert.Contains(t, status.Services, "reports")
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("2.1.0", "2025-01-01T00:00:00Z", "", nil, nil, nil)
	v := hs.Version()

	assert.Equal(t, config.AppName, v["name"])
	assert.Equal(t, "2.1.0", v["version"])
	assert.Equal(t, "2025-01-01T00:00:00Z", v["build_time"])
	assert.NotContains(t, v, "build_id")
}

func TestHealthService_SystemStats(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, os.WriteFile(filepath.Join(paths.ReportsDir, "normalized.csv"), []byte("a,b\n"), 0o644))

	store := NewRunStore(5)
	store.Add(&domain.Run{ID: "r1"})

	hs := NewHealthService("1.0.0", "", "", paths, store, nil)
	stats := hs.SystemStats(context.Background())

	assert.Equal(t, 1, stats.StoredRuns)
	assert.Equal(t, 1, stats.ReportFiles)
	assert.Equal(t, int64(4), stats.ReportBytes)
	assert.NotEmpty(t, stats.GoVersion)
}

func TestHealthService_Liveness(t *testing.T) {
	hs := NewHealthService("1.0.0", "", "", nil, nil, nil)
	status := hs.LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "goroutines")
	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)
}
