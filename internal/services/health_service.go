package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/files"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	paths     *config.Paths
	reports   *files.Catalog
	store     *RunStore
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	StoredRuns    int     `json:"stored_runs"`
	ReportFiles   int     `json:"report_files"`
	ReportBytes   int64   `json:"report_bytes"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
	OS            string  `json:"os"`
	Arch          string  `json:"arch"`
}

// NewHealthService creates a new health service. paths and store may be nil,
// in which case readiness reports the missing dependency.
func NewHealthService(version, buildTime, buildID string, paths *config.Paths, store *RunStore, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	var reports *files.Catalog
	if paths != nil {
		reports = files.NewCatalog(paths.ReportsDir)
	}

	return &HealthService{
		reports:   reports,
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		paths:     paths,
		store:     store,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready only when every dependency is ready
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"run_store": hs.checkRunStore(),
			"uploads":   hs.checkDir("uploads", hs.dir(func(p *config.Paths) string { return p.UploadsDir })),
			"reports":   hs.checkDir("reports", hs.dir(func(p *config.Paths) string { return p.ReportsDir })),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"name":         config.AppName,
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}
	return result
}

// SystemStats returns run and report statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if hs.store != nil {
		stats.StoredRuns = hs.store.Len()
	}
	if hs.reports != nil {
		count, size, err := hs.reports.Usage("")
		if err != nil {
			hs.logger.WarnContext(ctx, "failed to measure reports directory", slog.String("error", err.Error()))
		}
		stats.ReportFiles = count
		stats.ReportBytes = size
	}
	return stats
}

func (hs *HealthService) dir(pick func(*config.Paths) string) string {
	if hs.paths == nil {
		return ""
	}
	return pick(hs.paths)
}

func (hs *HealthService) checkRunStore() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "run store not initialized"}
	}
	return ServiceHealth{Status: "ready", Message: fmt.Sprintf("%d runs stored", hs.store.Len())}
}

// checkDir verifies a directory exists and is writable
func (hs *HealthService) checkDir(name, dir string) ServiceHealth {
	if dir == "" {
		return ServiceHealth{Status: "not_ready", Message: name + " directory not configured"}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("%s directory not found: %s", name, dir)}
	}

	probe, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("cannot write to %s directory: %v", name, err)}
	}
	probe.Close()
	os.Remove(probe.Name())

	return ServiceHealth{Status: "ready"}
}
