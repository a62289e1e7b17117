package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/files"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// ReportWriter exports run results to the reports directory
type ReportWriter struct {
	csv     *CSVWriter
	catalog *files.Catalog
	paths   *config.Paths
	logger  *slog.Logger
}

// NewReportWriter creates a report writer rooted at the configured reports directory
func NewReportWriter(paths *config.Paths, logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "report_writer"))
	return &ReportWriter{
		csv:     NewCSVWriter(paths, logger),
		catalog: files.NewCatalog(paths.ReportsDir),
		paths:   paths,
		logger:  logger,
	}
}

// RunFiles lists the report files exported for a run; none is an empty list
func (w *ReportWriter) RunFiles(runID string) ([]files.FileInfo, error) {
	if runID == "" || runID != filepath.Base(runID) {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}
	return w.catalog.List(runID)
}

// WriteRun writes one CSV per populated section of the run into dir and
// returns the written paths in report order.
func (w *ReportWriter) WriteRun(ctx context.Context, run *domain.Run, dir string) ([]string, error) {
	if run == nil {
		return nil, fmt.Errorf("nil run")
	}

	var files []string
	for _, t := range runTables(run) {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		path, err := w.csv.WriteSimpleCSV(filepath.Join(dir, t.file), t.headers(), t.records())
		if err != nil {
			return files, fmt.Errorf("write %s: %w", t.file, err)
		}
		files = append(files, path)
	}

	w.logger.InfoContext(ctx, "run reports written",
		slog.String("run_id", run.ID),
		slog.String("kind", string(run.Kind)),
		slog.Int("files", len(files)))
	return files, nil
}

// WriteWorkbookFile writes the run as a multi-sheet XLSX file and returns its path
func (w *ReportWriter) WriteWorkbookFile(ctx context.Context, run *domain.Run, filePath string) (string, error) {
	fullPath := w.csv.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create workbook: %w", err)
	}
	defer file.Close()

	if err := WriteWorkbook(file, run); err != nil {
		return "", err
	}

	w.logger.InfoContext(ctx, "workbook written",
		slog.String("run_id", run.ID),
		slog.String("path", fullPath))
	return fullPath, nil
}
