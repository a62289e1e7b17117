package http

import (
	"context"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/files"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/services"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the engine operations exposed over HTTP
type AnalysisServiceInterface interface {
	Normalize(ctx context.Context, src services.Source, year int) (*domain.Run, error)
	Reconcile(ctx context.Context, client, internal services.Source, year int) (*domain.Run, error)
	Analyze(ctx context.Context, params services.AnalyzeParams) (*domain.Run, error)
	RunPipeline(ctx context.Context, params services.PipelineParams) (*domain.Run, error)
	Run(id string) (*domain.Run, error)
	Runs() []domain.RunSummary
}

// RunExporter writes a run's report files and lists what was written
type RunExporter interface {
	WriteRun(ctx context.Context, run *domain.Run, dir string) ([]string, error)
	RunFiles(runID string) ([]files.FileInfo, error)
}
