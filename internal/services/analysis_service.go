package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/analytics"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/dataprocessing"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/infrastructure"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/reconciliation"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Source is one uploaded or on-disk workbook
type Source struct {
	Name   string // file name; the extension selects CSV or XLSX decoding
	Reader io.Reader
	Sheet  string // empty selects the first sheet with a header
}

// AnalyzeParams is a deep analysis request over already-normalized rows
type AnalyzeParams struct {
	BatchID  string
	Rows     []domain.NormalizedRow
	Stock    []domain.StockPosition
	Observed map[string]map[string]float64
	Horizon  int
	GroupBy  analytics.GroupBy
}

// PipelineParams drives the full pipeline: normalize the client forecast,
// reconcile against the internal one when given, and analyze with stock.
type PipelineParams struct {
	Client   Source
	Internal *Source
	Stock    *Source
	Year     int
	Horizon  int
	GroupBy  analytics.GroupBy
}

// RunListener is told about each registered run. Implementations must not block.
type RunListener interface {
	RunCompleted(ctx context.Context, summary domain.RunSummary)
}

// AnalysisService orchestrates normalization, reconciliation and analysis and
// registers every completed run.
type AnalysisService struct {
	normalizerCfg dataprocessing.NormalizerConfig
	summarizer    *dataprocessing.Summarizer
	reconciler    *reconciliation.Reconciler
	engine        *analytics.Engine
	store         *RunStore
	metrics       *infrastructure.AnalysisMetrics
	tracer        trace.Tracer
	logger        *slog.Logger

	mu        sync.RWMutex
	listeners []RunListener
}

// EngineConfig maps the analysis configuration onto the engine configuration
func EngineConfig(cfg config.AnalysisConfig) analytics.Config {
	ec := analytics.DefaultConfig()
	ec.Volatility = analytics.VolatilityThresholds{High: cfg.VolatilityHigh, Moderate: cfg.VolatilityModerate}
	ec.Risk = analytics.RiskConfig{LowCoverageWeeks: cfg.LowCoverageWeeks, TargetCoverWeeks: cfg.TargetCoverWeeks}
	ec.Forecast.Horizon = cfg.Horizon
	ec.Forecast.Z = cfg.ConfidenceZ
	ec.Forecast.SeasonLength = cfg.SeasonLength
	ec.GroupBy = analytics.GroupBy(cfg.GroupBy)
	ec.MaxConcurrency = cfg.MaxConcurrency
	return ec
}

// NewAnalysisService creates the service. The default year is resolved once here.
// A nil metrics disables instrumentation.
func NewAnalysisService(cfg config.AnalysisConfig, store *RunStore, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) (*AnalysisService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = NewRunStore(cfg.MaxRuns)
	}

	engine, err := analytics.NewEngine(EngineConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	return &AnalysisService{
		normalizerCfg: dataprocessing.NormalizerConfig{
			DefaultYear:   cfg.ResolveYear(time.Now()),
			MonthlyPolicy: dataprocessing.MonthlyPolicy(cfg.MonthlyPolicy),
		},
		summarizer: dataprocessing.NewSummarizer(logger),
		reconciler: reconciliation.NewReconciler(logger),
		engine:     engine,
		store:      store,
		metrics:    metrics,
		tracer:     otel.Tracer(infrastructure.ServiceName),
		logger:     logger.With(slog.String("component", "analysis_service")),
	}, nil
}

// Normalize decodes and normalizes one workbook and registers the run.
// A year of 0 uses the configured default.
func (s *AnalysisService) Normalize(ctx context.Context, src Source, year int) (run *domain.Run, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "run.normalize")
	defer func() { s.finish(ctx, span, domain.RunKindNormalize, start, err) }()

	batch, err := s.normalizeSource(ctx, src, year)
	if err != nil {
		return nil, err
	}

	run = s.newRun(domain.RunKindNormalize, start)
	run.Format = &batch.Format
	run.Batches = []domain.BatchSummary{s.summarizer.Summarize(ctx, batch)}
	run.Normalized = batch.Rows
	return s.register(ctx, run, start), nil
}

// Reconcile normalizes both workbooks concurrently and compares them
func (s *AnalysisService) Reconcile(ctx context.Context, client, internal Source, year int) (run *domain.Run, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "run.reconcile")
	defer func() { s.finish(ctx, span, domain.RunKindReconcile, start, err) }()

	clientBatch, internalBatch, err := s.normalizePair(ctx, client, internal, year)
	if err != nil {
		return nil, err
	}

	run = s.newRun(domain.RunKindReconcile, start)
	s.reconcileInto(ctx, run, clientBatch, internalBatch)
	return s.register(ctx, run, start), nil
}

// Analyze runs the deep analysis over normalized rows
func (s *AnalysisService) Analyze(ctx context.Context, params AnalyzeParams) (run *domain.Run, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "run.analyze")
	defer func() { s.finish(ctx, span, domain.RunKindAnalyze, start, err) }()

	run = s.newRun(domain.RunKindAnalyze, start)
	if err = s.analyzeInto(ctx, run, params); err != nil {
		return nil, err
	}
	return s.register(ctx, run, start), nil
}

// RunPipeline runs every stage the inputs allow and registers one analyze run
// holding all of their outputs.
func (s *AnalysisService) RunPipeline(ctx context.Context, params PipelineParams) (run *domain.Run, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "run.pipeline")
	defer func() { s.finish(ctx, span, domain.RunKindAnalyze, start, err) }()

	run = s.newRun(domain.RunKindAnalyze, start)

	var clientBatch *dataprocessing.NormalizedBatch
	if params.Internal != nil {
		var internalBatch *dataprocessing.NormalizedBatch
		clientBatch, internalBatch, err = s.normalizePair(ctx, params.Client, *params.Internal, params.Year)
		if err != nil {
			return nil, err
		}
		s.reconcileInto(ctx, run, clientBatch, internalBatch)
	} else {
		if clientBatch, err = s.normalizeSource(ctx, params.Client, params.Year); err != nil {
			return nil, err
		}
		run.Batches = []domain.BatchSummary{s.summarizer.Summarize(ctx, clientBatch)}
	}
	run.Format = &clientBatch.Format
	run.Normalized = clientBatch.Rows

	var stock []domain.StockPosition
	if params.Stock != nil {
		if stock, err = s.stockPositions(ctx, *params.Stock); err != nil {
			return nil, err
		}
	}

	err = s.analyzeInto(ctx, run, AnalyzeParams{
		BatchID: clientBatch.BatchID,
		Rows:    clientBatch.Rows,
		Stock:   stock,
		Horizon: params.Horizon,
		GroupBy: params.GroupBy,
	})
	if err != nil {
		return nil, err
	}
	return s.register(ctx, run, start), nil
}

// Run returns a stored run
func (s *AnalysisService) Run(id string) (*domain.Run, error) {
	run, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// Runs lists stored runs, newest first
func (s *AnalysisService) Runs() []domain.RunSummary {
	return s.store.List()
}

// StockPositions decodes a stock workbook
func (s *AnalysisService) StockPositions(ctx context.Context, src Source) ([]domain.StockPosition, error) {
	return s.stockPositions(ctx, src)
}

func (s *AnalysisService) normalizeSource(ctx context.Context, src Source, year int) (*dataprocessing.NormalizedBatch, error) {
	if src.Reader == nil {
		return nil, ErrMissingSource
	}

	_, detect := s.tracer.Start(ctx, "detect",
		trace.WithAttributes(attribute.String("source", src.Name)))
	rows, err := dataprocessing.ParseWorkbook(src.Reader, src.Name, src.Sheet)
	if err != nil {
		detect.RecordError(err)
		detect.End()
		return nil, err
	}
	format := dataprocessing.DetectFormat(rows)
	detect.SetAttributes(attribute.String("format", string(format.Kind)), attribute.Int("rows", len(rows)))
	detect.End()

	ctx, span := s.tracer.Start(ctx, "normalize")
	defer span.End()

	cfg := s.normalizerCfg
	if year > 0 {
		cfg.DefaultYear = year
	}
	batch, err := dataprocessing.NewNormalizer(cfg, s.logger).NormalizeBatch(ctx, domain.RowBatch{
		ID:     uuid.NewString(),
		Source: src.Name,
		Rows:   rows,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("normalize %s: %w", src.Name, err)
	}

	span.SetAttributes(attribute.Int("normalized_rows", len(batch.Rows)), attribute.Int("skipped_rows", batch.Skipped))
	s.metrics.RecordNormalization(ctx, string(batch.Format.Kind), len(batch.Rows), batch.Skipped)
	return batch, nil
}

func (s *AnalysisService) normalizePair(ctx context.Context, client, internal Source, year int) (*dataprocessing.NormalizedBatch, *dataprocessing.NormalizedBatch, error) {
	var clientBatch, internalBatch *dataprocessing.NormalizedBatch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clientBatch, err = s.normalizeSource(gctx, client, year)
		return err
	})
	g.Go(func() error {
		var err error
		internalBatch, err = s.normalizeSource(gctx, internal, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clientBatch, internalBatch, nil
}

func (s *AnalysisService) reconcileInto(ctx context.Context, run *domain.Run, client, internal *dataprocessing.NormalizedBatch) {
	ctx, span := s.tracer.Start(ctx, "reconcile")
	defer span.End()

	result := s.reconciler.Reconcile(ctx, client.Rows, internal.Rows)
	run.Batches = []domain.BatchSummary{
		s.summarizer.Summarize(ctx, client),
		s.summarizer.Summarize(ctx, internal),
	}
	run.Comparison = result.Rows
	run.Totals = &result.Totals
	span.SetAttributes(attribute.Int("keys", result.Totals.Keys))
}

func (s *AnalysisService) analyzeInto(ctx context.Context, run *domain.Run, params AnalyzeParams) error {
	ctx, span := s.tracer.Start(ctx, "analyze",
		trace.WithAttributes(attribute.String("batch_id", params.BatchID), attribute.Int("rows", len(params.Rows))))
	defer span.End()

	report, err := s.engine.Analyze(ctx, analytics.AnalysisInput{
		BatchID:  params.BatchID,
		Rows:     params.Rows,
		Stock:    params.Stock,
		Observed: params.Observed,
		GroupBy:  params.GroupBy,
		Horizon:  params.Horizon,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	run.Analysis = report
	run.Tiers = make(map[string]domain.VolatilityTier, len(report.Volatility))
	for _, v := range report.Volatility {
		run.Tiers[v.GroupKey()] = s.engine.Tier(v.VolatilityScore)
	}
	span.SetAttributes(attribute.Int("anomalies", len(report.Anomalies)))
	s.metrics.RecordAnomalies(ctx, len(report.Anomalies))
	return nil
}

func (s *AnalysisService) stockPositions(ctx context.Context, src Source) ([]domain.StockPosition, error) {
	if src.Reader == nil {
		return nil, ErrMissingSource
	}
	rows, err := dataprocessing.ParseWorkbook(src.Reader, src.Name, src.Sheet)
	if err != nil {
		return nil, err
	}
	positions, skipped := dataprocessing.StockPositions(rows)
	s.logger.DebugContext(ctx, "stock positions decoded",
		slog.String("source", src.Name),
		slog.Int("positions", len(positions)),
		slog.Int("skipped", skipped))
	return positions, nil
}

func (s *AnalysisService) newRun(kind domain.RunKind, start time.Time) *domain.Run {
	return &domain.Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    domain.RunStatusCompleted,
		CreatedAt: start.UTC(),
	}
}

func (s *AnalysisService) register(ctx context.Context, run *domain.Run, start time.Time) *domain.Run {
	run.Duration = time.Since(start)
	s.store.Add(run)

	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()
	if len(listeners) > 0 {
		summary := run.Summary()
		for _, l := range listeners {
			l.RunCompleted(ctx, summary)
		}
	}
	return run
}

// Subscribe registers a listener told about every run the service registers
func (s *AnalysisService) Subscribe(l RunListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// finish closes the run span and records the outcome
func (s *AnalysisService) finish(ctx context.Context, span trace.Span, kind domain.RunKind, start time.Time, err error) {
	duration := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "run failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	} else {
		s.logger.InfoContext(ctx, "run completed",
			slog.String("kind", string(kind)),
			slog.Duration("duration", duration))
	}
	span.End()
	s.metrics.RecordRun(ctx, string(kind), duration, err)
}
