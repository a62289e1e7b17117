package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/dataprocessing"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Engine runs the single-source deep analysis: volatility ranking, inventory
// risk and per-part forecasting with anomaly detection.
type Engine struct {
	cfg        Config
	ranker     *VolatilityRanker
	classifier *RiskClassifier
	forecaster *Forecaster
	processor  *dataprocessing.SeriesProcessor
	logger     *slog.Logger
}

// NewEngine creates a new analysis engine
func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg:        cfg,
		ranker:     NewVolatilityRanker(cfg.Volatility, cfg.MaxConcurrency, logger),
		classifier: NewRiskClassifier(cfg.Risk, logger),
		forecaster: NewForecaster(cfg.Forecast, logger),
		processor:  dataprocessing.NewSeriesProcessor(),
		logger:     logger.With(slog.String("component", "analysis_engine")),
	}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Tier returns the volatility tier for a score under the engine thresholds
func (e *Engine) Tier(score float64) domain.VolatilityTier {
	return e.ranker.Tier(score)
}

// Analyze runs every analysis over one normalized batch. Volatility and risk
// run alongside forecasting; outputs are sorted so repeated runs are identical.
func (e *Engine) Analyze(ctx context.Context, in AnalysisInput) (*domain.AnalysisReport, error) {
	start := time.Now()

	groupBy := in.GroupBy
	if groupBy == "" {
		groupBy = e.cfg.GroupBy
	}
	if !groupBy.IsValid() {
		return nil, &ValidationError{Field: "group_by", Message: "unsupported grouping", Value: groupBy}
	}
	horizon := in.Horizon
	if horizon == 0 {
		horizon = e.cfg.Forecast.Horizon
	}
	if horizon < 0 {
		return nil, &ValidationError{Field: "horizon", Message: "must be positive", Value: horizon}
	}
	if err := ValidateRows(in.Rows); err != nil {
		return nil, fmt.Errorf("validate rows: %w", err)
	}
	if err := ValidateStock(in.Stock); err != nil {
		return nil, fmt.Errorf("validate stock: %w", err)
	}

	e.logger.InfoContext(ctx, "starting analysis",
		"batch_id", in.BatchID,
		"rows", len(in.Rows),
		"stock_positions", len(in.Stock),
		"group_by", string(groupBy),
		"horizon", horizon,
	)

	report := &domain.AnalysisReport{BatchID: in.BatchID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		volatility, err := e.ranker.Rank(gctx, in.Rows, groupBy)
		if err != nil {
			return fmt.Errorf("rank volatility: %w", err)
		}
		consumption := volatility
		if groupBy == GroupByPartCustomer && hasPartLevelPosition(in.Stock) {
			// part-wide positions consume at the part's own weekly rate
			parts, err := e.ranker.Rank(gctx, in.Rows, GroupByPart)
			if err != nil {
				return fmt.Errorf("rank part volatility: %w", err)
			}
			consumption = append(append(make([]domain.VolatilityRecord, 0, len(volatility)+len(parts)), volatility...), parts...)
		}
		risks, err := e.classifier.ClassifyAll(gctx, in.Stock, consumption)
		if err != nil {
			return fmt.Errorf("classify risk: %w", err)
		}
		report.Volatility, report.Risks = volatility, risks
		return nil
	})
	g.Go(func() error {
		forecasts, anomalies, err := e.forecastParts(gctx, in.Rows, horizon, in.Observed)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		report.Forecasts, report.Anomalies = forecasts, anomalies
		return nil
	})
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "analysis failed", "batch_id", in.BatchID, "error", err)
		return nil, err
	}

	e.logger.InfoContext(ctx, "analysis completed",
		"batch_id", in.BatchID,
		"volatility_groups", len(report.Volatility),
		"risks", len(report.Risks),
		"forecasts", len(report.Forecasts),
		"anomalies", len(report.Anomalies),
		"duration", time.Since(start),
	)
	return report, nil
}

func hasPartLevelPosition(stock []domain.StockPosition) bool {
	for _, pos := range stock {
		if pos.CustomerID == "" {
			return true
		}
	}
	return false
}

// forecastParts forecasts each part on its gap-filled weekly total across customers
func (e *Engine) forecastParts(ctx context.Context, rows []domain.NormalizedRow, horizon int, observed map[string]map[string]float64) ([]domain.ForecastSignal, []domain.AnomalySignal, error) {
	series := e.partSeries(rows)
	parts := make([]string, 0, len(series))
	for part := range series {
		parts = append(parts, part)
	}
	sort.Strings(parts)

	results := make([]ForecastResult, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrency)
	for i, part := range parts {
		g.Go(func() error {
			res, err := e.forecaster.Forecast(gctx, part, series[part], horizon, observed[part])
			if err != nil {
				return fmt.Errorf("part %s: %w", part, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	forecasts := []domain.ForecastSignal{}
	anomalies := []domain.AnomalySignal{}
	for _, res := range results {
		forecasts = append(forecasts, res.Forecasts...)
		anomalies = append(anomalies, res.Anomalies...)
	}
	sort.SliceStable(forecasts, func(i, j int) bool {
		if forecasts[i].PartID != forecasts[j].PartID {
			return forecasts[i].PartID < forecasts[j].PartID
		}
		return forecasts[i].WeekKey < forecasts[j].WeekKey
	})
	sort.SliceStable(anomalies, func(i, j int) bool {
		if anomalies[i].PartID != anomalies[j].PartID {
			return anomalies[i].PartID < anomalies[j].PartID
		}
		return anomalies[i].WeekKey < anomalies[j].WeekKey
	})
	return forecasts, anomalies, nil
}

// partSeries sums rows per part and week, then fills the gaps with zero weeks
func (e *Engine) partSeries(rows []domain.NormalizedRow) map[string][]WeeklyPoint {
	byPart := make([]domain.NormalizedRow, len(rows))
	for i, r := range rows {
		byPart[i] = domain.NormalizedRow{PartID: r.PartID, PeriodKey: r.PeriodKey, Quantity: r.Quantity}
	}

	series := make(map[string][]WeeklyPoint)
	for _, r := range e.processor.FillMissingWeeks(byPart) {
		series[r.PartID] = append(series[r.PartID], WeeklyPoint{WeekKey: r.PeriodKey, Quantity: r.Quantity})
	}
	return series
}
