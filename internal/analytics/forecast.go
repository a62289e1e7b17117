package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/dataprocessing"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

const (
	minIndex = 0.01
	epsilon  = 1e-9

	shortHistoryConfidence = 0.1
)

// Forecaster projects a part's weekly demand with a linear trend and optional
// multiplicative seasonality, and flags observed weeks outside the expected band.
type Forecaster struct {
	cfg    ForecastConfig
	logger *slog.Logger
}

// NewForecaster creates a new forecaster
func NewForecaster(cfg ForecastConfig, logger *slog.Logger) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "forecaster")),
	}
}

// model is a fitted series: fitted(t) = max(0, (intercept + slope*t) * index[t mod L])
type model struct {
	intercept, slope float64
	indices          []float64 // nil when non-seasonal
	sigma            float64
	residualCV       float64
	n                int
}

func (m model) index(t int) float64 {
	if m.indices == nil {
		return 1
	}
	return m.indices[t%len(m.indices)]
}

func (m model) fitted(t int) float64 {
	return (m.intercept + m.slope*float64(t)) * m.index(t)
}

// Forecast produces one signal per future week and an anomaly for every week
// whose observed value falls outside its band. History weeks are checked
// in-sample; observed overrides the recorded history value for the same week.
// The same inputs always produce the same output.
func (f *Forecaster) Forecast(ctx context.Context, partID string, history []WeeklyPoint, horizon int, observed map[string]float64) (ForecastResult, error) {
	if horizon <= 0 {
		return ForecastResult{}, &ValidationError{Field: "horizon", Message: "must be positive", Value: horizon}
	}
	if err := ctx.Err(); err != nil {
		return ForecastResult{}, err
	}

	result := ForecastResult{
		Forecasts: []domain.ForecastSignal{},
		Anomalies: []domain.AnomalySignal{},
	}
	if len(history) == 0 {
		return result, nil
	}

	points := make([]WeeklyPoint, len(history))
	copy(points, history)
	sort.SliceStable(points, func(i, j int) bool { return points[i].WeekKey < points[j].WeekKey })
	lastWeek := points[len(points)-1].WeekKey

	y := make([]float64, len(points))
	for i, p := range points {
		y[i] = p.Quantity
	}

	if len(y) < f.cfg.MinHistoryWeeks {
		return f.flatForecast(ctx, partID, y, lastWeek, horizon, observed, result)
	}

	m := f.fit(y)

	for t, p := range points {
		value := p.Quantity
		if v, ok := observed[p.WeekKey]; ok {
			value = v
		}
		if a, ok := f.check(partID, p.WeekKey, value, m, t, 0); ok {
			result.Anomalies = append(result.Anomalies, a)
		}
	}

	for h := 1; h <= horizon; h++ {
		week, err := dataprocessing.AddWeeks(lastWeek, h)
		if err != nil {
			return ForecastResult{}, err
		}
		t := m.n - 1 + h
		pred, lower, upper, _ := f.band(m, t, h)
		result.Forecasts = append(result.Forecasts, domain.ForecastSignal{
			PartID:         partID,
			WeekKey:        week,
			PredictedQty:   pred,
			Lower:          lower,
			Upper:          upper,
			Confidence:     clamp(1/(1+m.residualCV)*math.Pow(f.cfg.ConfidenceDecay, float64(h)), 0, 1),
			SeasonalityTag: f.tag(m, t),
		})
		if v, ok := observed[week]; ok {
			if a, ok := f.check(partID, week, v, m, t, h); ok {
				result.Anomalies = append(result.Anomalies, a)
			}
		}
	}

	f.logger.DebugContext(ctx, "forecast produced",
		slog.String("part_id", partID),
		slog.Int("history_weeks", m.n),
		slog.Bool("seasonal", m.indices != nil),
		slog.Int("anomalies", len(result.Anomalies)))
	return result, nil
}

// fit estimates trend, seasonality and residual spread
func (f *Forecaster) fit(y []float64) model {
	m := model{n: len(y)}

	deseasonalized := y
	if indices, ok := seasonalIndices(y, f.cfg); ok {
		for p := range indices {
			indices[p] = math.Max(indices[p], minIndex)
		}
		m.indices = indices
		deseasonalized = make([]float64, len(y))
		for t, v := range y {
			deseasonalized[t] = v / m.index(t)
		}
	}
	m.intercept, m.slope = linearTrend(deseasonalized)

	var ss float64
	for t, v := range y {
		r := v - math.Max(0, m.fitted(t))
		ss += r * r
	}
	dof := len(y) - 2
	if dof < 1 {
		dof = len(y)
	}
	m.sigma = math.Sqrt(ss / float64(dof))

	if level := mean(absAll(y)); level > 0 {
		m.residualCV = m.sigma / level
	}
	return m
}

// band returns the prediction and its interval at position t, h weeks past the history.
// The lower bound is clamped at zero; half is the unclamped half-width.
func (f *Forecaster) band(m model, t, h int) (pred, lower, upper, half float64) {
	fv := m.fitted(t)
	pred = math.Max(0, fv)
	s := math.Max(m.sigma, math.Max(f.cfg.MinBandFraction*math.Abs(fv), epsilon))
	half = f.cfg.Z * s * math.Sqrt(1+float64(h)/float64(m.n))
	return pred, math.Max(0, pred-half), pred + half, half
}

func (f *Forecaster) tag(m model, t int) string {
	if m.indices == nil {
		return ""
	}
	return seasonalityTag(m.index(t), f.cfg.SeasonalTagThreshold)
}

// check returns an anomaly when value lies outside the band at t
func (f *Forecaster) check(partID, week string, value float64, m model, t, h int) (domain.AnomalySignal, bool) {
	pred, lower, upper, half := f.band(m, t, h)
	return anomalyFor(partID, week, value, pred, lower, upper, half, f.tag(m, t))
}

// flatForecast handles histories too short to fit a trend: every future week
// gets the historical mean with a wide band and low confidence.
func (f *Forecaster) flatForecast(ctx context.Context, partID string, y []float64, lastWeek string, horizon int, observed map[string]float64, result ForecastResult) (ForecastResult, error) {
	level := mean(y)
	half := f.cfg.Z * math.Max(level, 1)
	lower, upper := math.Max(0, level-half), level+half

	for h := 1; h <= horizon; h++ {
		week, err := dataprocessing.AddWeeks(lastWeek, h)
		if err != nil {
			return ForecastResult{}, err
		}
		result.Forecasts = append(result.Forecasts, domain.ForecastSignal{
			PartID:       partID,
			WeekKey:      week,
			PredictedQty: level,
			Lower:        lower,
			Upper:        upper,
			Confidence:   shortHistoryConfidence,
		})
		if v, ok := observed[week]; ok {
			if a, ok := anomalyFor(partID, week, v, level, lower, upper, half, ""); ok {
				result.Anomalies = append(result.Anomalies, a)
			}
		}
	}

	f.logger.DebugContext(ctx, "short history, flat forecast",
		slog.String("part_id", partID),
		slog.Int("history_weeks", len(y)))
	return result, nil
}

// anomalyFor scores the distance outside [lower, upper] in half-widths
func anomalyFor(partID, week string, value, pred, lower, upper, half float64, tag string) (domain.AnomalySignal, bool) {
	var distance float64
	switch {
	case value < lower:
		distance = lower - value
	case value > upper:
		distance = value - upper
	default:
		return domain.AnomalySignal{}, false
	}
	return domain.AnomalySignal{
		PartID:         partID,
		WeekKey:        week,
		ObservedQty:    value,
		PredictedQty:   pred,
		Lower:          lower,
		Upper:          upper,
		AnomalyScore:   distance / math.Max(half, epsilon),
		SeasonalityTag: tag,
	}, true
}

func absAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}
	return out
}
