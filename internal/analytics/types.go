package analytics

import (
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// GroupBy selects the volatility grouping key
type GroupBy string

const (
	GroupByPart         GroupBy = "part"
	GroupByPartCustomer GroupBy = "part-customer"
)

// Alert messages, in the order they are emitted
const (
	AlertBelowSafetyStock = "below safety stock"
	AlertLowCoverage      = "low coverage"
	AlertOutOfStock       = "out of stock"
	AlertNoConsumption    = "no recorded consumption"
)

// Seasonality tags attached to forecast and anomaly signals
const (
	TagSeasonalPeak   = "seasonal-peak"
	TagSeasonalTrough = "seasonal-trough"
)

// VolatilityThresholds split scores into presentation tiers
type VolatilityThresholds struct {
	High     float64 `json:"high"`
	Moderate float64 `json:"moderate"`
}

// RiskConfig holds the coverage targets used by the risk classifier, in weeks
type RiskConfig struct {
	LowCoverageWeeks float64 `json:"low_coverage_weeks"`
	TargetCoverWeeks float64 `json:"target_cover_weeks"`
}

// ForecastConfig tunes the trend/seasonal forecaster
type ForecastConfig struct {
	Horizon                   int     `json:"horizon"`
	Z                         float64 `json:"z"`
	SeasonLength              int     `json:"season_length"`
	SeasonalityMinCorrelation float64 `json:"seasonality_min_correlation"`
	SeasonalTagThreshold      float64 `json:"seasonal_tag_threshold"`
	ConfidenceDecay           float64 `json:"confidence_decay"`
	MinBandFraction           float64 `json:"min_band_fraction"`
	MinHistoryWeeks           int     `json:"min_history_weeks"`
}

// Config is the full engine configuration
type Config struct {
	Volatility     VolatilityThresholds `json:"volatility"`
	Risk           RiskConfig           `json:"risk"`
	Forecast       ForecastConfig       `json:"forecast"`
	GroupBy        GroupBy              `json:"group_by"`
	MaxConcurrency int                  `json:"max_concurrency"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Volatility: VolatilityThresholds{High: 0.5, Moderate: 0.25},
		Risk:       RiskConfig{LowCoverageWeeks: 4, TargetCoverWeeks: 8},
		Forecast: ForecastConfig{
			Horizon:                   12,
			Z:                         1.96,
			SeasonLength:              4,
			SeasonalityMinCorrelation: 0.5,
			SeasonalTagThreshold:      0.15,
			ConfidenceDecay:           0.97,
			MinBandFraction:           0.05,
			MinHistoryWeeks:           3,
		},
		GroupBy:        GroupByPartCustomer,
		MaxConcurrency: 8,
	}
}

// WeeklyPoint is one week of a single part's history
type WeeklyPoint struct {
	WeekKey  string  `json:"week_key"`
	Quantity float64 `json:"quantity"`
}

// AnalysisInput is one single-source deep analysis request.
// Observed maps part -> ISO week -> observed quantity for weeks being checked.
type AnalysisInput struct {
	BatchID  string
	Rows     []domain.NormalizedRow
	Stock    []domain.StockPosition
	Observed map[string]map[string]float64
	GroupBy  GroupBy // empty means Config.GroupBy
	Horizon  int     // 0 means Config.Forecast.Horizon
}

// ForecastResult holds the signals produced for one part
type ForecastResult struct {
	Forecasts []domain.ForecastSignal
	Anomalies []domain.AnomalySignal
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return ve.Field + ": " + ve.Message
}
