package analytics

import (
	"fmt"
	"math"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/dataprocessing"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Validate checks the engine configuration
func (c Config) Validate() error {
	if c.Volatility.High <= 0 || c.Volatility.Moderate <= 0 {
		return &ValidationError{Field: "volatility", Message: "thresholds must be positive", Value: c.Volatility}
	}
	if c.Volatility.High <= c.Volatility.Moderate {
		return &ValidationError{Field: "volatility.high", Message: "must exceed the moderate threshold", Value: c.Volatility.High}
	}
	if c.Risk.LowCoverageWeeks <= 0 {
		return &ValidationError{Field: "risk.low_coverage_weeks", Message: "must be positive", Value: c.Risk.LowCoverageWeeks}
	}
	if c.Risk.TargetCoverWeeks <= 0 {
		return &ValidationError{Field: "risk.target_cover_weeks", Message: "must be positive", Value: c.Risk.TargetCoverWeeks}
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if !c.GroupBy.IsValid() {
		return &ValidationError{Field: "group_by", Message: "unsupported grouping", Value: c.GroupBy}
	}
	if c.MaxConcurrency < 1 {
		return &ValidationError{Field: "max_concurrency", Message: "must be at least 1", Value: c.MaxConcurrency}
	}
	return nil
}

// Validate checks the forecaster configuration
func (f ForecastConfig) Validate() error {
	if f.Horizon <= 0 {
		return &ValidationError{Field: "forecast.horizon", Message: "must be positive", Value: f.Horizon}
	}
	if f.Z <= 0 {
		return &ValidationError{Field: "forecast.z", Message: "must be positive", Value: f.Z}
	}
	if f.SeasonLength < 2 {
		return &ValidationError{Field: "forecast.season_length", Message: "must be at least 2", Value: f.SeasonLength}
	}
	if f.ConfidenceDecay <= 0 || f.ConfidenceDecay > 1 {
		return &ValidationError{Field: "forecast.confidence_decay", Message: "must be in (0, 1]", Value: f.ConfidenceDecay}
	}
	if f.MinBandFraction < 0 {
		return &ValidationError{Field: "forecast.min_band_fraction", Message: "cannot be negative", Value: f.MinBandFraction}
	}
	if f.MinHistoryWeeks < 1 {
		return &ValidationError{Field: "forecast.min_history_weeks", Message: "must be at least 1", Value: f.MinHistoryWeeks}
	}
	return nil
}

// IsValid reports whether g is a supported grouping
func (g GroupBy) IsValid() bool {
	return g == GroupByPart || g == GroupByPartCustomer
}

// ValidateRows checks normalized rows handed in from outside the normalizer
func ValidateRows(rows []domain.NormalizedRow) error {
	for i, r := range rows {
		if r.PartID == "" {
			return &ValidationError{Field: fmt.Sprintf("rows[%d].part_id", i), Message: "is required"}
		}
		if _, _, err := dataprocessing.ParseWeekKey(r.PeriodKey); err != nil {
			return &ValidationError{Field: fmt.Sprintf("rows[%d].period_key", i), Message: "must be an ISO week (YYYY-Www)", Value: r.PeriodKey}
		}
		if math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) || r.Quantity < 0 {
			return &ValidationError{Field: fmt.Sprintf("rows[%d].quantity", i), Message: "must be a finite non-negative number", Value: r.Quantity}
		}
	}
	return nil
}

// ValidateStock checks stock positions
func ValidateStock(positions []domain.StockPosition) error {
	for i, p := range positions {
		if p.PartID == "" {
			return &ValidationError{Field: fmt.Sprintf("stock[%d].part_id", i), Message: "is required"}
		}
		if p.CurrentStock < 0 || p.SafetyStock < 0 || math.IsNaN(p.CurrentStock) || math.IsNaN(p.SafetyStock) {
			return &ValidationError{Field: fmt.Sprintf("stock[%d]", i), Message: "stock levels must be non-negative", Value: p}
		}
	}
	return nil
}
