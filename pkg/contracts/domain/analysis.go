package domain

import (
	"encoding/json"
	"math"
)

// VolatilityTier is the presentation tier of a volatility score
type VolatilityTier string

const (
	VolatilityHigh     VolatilityTier = "high"
	VolatilityModerate VolatilityTier = "moderate"
	VolatilityNormal   VolatilityTier = "normal"
)

// VolatilityRecord describes how erratic a part (or part/customer pairing) is week to week.
type VolatilityRecord struct {
	PartID          string  `json:"part_id"`
	CustomerID      string  `json:"customer_id,omitempty"`
	AvgWeeklyQty    float64 `json:"avg_weekly_qty"`
	MaxWeeklyQty    float64 `json:"max_weekly_qty"`
	WeekCount       int     `json:"week_count"` // distinct weeks with data; a confidence signal
	VolatilityScore float64 `json:"volatility_score"`
	Rank            int     `json:"rank"`
}

// GroupKey returns the part|customer grouping key used for tie-breaking
func (v VolatilityRecord) GroupKey() string {
	return CompositeKey(v.PartID, v.CustomerID)
}

// RiskLevel classifies inventory risk
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskNone     RiskLevel = "none"
)

// StockPosition is the current inventory of a part, optionally per customer.
type StockPosition struct {
	PartID       string  `json:"part_id" validate:"required"`
	CustomerID   string  `json:"customer_id,omitempty"`
	CurrentStock float64 `json:"current_stock" validate:"min=0"`
	SafetyStock  float64 `json:"safety_stock" validate:"min=0"`
}

// InventoryRiskRecord is the classified inventory risk of one stock position.
type InventoryRiskRecord struct {
	PartID               string    `json:"part_id"`
	CustomerID           string    `json:"customer_id,omitempty"`
	CurrentStock         float64   `json:"current_stock"`
	SafetyStock          float64   `json:"safety_stock"`
	AvgWeeklyConsumption float64   `json:"avg_weekly_consumption"`
	WeeksOfStock         float64   `json:"weeks_of_stock"` // +Inf when coverage is unbounded
	RiskLevel            RiskLevel `json:"risk_level"`
	RecommendedStock     float64   `json:"recommended_stock"`
	Alerts               []string  `json:"alerts"`
}

// UnboundedCoverage reports whether stock covers consumption indefinitely
func (r InventoryRiskRecord) UnboundedCoverage() bool {
	return math.IsInf(r.WeeksOfStock, 1)
}

// MarshalJSON encodes unbounded coverage as null since JSON has no infinity.
func (r InventoryRiskRecord) MarshalJSON() ([]byte, error) {
	type alias InventoryRiskRecord
	out := struct {
		alias
		WeeksOfStock *float64 `json:"weeks_of_stock"`
	}{alias: alias(r)}
	if !r.UnboundedCoverage() {
		w := r.WeeksOfStock
		out.WeeksOfStock = &w
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON, mapping null coverage back to +Inf.
func (r *InventoryRiskRecord) UnmarshalJSON(data []byte) error {
	type alias InventoryRiskRecord
	in := struct {
		*alias
		WeeksOfStock *float64 `json:"weeks_of_stock"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.WeeksOfStock == nil {
		r.WeeksOfStock = math.Inf(1)
	} else {
		r.WeeksOfStock = *in.WeeksOfStock
	}
	return nil
}

// ForecastSignal is a predicted quantity with its confidence band for one future week.
type ForecastSignal struct {
	PartID         string  `json:"part_id"`
	WeekKey        string  `json:"week_key"`
	PredictedQty   float64 `json:"predicted_qty"`
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
	Confidence     float64 `json:"confidence"` // 0..1
	SeasonalityTag string  `json:"seasonality_tag,omitempty"`
}

// AnomalySignal flags a week whose observed quantity fell outside the expected band.
type AnomalySignal struct {
	PartID         string  `json:"part_id"`
	WeekKey        string  `json:"week_key"`
	ObservedQty    float64 `json:"observed_qty"`
	PredictedQty   float64 `json:"predicted_qty"`
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
	AnomalyScore   float64 `json:"anomaly_score"` // grows with distance outside the band
	SeasonalityTag string  `json:"seasonality_tag,omitempty"`
}

// AnalysisReport bundles the single-source deep analysis outputs of one run.
type AnalysisReport struct {
	BatchID    string                `json:"batch_id"`
	Volatility []VolatilityRecord    `json:"volatility"`
	Risks      []InventoryRiskRecord `json:"risks"`
	Forecasts  []ForecastSignal      `json:"forecasts"`
	Anomalies  []AnomalySignal       `json:"anomalies"`
}
