package domain

import (
	"time"
)

// RunKind identifies which operation produced a run
type RunKind string

const (
	RunKindNormalize RunKind = "normalize"
	RunKindReconcile RunKind = "reconcile"
	RunKindAnalyze   RunKind = "analyze"
)

// RunStatus represents the status of a run
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
)

// Run is one executed operation and everything it produced. Only the fields
// relevant to its kind are populated.
type Run struct {
	ID         string                    `json:"id" validate:"required,uuid"`
	Kind       RunKind                   `json:"kind" validate:"required"`
	Status     RunStatus                 `json:"status"`
	CreatedAt  time.Time                 `json:"created_at"`
	Duration   time.Duration             `json:"duration"`
	Batches    []BatchSummary            `json:"batches,omitempty"`
	Format     *DetectedFormat           `json:"format,omitempty"`
	Normalized []NormalizedRow           `json:"normalized,omitempty"`
	Comparison []ComparisonRow           `json:"comparison,omitempty"`
	Totals     *ReconciliationTotals     `json:"totals,omitempty"`
	Analysis   *AnalysisReport           `json:"analysis,omitempty"`
	Tiers      map[string]VolatilityTier `json:"tiers,omitempty"` // volatility group key -> tier
}

// RunSummary is the listing view of a run
type RunSummary struct {
	ID        string        `json:"id"`
	Kind      RunKind       `json:"kind"`
	Status    RunStatus     `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	Duration  time.Duration `json:"duration"`
	Rows      int           `json:"rows"`
	Anomalies int           `json:"anomalies"`
}

// Summary returns the listing view of the run
func (r *Run) Summary() RunSummary {
	s := RunSummary{
		ID:        r.ID,
		Kind:      r.Kind,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		Duration:  r.Duration,
	}
	switch {
	case r.Comparison != nil:
		s.Rows = len(r.Comparison)
	case r.Normalized != nil:
		s.Rows = len(r.Normalized)
	}
	if r.Analysis != nil {
		s.Anomalies = len(r.Analysis.Anomalies)
		if s.Rows == 0 {
			s.Rows = len(r.Analysis.Volatility)
		}
	}
	return s
}

// TierOf returns the stored tier for a volatility record, normal when unknown
func (r *Run) TierOf(v VolatilityRecord) VolatilityTier {
	if tier, ok := r.Tiers[v.GroupKey()]; ok {
		return tier
	}
	return VolatilityNormal
}
