package domain

import (
	"strings"
)

// RawRow is a single decoded spreadsheet row: field name to untyped scalar.
// Field names are kept exactly as they appear in the source sheet.
type RawRow map[string]any

// RowBatch is a batch of decoded rows sharing one header set.
// The ID is carried for provenance only; the engine never interprets it.
type RowBatch struct {
	ID     string   `json:"id" validate:"required"`
	Source string   `json:"source,omitempty"`
	Rows   []RawRow `json:"rows"`
}

// FormatKind classifies the shape of a row batch.
type FormatKind string

const (
	// FormatWeekly has one column per week (WK_01, WK 02, ...)
	FormatWeekly FormatKind = "weekly"
	// FormatMonthly has one column per month (04-2025, 05-2025, ...)
	FormatMonthly FormatKind = "monthly"
	// FormatWeeklyKeyed rows already carry an ISO week in a periodKey field
	FormatWeeklyKeyed FormatKind = "weekly-keyed"
	// FormatUnknown is any shape the detector does not recognize
	FormatUnknown FormatKind = "unknown"
)

// DetectedFormat is derived once per row batch.
type DetectedFormat struct {
	Kind         FormatKind `json:"kind"`
	DeclaredYear int        `json:"declared_year,omitempty"` // 0 when the batch declares no year
	Columns      []string   `json:"columns,omitempty"`       // matched period columns, in period order
}

// HasDeclaredYear reports whether the batch declared its own year
func (f DetectedFormat) HasDeclaredYear() bool {
	return f.DeclaredYear > 0
}

// NormalizedRow is the canonical (customer, part, ISO week, quantity) tuple
// produced regardless of the source spreadsheet shape.
type NormalizedRow struct {
	CustomerID string  `json:"customer_id" validate:"required"`
	PartID     string  `json:"part_id" validate:"required"`
	PeriodKey  string  `json:"period_key" validate:"required"` // ISO week, YYYY-Www
	Quantity   float64 `json:"quantity" validate:"min=0"`
}

// Key returns the composite customer|part|period key
func (r NormalizedRow) Key() string {
	return CompositeKey(r.CustomerID, r.PartID, r.PeriodKey)
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// CompositeKey joins identifiers with the pipe separator used for all keyed maps.
// Backslashes and pipes inside an identifier are escaped, so distinct identifier
// tuples never share a key.
func CompositeKey(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = keyEscaper.Replace(p)
	}
	return strings.Join(escaped, "|")
}

// ComparisonRow holds both sources' quantities for one customer/part/week key.
type ComparisonRow struct {
	CustomerID  string  `json:"customer_id"`
	PartID      string  `json:"part_id"`
	PeriodKey   string  `json:"period_key"`
	ClientQty   float64 `json:"client_qty"`
	InternalQty float64 `json:"internal_qty"`
	Delta       float64 `json:"delta"`     // ClientQty - InternalQty
	DeltaPct    float64 `json:"delta_pct"` // 100 when InternalQty is 0 and ClientQty is not
}

// Key returns the composite customer|part|period key
func (r ComparisonRow) Key() string {
	return CompositeKey(r.CustomerID, r.PartID, r.PeriodKey)
}

// ReconciliationTotals are aggregate quantities over every comparison key.
// They are computed from the summed quantities, never from per-key percentages.
type ReconciliationTotals struct {
	ClientQty   float64 `json:"client_qty"`
	InternalQty float64 `json:"internal_qty"`
	Delta       float64 `json:"delta"`
	DeltaPct    float64 `json:"delta_pct"`
	Keys        int     `json:"keys"`
}

// BatchSummary describes a normalized batch for planners and logs.
type BatchSummary struct {
	BatchID       string     `json:"batch_id"`
	Format        FormatKind `json:"format"`
	InputRows     int        `json:"input_rows"`
	OutputRows    int        `json:"output_rows"`
	SkippedRows   int        `json:"skipped_rows"`
	Parts         int        `json:"parts"`
	Customers     int        `json:"customers"`
	FirstWeek     string     `json:"first_week,omitempty"`
	LastWeek      string     `json:"last_week,omitempty"`
	TotalQuantity float64    `json:"total_quantity"`
}
