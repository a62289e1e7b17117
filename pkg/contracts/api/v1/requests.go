// Package api contains the HTTP API contracts of the demand engine.
// Version v1 represents the current stable API version.
package api

import (
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Multipart form field names accepted by the upload endpoints
const (
	FormFieldFile     = "file"
	FormFieldClient   = "client"
	FormFieldInternal = "internal"
	FormFieldStock    = "stock"
)

// ObservedWeek is an observed actual used to score forecast weeks
type ObservedWeek struct {
	PartID   string  `json:"part_id" validate:"required"`
	WeekKey  string  `json:"week_key" validate:"required,isoweek"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

// AnalyzeRequest runs the deep analysis over already-normalized rows
type AnalyzeRequest struct {
	BatchID  string         `json:"batch_id" validate:"omitempty,max=128"`
	Rows     []AnalyzeRow   `json:"rows" validate:"required,min=1,dive"`
	Stock    []StockInput   `json:"stock,omitempty" validate:"omitempty,dive"`
	Observed []ObservedWeek `json:"observed,omitempty" validate:"omitempty,dive"`
	Horizon  int            `json:"horizon,omitempty" validate:"omitempty,min=1,max=104"`
	GroupBy  string         `json:"group_by,omitempty" validate:"omitempty,oneof=part part-customer"`
}

// AnalyzeRow is one normalized demand row
type AnalyzeRow struct {
	CustomerID string  `json:"customer_id" validate:"required"`
	PartID     string  `json:"part_id" validate:"required"`
	PeriodKey  string  `json:"period_key" validate:"required,isoweek"`
	Quantity   float64 `json:"quantity" validate:"gte=0"`
}

// StockInput is one stock position
type StockInput struct {
	PartID       string  `json:"part_id" validate:"required"`
	CustomerID   string  `json:"customer_id,omitempty"`
	CurrentStock float64 `json:"current_stock" validate:"gte=0"`
	SafetyStock  float64 `json:"safety_stock" validate:"gte=0"`
}

// NormalizedRows converts the request rows to domain rows
func (r *AnalyzeRequest) NormalizedRows() []domain.NormalizedRow {
	rows := make([]domain.NormalizedRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = domain.NormalizedRow{
			CustomerID: row.CustomerID,
			PartID:     row.PartID,
			PeriodKey:  row.PeriodKey,
			Quantity:   row.Quantity,
		}
	}
	return rows
}

// StockPositions converts the request stock to domain positions
func (r *AnalyzeRequest) StockPositions() []domain.StockPosition {
	positions := make([]domain.StockPosition, len(r.Stock))
	for i, s := range r.Stock {
		positions[i] = domain.StockPosition{
			PartID:       s.PartID,
			CustomerID:   s.CustomerID,
			CurrentStock: s.CurrentStock,
			SafetyStock:  s.SafetyStock,
		}
	}
	return positions
}

// ObservedByPart indexes observed actuals as part -> week -> quantity.
// Later entries for the same part and week win.
func (r *AnalyzeRequest) ObservedByPart() map[string]map[string]float64 {
	if len(r.Observed) == 0 {
		return nil
	}
	out := make(map[string]map[string]float64)
	for _, o := range r.Observed {
		weeks, ok := out[o.PartID]
		if !ok {
			weeks = make(map[string]float64)
			out[o.PartID] = weeks
		}
		weeks[o.WeekKey] = o.Quantity
	}
	return out
}
