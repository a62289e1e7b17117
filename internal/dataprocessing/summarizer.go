package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Summarizer describes normalized batches for planners and logs
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a new summarizer
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger.With(slog.String("component", "summarizer"))}
}

// Summarize counts distinct parts and customers, the week span and the exact total quantity
func (s *Summarizer) Summarize(ctx context.Context, batch *NormalizedBatch) domain.BatchSummary {
	summary := domain.BatchSummary{
		BatchID:     batch.BatchID,
		Format:      batch.Format.Kind,
		InputRows:   batch.InputRows,
		OutputRows:  len(batch.Rows),
		SkippedRows: batch.Skipped,
	}

	parts := make(map[string]struct{})
	customers := make(map[string]struct{})
	total := decimal.Zero
	for _, r := range batch.Rows {
		parts[r.PartID] = struct{}{}
		customers[r.CustomerID] = struct{}{}
		total = total.Add(decimal.NewFromFloat(r.Quantity))

		if summary.FirstWeek == "" || r.PeriodKey < summary.FirstWeek {
			summary.FirstWeek = r.PeriodKey
		}
		if r.PeriodKey > summary.LastWeek {
			summary.LastWeek = r.PeriodKey
		}
	}
	summary.Parts = len(parts)
	summary.Customers = len(customers)
	summary.TotalQuantity = total.InexactFloat64()

	s.logger.DebugContext(ctx, "batch summarized",
		slog.String("batch_id", summary.BatchID),
		slog.Int("parts", summary.Parts),
		slog.Int("customers", summary.Customers),
		slog.String("first_week", summary.FirstWeek),
		slog.String("last_week", summary.LastWeek))

	return summary
}
