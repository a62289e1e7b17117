package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	batch := &NormalizedBatch{
		BatchID:   "b-1",
		Format:    domain.DetectedFormat{Kind: domain.FormatWeekly},
		InputRows: 3,
		Skipped:   1,
		Rows: []domain.NormalizedRow{
			{CustomerID: "VOLK", PartID: "P1", PeriodKey: "2025-W03", Quantity: 0.1},
			{CustomerID: "VOLK", PartID: "P2", PeriodKey: "2025-W01", Quantity: 0.2},
			{CustomerID: "BMW", PartID: "P1", PeriodKey: "2025-W07", Quantity: 10},
		},
	}

	got := NewSummarizer(nil).Summarize(context.Background(), batch)
	assert.Equal(t, domain.BatchSummary{
		BatchID:       "b-1",
		Format:        domain.FormatWeekly,
		InputRows:     3,
		OutputRows:    3,
		SkippedRows:   1,
		Parts:         2,
		Customers:     2,
		FirstWeek:     "2025-W01",
		LastWeek:      "2025-W07",
		TotalQuantity: 10.3,
	}, got)
}
