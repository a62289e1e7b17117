package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

func row(customer, part, week string, qty float64) domain.NormalizedRow {
	return domain.NormalizedRow{CustomerID: customer, PartID: part, PeriodKey: week, Quantity: qty}
}

func TestVolatilityRanker_Rank(t *testing.T) {
	ranker := NewVolatilityRanker(DefaultConfig().Volatility, 4, nil)
	rows := []domain.NormalizedRow{
		row("VOLK", "C-100", "2025-W01", 0),
		row("VOLK", "C-100", "2025-W02", 0),
		row("VOLK", "A-100", "2025-W01", 10),
		row("VOLK", "A-100", "2025-W02", 10),
		row("VOLK", "A-100", "2025-W03", 10),
		row("VOLK", "B-100", "2025-W01", 10),
		row("VOLK", "B-100", "2025-W02", 30),
	}

	records, err := ranker.Rank(context.Background(), rows, GroupByPartCustomer)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "B-100", records[0].PartID)
	assert.InDelta(t, 0.5, records[0].VolatilityScore, 1e-12)
	assert.Equal(t, 20.0, records[0].AvgWeeklyQty)
	assert.Equal(t, 30.0, records[0].MaxWeeklyQty)
	assert.Equal(t, 2, records[0].WeekCount)

	// ties on zero broken by part|customer key
	assert.Equal(t, "A-100", records[1].PartID)
	assert.Equal(t, "C-100", records[2].PartID)
	assert.Equal(t, 0.0, records[1].VolatilityScore)
	assert.Equal(t, 0.0, records[2].VolatilityScore)

	for i, r := range records {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestVolatilityRanker_SumsSameWeek(t *testing.T) {
	ranker := NewVolatilityRanker(DefaultConfig().Volatility, 1, nil)
	rows := []domain.NormalizedRow{
		row("VOLK", "P1", "2025-W01", 5),
		row("VOLK", "P1", "2025-W01", 5),
		row("VOLK", "P1", "2025-W02", 10),
	}

	records, err := ranker.Rank(context.Background(), rows, GroupByPartCustomer)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].WeekCount)
	assert.Equal(t, 0.0, records[0].VolatilityScore)
}

func TestVolatilityRanker_GroupByPart(t *testing.T) {
	ranker := NewVolatilityRanker(DefaultConfig().Volatility, 2, nil)
	rows := []domain.NormalizedRow{
		row("VOLK", "P1", "2025-W01", 10),
		row("AUDI", "P1", "2025-W01", 30),
		row("VOLK", "P1", "2025-W02", 40),
	}

	records, err := ranker.Rank(context.Background(), rows, GroupByPart)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].CustomerID)
	assert.Equal(t, 40.0, records[0].AvgWeeklyQty)
	assert.Equal(t, 0.0, records[0].VolatilityScore)
}

func TestVolatilityRanker_Cancelled(t *testing.T) {
	ranker := NewVolatilityRanker(DefaultConfig().Volatility, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ranker.Rank(ctx, []domain.NormalizedRow{row("VOLK", "P1", "2025-W01", 1)}, GroupByPart)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyTier(t *testing.T) {
	thresholds := VolatilityThresholds{High: 0.5, Moderate: 0.25}
	tests := []struct {
		score    float64
		expected domain.VolatilityTier
	}{
		{0.9, domain.VolatilityHigh},
		{0.5, domain.VolatilityModerate},
		{0.3, domain.VolatilityModerate},
		{0.25, domain.VolatilityNormal},
		{0, domain.VolatilityNormal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyTier(tt.score, thresholds), "score %v", tt.score)
	}
}
