package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

func TestStockPositions(t *testing.T) {
	rows := []domain.RawRow{
		{"Part Number": "P1", "custId": "VOLK", "currentStock": "50", "safetyStock": "100"},
		{"Part Number": "P2", "custId": "", "onHand": "1,500", "safety": "200"},
		{"Part Number": "", "custId": "VOLK", "currentStock": "1"},
	}

	positions, skipped := StockPositions(rows)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []domain.StockPosition{
		{PartID: "P1", CustomerID: "VOLK", CurrentStock: 50, SafetyStock: 100},
		{PartID: "P2", CurrentStock: 1500, SafetyStock: 200},
	}, positions)
}

func TestStockPositionsEmpty(t *testing.T) {
	positions, skipped := StockPositions(nil)
	assert.Empty(t, positions)
	assert.Zero(t, skipped)
}
