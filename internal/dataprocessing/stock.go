package dataprocessing

import (
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Stock sheet column aliases in priority order
var (
	CurrentStockAliases = []string{"currentStock", "stock", "onHand", "inventory"}
	SafetyStockAliases  = []string{"safetyStock", "safety", "minStock"}
)

// StockPositions reads stock positions from decoded rows. Rows without a part
// are skipped; the customer is optional. Returns the positions and the skip count.
func StockPositions(rows []domain.RawRow) ([]domain.StockPosition, int) {
	if len(rows) == 0 {
		return []domain.StockPosition{}, 0
	}

	fields := newFieldResolver(rows)
	current := fieldsFor(rows, CurrentStockAliases)
	safety := fieldsFor(rows, SafetyStockAliases)

	positions := make([]domain.StockPosition, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		part, ok := first(row, fields.part)
		if !ok {
			skipped++
			continue
		}
		customer, _ := first(row, fields.customer)
		positions = append(positions, domain.StockPosition{
			PartID:       part,
			CustomerID:   customer,
			CurrentStock: ParseQuantity(firstValue(row, current)),
			SafetyStock:  ParseQuantity(firstValue(row, safety)),
		})
	}
	return positions, skipped
}

func fieldsFor(rows []domain.RawRow, aliases []string) []string {
	return matchFields(fieldNames(rows), aliasIndex(aliases))
}
