package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// RiskClassifier turns stock positions and consumption rates into risk records
type RiskClassifier struct {
	cfg    RiskConfig
	logger *slog.Logger
}

// NewRiskClassifier creates a new classifier
func NewRiskClassifier(cfg RiskConfig, logger *slog.Logger) *RiskClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskClassifier{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "risk_classifier")),
	}
}

// Classify evaluates one stock position against its average weekly consumption.
//
// Stock below safety is critical regardless of consumption. Otherwise coverage
// under LowCoverageWeeks is high. Zero consumption gives unbounded coverage,
// except when the stock is also zero.
func (c *RiskClassifier) Classify(pos domain.StockPosition, avgWeeklyConsumption float64) domain.InventoryRiskRecord {
	consumption := avgWeeklyConsumption
	if math.IsNaN(consumption) || consumption < 0 {
		consumption = 0
	}

	var weeksOfStock float64
	switch {
	case consumption > 0:
		weeksOfStock = pos.CurrentStock / consumption
	case pos.CurrentStock == 0:
		weeksOfStock = 0
	default:
		weeksOfStock = math.Inf(1)
	}
	lowCoverage := consumption > 0 && weeksOfStock < c.cfg.LowCoverageWeeks

	level := domain.RiskNone
	switch {
	case pos.CurrentStock < pos.SafetyStock:
		level = domain.RiskCritical
	case lowCoverage:
		level = domain.RiskHigh
	}

	alerts := []string{}
	if level == domain.RiskCritical {
		alerts = append(alerts, AlertBelowSafetyStock)
	}
	if lowCoverage {
		alerts = append(alerts, AlertLowCoverage)
	}
	if pos.CurrentStock == 0 {
		alerts = append(alerts, AlertOutOfStock)
	}
	if consumption == 0 && pos.CurrentStock > 0 {
		alerts = append(alerts, AlertNoConsumption)
	}

	return domain.InventoryRiskRecord{
		PartID:               pos.PartID,
		CustomerID:           pos.CustomerID,
		CurrentStock:         pos.CurrentStock,
		SafetyStock:          pos.SafetyStock,
		AvgWeeklyConsumption: consumption,
		WeeksOfStock:         weeksOfStock,
		RiskLevel:            level,
		RecommendedStock:     ceil2(math.Max(pos.SafetyStock, consumption*c.cfg.TargetCoverWeeks)),
		Alerts:               alerts,
	}
}

// ClassifyAll classifies every position, taking consumption from the volatility
// records. A position matches its exact part|customer record first, then a
// part-level record, then (when it names no customer) the sum over the part's
// customers. That sum overstates the rate when customers ordered in different
// weeks, so callers holding per-customer records should also pass part-level
// ones. Unmatched positions consume nothing. Output is sorted by part, customer.
func (c *RiskClassifier) ClassifyAll(ctx context.Context, positions []domain.StockPosition, volatility []domain.VolatilityRecord) ([]domain.InventoryRiskRecord, error) {
	exact := make(map[string]float64, len(volatility))
	perPart := make(map[string]float64)
	for _, v := range volatility {
		exact[v.GroupKey()] = v.AvgWeeklyQty
		perPart[v.PartID] += v.AvgWeeklyQty
	}

	records := make([]domain.InventoryRiskRecord, 0, len(positions))
	for _, pos := range positions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		consumption, ok := exact[domain.CompositeKey(pos.PartID, pos.CustomerID)]
		if !ok {
			consumption, ok = exact[domain.CompositeKey(pos.PartID, "")]
		}
		if !ok && pos.CustomerID == "" {
			consumption = perPart[pos.PartID]
		}
		records = append(records, c.Classify(pos, consumption))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].PartID != records[j].PartID {
			return records[i].PartID < records[j].PartID
		}
		return records[i].CustomerID < records[j].CustomerID
	})

	critical := 0
	for _, r := range records {
		if r.RiskLevel == domain.RiskCritical {
			critical++
		}
	}
	c.logger.DebugContext(ctx, "inventory risk classified",
		slog.Int("positions", len(records)),
		slog.Int("critical", critical))
	return records, nil
}
