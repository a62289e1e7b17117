// Package reconciliation compares client and internal demand on a shared
// customer|part|week key.
package reconciliation

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

var hundred = decimal.NewFromInt(100)

// Result holds the per-key comparison rows and the aggregate totals
type Result struct {
	Rows   []domain.ComparisonRow      `json:"rows"`
	Totals domain.ReconciliationTotals `json:"totals"`
}

// Reconciler merges two normalized sources into comparison rows
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger.With(slog.String("component", "reconciler"))}
}

// accumulator is the fold state for one composite key
type accumulator struct {
	customer, part, period string
	client, internal       decimal.Decimal
}

// Reconcile folds both sources into one keyed accumulator, then derives deltas.
// Every input row lands in exactly one comparison row; rows are sorted by key.
func (r *Reconciler) Reconcile(ctx context.Context, client, internal []domain.NormalizedRow) Result {
	acc := make(map[string]*accumulator, len(client)+len(internal))

	fold := func(rows []domain.NormalizedRow, add func(a *accumulator, q decimal.Decimal)) {
		for _, row := range rows {
			key := row.Key()
			a, ok := acc[key]
			if !ok {
				a = &accumulator{customer: row.CustomerID, part: row.PartID, period: row.PeriodKey}
				acc[key] = a
			}
			add(a, decimal.NewFromFloat(row.Quantity))
		}
	}
	fold(client, func(a *accumulator, q decimal.Decimal) { a.client = a.client.Add(q) })
	fold(internal, func(a *accumulator, q decimal.Decimal) { a.internal = a.internal.Add(q) })

	keys := make([]string, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]domain.ComparisonRow, 0, len(keys))
	totalClient, totalInternal := decimal.Zero, decimal.Zero
	for _, k := range keys {
		a := acc[k]
		totalClient = totalClient.Add(a.client)
		totalInternal = totalInternal.Add(a.internal)
		rows = append(rows, domain.ComparisonRow{
			CustomerID:  a.customer,
			PartID:      a.part,
			PeriodKey:   a.period,
			ClientQty:   a.client.InexactFloat64(),
			InternalQty: a.internal.InexactFloat64(),
			Delta:       a.client.Sub(a.internal).InexactFloat64(),
			DeltaPct:    deltaPercent(a.client, a.internal).InexactFloat64(),
		})
	}

	totals := domain.ReconciliationTotals{
		ClientQty:   totalClient.InexactFloat64(),
		InternalQty: totalInternal.InexactFloat64(),
		Delta:       totalClient.Sub(totalInternal).InexactFloat64(),
		DeltaPct:    deltaPercent(totalClient, totalInternal).InexactFloat64(),
		Keys:        len(rows),
	}

	r.logger.InfoContext(ctx, "reconciliation complete",
		slog.Int("client_rows", len(client)),
		slog.Int("internal_rows", len(internal)),
		slog.Int("keys", totals.Keys),
		slog.Float64("delta_pct", totals.DeltaPct))

	return Result{Rows: rows, Totals: totals}
}

// DeltaPercent is (client-internal)/internal*100. With internal == 0 it is
// 0 when client is also 0 and 100 otherwise, marking entirely new demand.
func DeltaPercent(client, internal float64) float64 {
	return deltaPercent(decimal.NewFromFloat(client), decimal.NewFromFloat(internal)).InexactFloat64()
}

func deltaPercent(client, internal decimal.Decimal) decimal.Decimal {
	if internal.IsZero() {
		if client.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return client.Sub(internal).Div(internal).Mul(hundred)
}
