package exporter

import (
	"strings"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// column describes one output column; decimals applies to float cells
type column struct {
	name     string
	decimals int
}

// table is one report section, written as a CSV file or a workbook sheet
type table struct {
	sheet   string
	file    string
	columns []column
	rows    [][]any
}

func (t table) headers() []string {
	h := make([]string, len(t.columns))
	for i, c := range t.columns {
		h[i] = c.name
	}
	return h
}

func (t table) records() [][]string {
	records := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatCell(v, t.columns[j].decimals)
		}
		records[i] = rec
	}
	return records
}

func text(name string) column  { return column{name: name} }
func qty(name string) column   { return column{name: name, decimals: qtyDecimals} }
func ratio(name string) column { return column{name: name, decimals: ratioDecimals} }

// runTables returns the sections populated in a run, in report order
func runTables(run *domain.Run) []table {
	var tables []table
	if run.Normalized != nil {
		tables = append(tables, normalizedTable(run.Normalized))
	}
	if run.Comparison != nil {
		tables = append(tables, comparisonTable(run.Comparison, run.Totals))
	}
	if a := run.Analysis; a != nil {
		tables = append(tables,
			volatilityTable(a.Volatility, run.TierOf),
			riskTable(a.Risks),
			forecastTable(a.Forecasts),
			anomalyTable(a.Anomalies),
		)
	}
	return tables
}

func normalizedTable(rows []domain.NormalizedRow) table {
	t := table{
		sheet:   "Normalized",
		file:    config.NormalizedReportFile,
		columns: []column{text("customer_id"), text("part_id"), text("period_key"), qty("quantity")},
	}
	for _, r := range rows {
		t.rows = append(t.rows, []any{r.CustomerID, r.PartID, r.PeriodKey, r.Quantity})
	}
	return t
}

// comparisonTable appends a TOTAL row when totals are present
func comparisonTable(rows []domain.ComparisonRow, totals *domain.ReconciliationTotals) table {
	t := table{
		sheet: "Comparison",
		file:  config.ComparisonReportFile,
		columns: []column{
			text("customer_id"), text("part_id"), text("period_key"),
			qty("client_qty"), qty("internal_qty"), qty("delta"), ratio("delta_pct"),
		},
	}
	for _, r := range rows {
		t.rows = append(t.rows, []any{r.CustomerID, r.PartID, r.PeriodKey, r.ClientQty, r.InternalQty, r.Delta, r.DeltaPct})
	}
	if totals != nil {
		t.rows = append(t.rows, []any{"TOTAL", "", "", totals.ClientQty, totals.InternalQty, totals.Delta, totals.DeltaPct})
	}
	return t
}

func volatilityTable(records []domain.VolatilityRecord, tier func(domain.VolatilityRecord) domain.VolatilityTier) table {
	t := table{
		sheet: "Volatility",
		file:  config.VolatilityReportFile,
		columns: []column{
			text("rank"), text("part_id"), text("customer_id"), qty("avg_weekly_qty"),
			qty("max_weekly_qty"), text("week_count"), ratio("volatility_score"), text("tier"),
		},
	}
	for _, v := range records {
		t.rows = append(t.rows, []any{
			v.Rank, v.PartID, v.CustomerID, v.AvgWeeklyQty,
			v.MaxWeeklyQty, v.WeekCount, v.VolatilityScore, string(tier(v)),
		})
	}
	return t
}

func riskTable(records []domain.InventoryRiskRecord) table {
	t := table{
		sheet: "Inventory Risk",
		file:  config.RiskReportFile,
		columns: []column{
			text("part_id"), text("customer_id"), qty("current_stock"), qty("safety_stock"),
			qty("avg_weekly_consumption"), qty("weeks_of_stock"), text("risk_level"),
			qty("recommended_stock"), text("alerts"),
		},
	}
	for _, r := range records {
		t.rows = append(t.rows, []any{
			r.PartID, r.CustomerID, r.CurrentStock, r.SafetyStock,
			r.AvgWeeklyConsumption, r.WeeksOfStock, string(r.RiskLevel),
			r.RecommendedStock, strings.Join(r.Alerts, "; "),
		})
	}
	return t
}

func forecastTable(signals []domain.ForecastSignal) table {
	t := table{
		sheet: "Forecast",
		file:  config.ForecastReportFile,
		columns: []column{
			text("part_id"), text("week_key"), qty("predicted_qty"), qty("lower"),
			qty("upper"), ratio("confidence"), text("seasonality_tag"),
		},
	}
	for _, s := range signals {
		t.rows = append(t.rows, []any{s.PartID, s.WeekKey, s.PredictedQty, s.Lower, s.Upper, s.Confidence, s.SeasonalityTag})
	}
	return t
}

func anomalyTable(signals []domain.AnomalySignal) table {
	t := table{
		sheet: "Anomalies",
		file:  config.AnomalyReportFile,
		columns: []column{
			text("part_id"), text("week_key"), qty("observed_qty"), qty("predicted_qty"),
			qty("lower"), qty("upper"), ratio("anomaly_score"), text("seasonality_tag"),
		},
	}
	for _, s := range signals {
		t.rows = append(t.rows, []any{
			s.PartID, s.WeekKey, s.ObservedQty, s.PredictedQty,
			s.Lower, s.Upper, s.AnomalyScore, s.SeasonalityTag,
		})
	}
	return t
}
