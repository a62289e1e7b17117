package exporter

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/config"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

func sampleRun() *domain.Run {
	return &domain.Run{
		ID:        "run-1",
		Kind:      domain.RunKindAnalyze,
		Status:    domain.RunStatusCompleted,
		CreatedAt: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
		Batches: []domain.BatchSummary{
			{BatchID: "client", Format: domain.FormatWeekly, InputRows: 2, OutputRows: 6, Parts: 2, Customers: 2, FirstWeek: "2025-W01", LastWeek: "2025-W03", TotalQuantity: 395},
		},
		Comparison: []domain.ComparisonRow{
			{CustomerID: "VOLK", PartID: "EVP-1001", PeriodKey: "2025-W01", ClientQty: 100, InternalQty: 80, Delta: 20, DeltaPct: 25},
		},
		Totals: &domain.ReconciliationTotals{ClientQty: 100, InternalQty: 80, Delta: 20, DeltaPct: 25, Keys: 1},
		Analysis: &domain.AnalysisReport{
			BatchID: "client",
			Volatility: []domain.VolatilityRecord{
				{PartID: "EVP-2002", CustomerID: "BMW", AvgWeeklyQty: 47.5, MaxWeeklyQty: 55, WeekCount: 2, VolatilityScore: 0.157894, Rank: 1},
			},
			Risks: []domain.InventoryRiskRecord{
				{PartID: "EVP-2002", CustomerID: "BMW", CurrentStock: 500, SafetyStock: 20, WeeksOfStock: math.Inf(1), RiskLevel: domain.RiskNone, RecommendedStock: 20, Alerts: []string{"no recorded consumption"}},
			},
			Forecasts: []domain.ForecastSignal{
				{PartID: "EVP-1001", WeekKey: "2025-W04", PredictedQty: 98.456, Lower: 60, Upper: 136.9, Confidence: 0.8, SeasonalityTag: "seasonal-peak"},
			},
			Anomalies: []domain.AnomalySignal{},
		},
		Tiers: map[string]domain.VolatilityTier{"EVP-2002|BMW": domain.VolatilityNormal},
	}
}

func TestReportWriter_WriteRun(t *testing.T) {
	paths := testPaths(t)
	writer := NewReportWriter(paths, nil)

	files, err := writer.WriteRun(context.Background(), sampleRun(), "run-1")
	require.NoError(t, err)

	require.Len(t, files, 5)
	dir := filepath.Join(paths.ReportsDir, "run-1")
	assert.Equal(t, filepath.Join(dir, config.ComparisonReportFile), files[0])
	assert.Equal(t, filepath.Join(dir, config.AnomalyReportFile), files[4])

	comparison := readCSV(t, files[0])
	require.Len(t, comparison, 3)
	assert.Equal(t, []string{"VOLK", "EVP-1001", "2025-W01", "100.00", "80.00", "20.00", "25.0000"}, comparison[1])
	assert.Equal(t, "TOTAL", comparison[2][0])

	volatility := readCSV(t, files[1])
	assert.Equal(t, []string{"1", "EVP-2002", "BMW", "47.50", "55.00", "2", "0.1579", "normal"}, volatility[1])

	risk := readCSV(t, files[2])
	assert.Equal(t, "inf", risk[1][5])
	assert.Equal(t, "no recorded consumption", risk[1][8])

	forecast := readCSV(t, files[3])
	assert.Equal(t, "98.46", forecast[1][2])

	anomalies := readCSV(t, files[4])
	assert.Len(t, anomalies, 1, "header only")
}

func TestReportWriter_RunFiles(t *testing.T) {
	writer := NewReportWriter(testPaths(t), nil)

	listed, err := writer.RunFiles("run-1")
	require.NoError(t, err)
	assert.Empty(t, listed, "nothing exported yet")

	_, err = writer.WriteRun(context.Background(), sampleRun(), "run-1")
	require.NoError(t, err)

	listed, err = writer.RunFiles("run-1")
	require.NoError(t, err)
	require.Len(t, listed, 5)
	assert.Equal(t, config.AnomalyReportFile, listed[0].Name, "sorted by name")
	for _, f := range listed {
		assert.Positive(t, f.Size)
	}

	for _, id := range []string{"", "../run-1", "a/b"} {
		_, err := writer.RunFiles(id)
		assert.Error(t, err, id)
	}
}

func TestReportWriter_WriteRunCancelled(t *testing.T) {
	writer := NewReportWriter(testPaths(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := writer.WriteRun(ctx, sampleRun(), "run-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleRun()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Comparison", "Volatility", "Inventory Risk", "Forecast", "Anomalies"}, f.GetSheetList())

	id, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)

	header, err := f.GetCellValue("Comparison", "D1")
	require.NoError(t, err)
	assert.Equal(t, "client_qty", header)

	weeks, err := f.GetCellValue("Inventory Risk", "F2")
	require.NoError(t, err)
	assert.Equal(t, "inf", weeks)

	raw, err := f.GetCellValue("Forecast", "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "98.456", raw, "numeric cells keep full precision")
}

func TestReportWriter_WriteWorkbookFile(t *testing.T) {
	paths := testPaths(t)
	writer := NewReportWriter(paths, nil)

	path, err := writer.WriteWorkbookFile(context.Background(), sampleRun(), config.WorkbookReportFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ReportsDir, config.WorkbookReportFile), path)
	assert.FileExists(t, path)
}
