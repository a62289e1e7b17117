package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

const summarySheet = "Summary"

// WriteWorkbook streams the run as an XLSX workbook: a summary sheet followed
// by one sheet per populated section. Numeric cells stay numeric.
func WriteWorkbook(w io.Writer, run *domain.Run) error {
	if run == nil {
		return fmt.Errorf("nil run")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return err
	}
	if err := writeSummary(f, styles, run); err != nil {
		return err
	}

	for _, t := range runTables(run) {
		if _, err := f.NewSheet(t.sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", t.sheet, err)
		}
		if err := writeTable(f, styles, t); err != nil {
			return fmt.Errorf("write sheet %s: %w", t.sheet, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type workbookStyles struct {
	header int
	qty    int
	ratio  int
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	qtyFormat := "#,##0.00"
	if s.qty, err = f.NewStyle(&excelize.Style{CustomNumFmt: &qtyFormat}); err != nil {
		return s, fmt.Errorf("quantity style: %w", err)
	}
	ratioFormat := "0.0000"
	if s.ratio, err = f.NewStyle(&excelize.Style{CustomNumFmt: &ratioFormat}); err != nil {
		return s, fmt.Errorf("ratio style: %w", err)
	}
	return s, nil
}

func writeTable(f *excelize.File, styles workbookStyles, t table) error {
	header := make([]interface{}, len(t.columns))
	for i, c := range t.columns {
		header[i] = c.name
	}
	if err := f.SetSheetRow(t.sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(t.columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.sheet, "A1", last, styles.header); err != nil {
		return err
	}

	for i, row := range t.rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = workbookValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.sheet, cell, &cells); err != nil {
			return err
		}
	}

	if len(t.rows) == 0 {
		return nil
	}
	for j, c := range t.columns {
		style := 0
		switch c.decimals {
		case qtyDecimals:
			style = styles.qty
		case ratioDecimals:
			style = styles.ratio
		default:
			continue
		}
		top, _ := excelize.CoordinatesToCellName(j+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(j+1, len(t.rows)+1)
		if err := f.SetCellStyle(t.sheet, top, bottom, style); err != nil {
			return err
		}
	}
	return nil
}

// workbookValue keeps finite numbers numeric; Excel has no infinity
func workbookValue(v any) any {
	if x, ok := v.(float64); ok && (math.IsInf(x, 0) || math.IsNaN(x)) {
		return formatFloat(x, 0)
	}
	return v
}

func writeSummary(f *excelize.File, styles workbookStyles, run *domain.Run) error {
	rows := [][]interface{}{
		{"Run", run.ID},
		{"Kind", string(run.Kind)},
		{"Created", run.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST")},
	}
	for _, b := range run.Batches {
		rows = append(rows,
			[]interface{}{"Batch", b.BatchID},
			[]interface{}{"Format", string(b.Format)},
			[]interface{}{"Rows in / out / skipped", fmt.Sprintf("%d / %d / %d", b.InputRows, b.OutputRows, b.SkippedRows)},
			[]interface{}{"Parts / customers", fmt.Sprintf("%d / %d", b.Parts, b.Customers)},
			[]interface{}{"Weeks", b.FirstWeek + " .. " + b.LastWeek},
			[]interface{}{"Total quantity", b.TotalQuantity},
		)
	}
	if t := run.Totals; t != nil {
		rows = append(rows,
			[]interface{}{"Client total", t.ClientQty},
			[]interface{}{"Internal total", t.InternalQty},
			[]interface{}{"Delta", t.Delta},
			[]interface{}{"Delta %", t.DeltaPct},
		)
	}
	if a := run.Analysis; a != nil {
		rows = append(rows,
			[]interface{}{"Volatility groups", len(a.Volatility)},
			[]interface{}{"Risk positions", len(a.Risks)},
			[]interface{}{"Forecast weeks", len(a.Forecasts)},
			[]interface{}{"Anomalies", len(a.Anomalies)},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(1, len(rows))
	return f.SetCellStyle(summarySheet, "A1", last, styles.header)
}
