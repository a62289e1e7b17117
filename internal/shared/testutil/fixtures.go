package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Sheet is a header row plus data rows as they would appear in a spreadsheet
type Sheet struct {
	Header []string
	Rows   [][]any
}

// WeeklyClientSheet is a client forecast in the weekly-column layout
func WeeklyClientSheet() Sheet {
	return Sheet{
		Header: []string{"Part Number", "Customer", "WK_01", "WK_02", "WK_03"},
		Rows: [][]any{
			{"EVP-1001", "VOLK", 100, 120, 80},
			{"EVP-2002", "BMW", 40, 0, 55},
		},
	}
}

// WeeklyInternalSheet is the internal forecast matching WeeklyClientSheet's keys
func WeeklyInternalSheet() Sheet {
	return Sheet{
		Header: []string{"partNum", "custId", "WK 01", "WK 02", "WK 03"},
		Rows: [][]any{
			{"EVP-1001", "VOLK", 80, 120, 90},
			{"EVP-2002", "BMW", 40, 10, 55},
		},
	}
}

// MonthlySheet is a client forecast in the month-column layout for 2025
func MonthlySheet() Sheet {
	return Sheet{
		Header: []string{"Part", "Client", "04-2025", "05-2025"},
		Rows: [][]any{
			{"EVP-1001", "VOLK", 300, 310},
		},
	}
}

// StockSheet is a stock position listing
func StockSheet() Sheet {
	return Sheet{
		Header: []string{"Part Number", "Customer", "Current Stock", "Safety Stock"},
		Rows: [][]any{
			{"EVP-1001", "VOLK", 50, 100},
			{"EVP-2002", "BMW", 500, 20},
		},
	}
}

// RawRows converts a sheet to the decoded row form, keyed by header
func (s Sheet) RawRows() []domain.RawRow {
	rows := make([]domain.RawRow, 0, len(s.Rows))
	for _, values := range s.Rows {
		row := make(domain.RawRow, len(s.Header))
		for i, h := range s.Header {
			if i < len(values) {
				row[h] = values[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteXLSX saves the sheet as a single-sheet workbook under dir and returns its path
func WriteXLSX(t *testing.T, dir, name string, s Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, values := range s.Rows {
		row := append([]interface{}(nil), values...)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSV saves the sheet as CSV under dir and returns its path
func WriteCSV(t *testing.T, dir, name string, s Sheet) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.Write(s.Header))
	for _, values := range s.Rows {
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = fmt.Sprint(v)
		}
		require.NoError(t, w.Write(record))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

// WeeklySeries builds consecutive weekly rows for one customer and part
// starting at year-Wfirst. The series must not cross into the next year.
func WeeklySeries(customer, part string, year, first int, quantities ...float64) []domain.NormalizedRow {
	rows := make([]domain.NormalizedRow, len(quantities))
	for i, q := range quantities {
		rows[i] = domain.NormalizedRow{
			CustomerID: customer,
			PartID:     part,
			PeriodKey:  fmt.Sprintf("%04d-W%02d", year, first+i),
			Quantity:   q,
		}
	}
	return rows
}
