package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/errors"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// minHeaderCells is the number of non-empty cells that marks a header row
const minHeaderCells = 2

// ParseFile decodes a spreadsheet on disk into raw rows
func ParseFile(path, sheet string) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to open %s", filepath.Base(path)), err)
	}
	defer f.Close()

	return ParseWorkbook(f, filepath.Base(path), sheet)
}

// ParseWorkbook decodes an uploaded spreadsheet into raw rows keyed by header.
// name selects the decoder by extension: .csv uses encoding/csv, anything else excelize.
// sheet is optional; without it the first sheet holding a header row is used.
func ParseWorkbook(r io.Reader, name, sheet string) ([]domain.RawRow, error) {
	var (
		grid [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		grid, err = readCSV(r)
	} else {
		grid, err = readSheet(r, sheet)
	}
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to decode %s", name), err)
	}

	return rowsFromGrid(grid), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	grid, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(grid) > 0 && len(grid[0]) > 0 {
		grid[0][0] = strings.TrimPrefix(grid[0][0], "\ufeff")
	}
	return grid, nil
}

func readSheet(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}
	if sheet != "" {
		rows, err := f.GetRows(sheet, raw)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		return rows, nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, raw)
		if err != nil {
			continue
		}
		if headerIndex(rows) >= 0 {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("no sheet with a header row found")
}

// headerIndex is the first row with at least minHeaderCells non-empty cells, or -1
func headerIndex(grid [][]string) int {
	for i, row := range grid {
		filled := 0
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				filled++
			}
		}
		if filled >= minHeaderCells {
			return i
		}
	}
	return -1
}

// rowsFromGrid keys every non-empty row after the header by header name.
// Every row carries every header so field sets are uniform across the batch.
func rowsFromGrid(grid [][]string) []domain.RawRow {
	h := headerIndex(grid)
	if h < 0 {
		return []domain.RawRow{}
	}

	type column struct {
		index int
		name  string
	}
	var columns []column
	seen := make(map[string]bool)
	for i, cell := range grid[h] {
		name := strings.TrimSpace(cell)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		columns = append(columns, column{i, name})
	}

	rows := make([]domain.RawRow, 0, len(grid)-h-1)
	for _, cells := range grid[h+1:] {
		row := make(domain.RawRow, len(columns))
		empty := true
		for _, col := range columns {
			value := ""
			if col.index < len(cells) {
				value = strings.TrimSpace(cells[col.index])
			}
			if value != "" {
				empty = false
			}
			row[col.name] = value
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}
