package dataprocessing

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/tech-visionarieshub/evco-dashboard-sub001/internal/errors"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// buildWorkbook writes a weekly forecast sheet named "Data" after an empty Sheet1.
func buildWorkbook(t *testing.T) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("Data", "A1", &[]interface{}{"Client forecast"}))
	require.NoError(t, f.SetSheetRow("Data", "A3", &[]interface{}{"partNum", "custId", "WK_01", "WK_02"}))
	require.NoError(t, f.SetSheetRow("Data", "A4", &[]interface{}{"EVP-1001", "VOLK", 10, 20}))
	require.NoError(t, f.SetSheetRow("Data", "A6", &[]interface{}{"EVP-2002", "BMW", 7}))
	return f
}

func TestParseWorkbookXLSX(t *testing.T) {
	f := buildWorkbook(t)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ParseWorkbook(bytes.NewReader(buf.Bytes()), "client.xlsx", "")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, domain.RawRow{"partNum": "EVP-1001", "custId": "VOLK", "WK_01": "10", "WK_02": "20"}, rows[0])
	assert.Equal(t, domain.RawRow{"partNum": "EVP-2002", "custId": "BMW", "WK_01": "7", "WK_02": ""}, rows[1])

	// decoded rows feed straight into the normalizer
	normalized, err := newTestNormalizer(2025, "").Normalize(context.Background(), rows, DetectFormat(rows))
	require.NoError(t, err)
	require.Len(t, normalized, 4)
	assert.Equal(t, 20.0, normalized[1].Quantity)
	assert.Equal(t, 0.0, normalized[3].Quantity)
}

func TestParseWorkbookNamedSheet(t *testing.T) {
	f := buildWorkbook(t)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ParseWorkbook(bytes.NewReader(buf.Bytes()), "client.xlsx", "Data")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = ParseWorkbook(bytes.NewReader(buf.Bytes()), "client.xlsx", "Missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	_, err := ParseWorkbook(strings.NewReader("not a zip"), "client.xlsx", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestParseWorkbookCSV(t *testing.T) {
	data := "\ufeffpartNum,custId,periodKey,qty\nP1,C1,2025-W03,\"1,200\"\n,,,\nP2,C1,2025-W04,5\n"

	rows, err := ParseWorkbook(strings.NewReader(data), "internal.CSV", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "P1", rows[0]["partNum"])
	assert.Equal(t, "1,200", rows[0]["qty"])

	normalized, err := newTestNormalizer(2025, "").Normalize(context.Background(), rows, DetectFormat(rows))
	require.NoError(t, err)
	require.Len(t, normalized, 2)
	assert.Equal(t, 1200.0, normalized[0].Quantity)
	assert.Equal(t, "2025-W04", normalized[1].PeriodKey)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.xlsx")
	require.NoError(t, buildWorkbook(t).SaveAs(path))

	rows, err := ParseFile(path, "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestRowsFromGridWithoutHeader(t *testing.T) {
	assert.Empty(t, rowsFromGrid([][]string{{"only"}, {}, {"one"}}))
}
