package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateUpload(t *testing.T) {
	v := NewFileValidator(1024, nil)

	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{name: "xlsx", filename: "forecast.xlsx", size: 100},
		{name: "upper case extension", filename: "FORECAST.XLSX", size: 100},
		{name: "csv", filename: "internal.csv", size: 100},
		{name: "macro workbook", filename: "plan.xlsm", size: 100},
		{name: "legacy xls", filename: "old.xls", size: 100, wantErr: ErrUnsupportedExtension},
		{name: "no extension", filename: "forecast", size: 100, wantErr: ErrUnsupportedExtension},
		{name: "lock file", filename: "~$forecast.xlsx", size: 100, wantErr: ErrTemporaryFile},
		{name: "empty", filename: "forecast.xlsx", size: 0, wantErr: ErrEmptyFile},
		{name: "too large", filename: "forecast.xlsx", size: 2048, wantErr: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.filename, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFileValidator_NoSizeLimit(t *testing.T) {
	v := NewFileValidator(0, nil)
	assert.NoError(t, v.ValidateUpload("big.csv", 1<<40))
}

func TestFileValidator_ValidateWorkbookFile(t *testing.T) {
	v := NewFileValidator(0, nil)
	dir := t.TempDir()

	good := filepath.Join(dir, "client.csv")
	require.NoError(t, os.WriteFile(good, []byte("partNum,custId\n"), 0o644))
	assert.NoError(t, v.ValidateWorkbookFile(good))

	wrongExt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(wrongExt, []byte("hello"), 0o644))
	assert.ErrorIs(t, v.ValidateWorkbookFile(wrongExt), ErrUnsupportedExtension)

	empty := filepath.Join(dir, "empty.xlsx")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.ErrorIs(t, v.ValidateWorkbookFile(empty), ErrEmptyFile)

	err := v.ValidateWorkbookFile(filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = v.ValidateWorkbookFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(0, nil)

	nested := filepath.Join(t.TempDir(), "reports", "2025")
	require.NoError(t, v.ValidateOutputDirectory(nested))

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(nested)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe must be removed")
}
