package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	paths, err := GetPaths(PathsConfig{
		BaseDir:    base,
		DataDir:    "data",
		ReportsDir: abs,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, DefaultUploadsDir), paths.UploadsDir)
	assert.Equal(t, abs, paths.ReportsDir)
	assert.Equal(t, filepath.Join(base, DefaultLogsDir), paths.LogsDir)
	assert.Equal(t, filepath.Join(abs, "x.csv"), paths.GetReportPath("x.csv"))
}

func TestGetPathsDefaultsToExecutableDir(t *testing.T) {
	paths, err := GetPaths(PathsConfig{})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(paths.BaseDir))
	assert.Equal(t, filepath.Join(paths.BaseDir, DefaultDataDir), paths.DataDir)
}

func TestEnsureDirectories(t *testing.T) {
	paths, err := GetPaths(PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.UploadsDir, paths.ReportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestGetUploadPathStripsDirectories(t *testing.T) {
	paths := &Paths{UploadsDir: "/srv/uploads"}
	assert.Equal(t, filepath.Join("/srv/uploads", "client.xlsx"), paths.GetUploadPath("../../etc/client.xlsx"))
}
