package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texelforge/uvwrap/internal/model"
)

func TestSaveLoadParams_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "params.json")

	params := model.UnwrapParams{
		AngleThreshold: 42.5,
		MinIslandFaces: 7,
		PackIslands:    false,
		IslandMargin:   0.1,
	}
	require.NoError(t, SaveParams(path, params))

	loaded, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, params, loaded)
}

func TestLoadParams_MissingFileReturnsDefaults(t *testing.T) {
	loaded, err := LoadParams(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultParams(), loaded)
}

func TestLoadParams_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadParams(path)
	assert.Error(t, err)
}

func TestSaveLoadReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := model.NewBatchReport(model.DefaultParams(),
		model.BatchSummary{Total: 1, Succeeded: 1},
		[]model.BatchJobResult{{ID: "j1", File: "a.obj"}})

	path, err := SaveReport(dir, report)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), report.ID)

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.ID, loaded.ID)
	assert.Equal(t, report.Summary, loaded.Summary)
	require.Len(t, loaded.Jobs, 1)
	assert.Equal(t, "a.obj", loaded.Jobs[0].File)
}

func TestListReports_NewestFirst(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "report_old.json")
	newer := filepath.Join(dir, "report_new.json")
	require.NoError(t, os.WriteFile(older, []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(newer, []byte("{}"), 0644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	paths, err := ListReports(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, newer, paths[0])
	assert.Equal(t, older, paths[1])
}

func TestListReports_MissingDir(t *testing.T) {
	paths, err := ListReports(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestArchive_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup", "archive.json")

	params := model.DefaultParams()
	reports := []model.BatchReport{
		model.NewBatchReport(params, model.BatchSummary{Total: 2}, nil),
	}
	require.NoError(t, ExportArchive(path, params, reports))

	archive, err := ImportArchive(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", archive.Version)
	assert.Equal(t, params, archive.Params)
	require.Len(t, archive.Reports, 1)
	assert.Equal(t, reports[0].ID, archive.Reports[0].ID)
}

func TestImportArchive_MissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"params":{}}`), 0644))

	_, err := ImportArchive(path)
	assert.ErrorContains(t, err, "missing version")
}

func TestDefaultPaths(t *testing.T) {
	assert.Contains(t, DefaultConfigDir(), ".uvwrap")
	assert.Equal(t, filepath.Join(DefaultConfigDir(), "params.json"), DefaultParamsPath())
	assert.Equal(t, filepath.Join(DefaultConfigDir(), "reports"), ReportsDir())
}
