package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/texelforge/uvwrap/internal/model"
)

// ArchiveData is the top-level structure for import/export of all saved
// state: the parameter preset plus every stored batch report.
type ArchiveData struct {
	Version   string              `json:"version"`
	CreatedAt string              `json:"created_at"`
	Params    model.UnwrapParams  `json:"params"`
	Reports   []model.BatchReport `json:"reports"`
}

// ExportArchive bundles a parameter preset and a set of reports into a
// single JSON file at the specified path.
func ExportArchive(exportPath string, params model.UnwrapParams, reports []model.BatchReport) error {
	archive := ArchiveData{
		Version:   "1.0.0",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Params:    params,
		Reports:   reports,
	}
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	return nil
}

// ImportArchive reads an archive JSON file and returns the contained
// data. The caller decides what to apply.
func ImportArchive(importPath string) (ArchiveData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return ArchiveData{}, fmt.Errorf("failed to read archive file: %w", err)
	}
	var archive ArchiveData
	if err := json.Unmarshal(data, &archive); err != nil {
		return ArchiveData{}, fmt.Errorf("failed to parse archive file: %w", err)
	}
	if archive.Version == "" {
		return ArchiveData{}, fmt.Errorf("invalid archive file: missing version field")
	}
	if archive.Reports == nil {
		archive.Reports = []model.BatchReport{}
	}
	return archive, nil
}
