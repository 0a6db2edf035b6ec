// Package project persists user-facing state between runs: saved
// parameter presets, batch reports, and portable archives of both.
// Everything is plain JSON under the user's config directory.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/texelforge/uvwrap/internal/model"
)

// DefaultConfigDir returns the default directory for application state.
// On all platforms this is ~/.uvwrap/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".uvwrap")
}

// DefaultParamsPath returns the default path for the saved parameter preset.
func DefaultParamsPath() string {
	return filepath.Join(DefaultConfigDir(), "params.json")
}

// ReportsDir returns the directory batch reports are stored in.
func ReportsDir() string {
	return filepath.Join(DefaultConfigDir(), "reports")
}

// SaveParams persists an unwrap parameter preset to the given path as
// JSON. It creates any missing parent directories automatically.
func SaveParams(path string, params model.UnwrapParams) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadParams reads a parameter preset from the given path.
// If the file does not exist, it returns DefaultParams with no error.
func LoadParams(path string) (model.UnwrapParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultParams(), nil
		}
		return model.UnwrapParams{}, err
	}
	var params model.UnwrapParams
	if err := json.Unmarshal(data, &params); err != nil {
		return model.UnwrapParams{}, err
	}
	return params, nil
}

// SaveReport persists a batch report under dir, named by its ID.
// It returns the path the report was written to.
func SaveReport(dir string, report model.BatchReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("report_%s.json", report.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// LoadReport reads a batch report from the given path.
func LoadReport(path string) (model.BatchReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.BatchReport{}, err
	}
	var report model.BatchReport
	if err := json.Unmarshal(data, &report); err != nil {
		return model.BatchReport{}, err
	}
	if report.Jobs == nil {
		report.Jobs = []model.BatchJobResult{}
	}
	return report, nil
}

// ListReports returns the report files under dir, newest first.
// A missing directory yields an empty list, not an error.
func ListReports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	sort.Slice(paths, func(i, j int) bool {
		fi, errI := os.Stat(paths[i])
		fj, errJ := os.Stat(paths[j])
		if errI != nil || errJ != nil {
			return paths[i] > paths[j]
		}
		return fi.ModTime().After(fj.ModTime())
	})
	return paths, nil
}
