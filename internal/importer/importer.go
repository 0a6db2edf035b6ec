// Package importer reads batch manifests: lists of mesh files with
// optional per-file unwrap parameter overrides. CSV manifests get
// automatic delimiter detection and case-insensitive header matching;
// XLSX manifests are read through excelize.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/texelforge/uvwrap/internal/model"
)

// ManifestEntry is one row of a batch manifest: a mesh file plus the
// parameters to unwrap it with (the base parameters with any per-row
// overrides applied).
type ManifestEntry struct {
	File   string
	Params model.UnwrapParams
}

// ImportResult holds the entries plus any per-row problems. Errors stop
// nothing: every readable row still imports.
type ImportResult struct {
	Entries  []ManifestEntry
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
// -1 marks an absent column.
type ColumnMapping struct {
	File     int
	Angle    int
	MinFaces int
	Pack     int
	Margin   int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"file":      {"file", "path", "mesh", "filename", "input", "obj"},
	"angle":     {"angle", "angle_threshold", "angle threshold", "threshold"},
	"min_faces": {"min_faces", "min_island_faces", "min island faces", "min faces", "island faces"},
	"pack":      {"pack", "pack_islands", "pack islands", "packing"},
	"margin":    {"margin", "island_margin", "island margin", "spacing"},
}

// DetectCSVDelimiter determines the most likely CSV delimiter by trying
// comma, semicolon, tab, and pipe; the one producing the most consistent
// multi-column row shape wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping. It
// matches case-insensitively against known aliases. When no file column
// is recognized the first column is assumed positional and false is
// returned.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{File: -1, Angle: -1, MinFaces: -1, Pack: -1, Margin: -1}

	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		for canonical, aliases := range headerAliases {
			for _, alias := range aliases {
				if name != alias {
					continue
				}
				switch canonical {
				case "file":
					mapping.File = i
				case "angle":
					mapping.Angle = i
				case "min_faces":
					mapping.MinFaces = i
				case "pack":
					mapping.Pack = i
				case "margin":
					mapping.Margin = i
				}
			}
		}
	}

	if mapping.File >= 0 {
		return mapping, true
	}
	return ColumnMapping{File: 0, Angle: -1, MinFaces: -1, Pack: -1, Margin: -1}, false
}

// ImportManifestCSV reads a CSV manifest. base supplies the parameters
// for columns a row leaves empty or the manifest omits entirely.
func ImportManifestCSV(path string, base model.UnwrapParams) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read manifest: %v", err))
		return result
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = DetectCSVDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse CSV: %v", err))
		return result
	}

	return importFromRows(rows, base)
}

// ImportManifestXLSX reads the first sheet of an Excel manifest.
func ImportManifestXLSX(path string, base model.UnwrapParams) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(rows, base)
}

// importFromRows is the shared import logic for CSV and Excel data.
func importFromRows(rows [][]string, base model.UnwrapParams) ImportResult {
	result := ImportResult{}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Manifest is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	start := 0
	if hasHeader {
		start = 1
	}

	for rowNum := start; rowNum < len(rows); rowNum++ {
		row := rows[rowNum]
		if len(row) == 0 || mapping.File >= len(row) {
			continue
		}

		file := strings.TrimSpace(row[mapping.File])
		if file == "" {
			continue
		}

		params := base
		if v, ok := cellFloat(row, mapping.Angle); ok {
			params.AngleThreshold = v
		} else if mapping.Angle >= 0 && cellPresent(row, mapping.Angle) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Row %d: bad angle value, using default", rowNum+1))
		}
		if v, ok := cellInt(row, mapping.MinFaces); ok {
			if v < 0 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Row %d: negative min faces, using default", rowNum+1))
			} else {
				params.MinIslandFaces = v
			}
		}
		if v, ok := cellBool(row, mapping.Pack); ok {
			params.PackIslands = v
		}
		if v, ok := cellFloat(row, mapping.Margin); ok && v >= 0 {
			params.IslandMargin = v
		}

		result.Entries = append(result.Entries, ManifestEntry{File: file, Params: params})
	}

	if len(result.Entries) == 0 {
		result.Errors = append(result.Errors, "No mesh files found in manifest")
	}
	return result
}

func cellPresent(row []string, idx int) bool {
	return idx >= 0 && idx < len(row) && strings.TrimSpace(row[idx]) != ""
}

func cellFloat(row []string, idx int) (float64, bool) {
	if !cellPresent(row, idx) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func cellInt(row []string, idx int) (int, bool) {
	if !cellPresent(row, idx) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(row[idx]))
	if err != nil {
		return 0, false
	}
	return v, true
}

func cellBool(row []string, idx int) (bool, bool) {
	if !cellPresent(row, idx) {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(row[idx])) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}
