package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/texelforge/uvwrap/internal/model"
)

// ExportXLSX writes a batch report as an Excel workbook: one row per
// job plus a trailing summary block.
func ExportXLSX(path string, report model.BatchReport) error {
	if len(report.Jobs) == 0 {
		return fmt.Errorf("no jobs to export")
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"ID", "File", "Vertices", "Triangles", "Islands",
		"Avg Stretch", "Max Stretch", "Coverage", "Angle Distortion", "Elapsed (ms)", "Error"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, job := range report.Jobs {
		row := r + 2
		values := []interface{}{
			job.ID,
			job.File,
			job.Vertices,
			job.Triangles,
			job.Islands,
			job.Metrics.StretchAvg,
			job.Metrics.StretchMax,
			job.Metrics.Coverage,
			job.Metrics.AngleDistortion,
			float64(job.Elapsed.Microseconds()) / 1000.0,
			job.Err,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	s := report.Summary
	summaryRow := len(report.Jobs) + 3
	summary := [][2]interface{}{
		{"Report", report.ID},
		{"Created", report.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Total jobs", s.Total},
		{"Succeeded", s.Succeeded},
		{"Failed", s.Failed},
		{"Mean stretch", s.AvgStretch},
		{"Mean coverage", s.AvgCoverage},
		{"Wall time (ms)", float64(s.TotalTime.Microseconds()) / 1000.0},
	}
	for i, kv := range summary {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+i), kv[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+i), kv[1]); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
