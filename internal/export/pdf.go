// Package export writes batch reports to shareable file formats: PDF
// with QR-coded job records, XLSX workbooks, and DXF wireframes of UV
// layouts.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/texelforge/uvwrap/internal/model"
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	lineHeight   = 6.0
	qrSize       = 28.0
	barWidth     = 80.0
	barHeight    = 4.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// jobQR is the payload encoded into each job's QR code.
type jobQR struct {
	Report  string  `json:"report"`
	File    string  `json:"file"`
	Angle   float64 `json:"angle_threshold"`
	Faces   int     `json:"min_island_faces"`
	Stretch float64 `json:"avg_stretch"`
	Cover   float64 `json:"coverage"`
	Error   string  `json:"error,omitempty"`
}

// ExportPDF writes a batch report as a PDF: a summary page followed by
// one page per job with its metrics, a coverage bar, and a QR code
// encoding the job record for downstream traceability.
func ExportPDF(path string, report model.BatchReport) error {
	if len(report.Jobs) == 0 {
		return fmt.Errorf("no jobs to export")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, marginTop)

	pdf.AddPage()
	renderSummaryPage(pdf, report)

	for i, job := range report.Jobs {
		pdf.AddPage()
		if err := renderJobPage(pdf, report, job, i+1); err != nil {
			return err
		}
	}

	return pdf.OutputFileAndClose(path)
}

func renderSummaryPage(pdf *fpdf.Fpdf, report model.BatchReport) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 10, "UV Unwrap Batch Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(marginLeft)
	pdf.CellFormat(contentWidth, lineHeight,
		fmt.Sprintf("Report %s — %s", report.ID, report.CreatedAt.Format("2006-01-02 15:04")),
		"", 1, "L", false, 0, "")

	s := report.Summary
	rows := []string{
		fmt.Sprintf("Jobs: %d total, %d succeeded, %d failed", s.Total, s.Succeeded, s.Failed),
		fmt.Sprintf("Wall time: %s (avg %s per job)", s.TotalTime.Round(time.Millisecond), s.AvgTime.Round(time.Millisecond)),
		fmt.Sprintf("Mean stretch: %.3f", s.AvgStretch),
		fmt.Sprintf("Mean coverage: %.1f%%", s.AvgCoverage*100),
		fmt.Sprintf("Params: angle %.1f°, min faces %d, pack=%v, margin %.3f",
			report.Params.AngleThreshold, report.Params.MinIslandFaces,
			report.Params.PackIslands, report.Params.IslandMargin),
	}
	pdf.Ln(4)
	for _, row := range rows {
		pdf.SetX(marginLeft)
		pdf.CellFormat(contentWidth, lineHeight, row, "", 1, "L", false, 0, "")
	}

	// Job index table
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetX(marginLeft)
	pdf.CellFormat(70, lineHeight, "File", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, lineHeight, "Stretch", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, lineHeight, "Max", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, lineHeight, "Coverage", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, lineHeight, "Status", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, job := range report.Jobs {
		pdf.SetX(marginLeft)
		pdf.CellFormat(70, lineHeight, job.File, "", 0, "L", false, 0, "")
		if job.Failed() {
			pdf.CellFormat(75, lineHeight, "", "", 0, "R", false, 0, "")
			pdf.SetTextColor(200, 30, 30)
			pdf.CellFormat(35, lineHeight, "failed", "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			continue
		}
		pdf.CellFormat(25, lineHeight, fmt.Sprintf("%.3f", job.Metrics.StretchAvg), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, lineHeight, fmt.Sprintf("%.3f", job.Metrics.StretchMax), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, lineHeight, fmt.Sprintf("%.1f%%", job.Metrics.Coverage*100), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, lineHeight, "ok", "", 1, "L", false, 0, "")
	}
}

func renderJobPage(pdf *fpdf.Fpdf, report model.BatchReport, job model.BatchJobResult, num int) error {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Job %d: %s", num, job.File), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if job.Failed() {
		pdf.SetTextColor(200, 30, 30)
		pdf.SetX(marginLeft)
		pdf.CellFormat(contentWidth, lineHeight, "FAILED: "+job.Err, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	} else {
		rows := []string{
			fmt.Sprintf("Vertices: %d   Triangles: %d   Islands: %d", job.Vertices, job.Triangles, job.Islands),
			fmt.Sprintf("Stretch: %.3f avg, %.3f max", job.Metrics.StretchAvg, job.Metrics.StretchMax),
			fmt.Sprintf("Angle distortion: %.4f rad", job.Metrics.AngleDistortion),
			fmt.Sprintf("Elapsed: %s", job.Elapsed.Round(time.Millisecond)),
		}
		for _, row := range rows {
			pdf.SetX(marginLeft)
			pdf.CellFormat(contentWidth, lineHeight, row, "", 1, "L", false, 0, "")
		}

		// Coverage bar: filled portion over the unit texture budget.
		pdf.SetX(marginLeft)
		pdf.CellFormat(contentWidth, lineHeight, fmt.Sprintf("Coverage: %.1f%%", job.Metrics.Coverage*100), "", 1, "L", false, 0, "")
		y := pdf.GetY() + 1
		pdf.SetDrawColor(100, 100, 100)
		pdf.SetLineWidth(0.3)
		pdf.Rect(marginLeft, y, barWidth, barHeight, "D")
		pdf.SetFillColor(76, 175, 80)
		pdf.Rect(marginLeft, y, barWidth*clamp01(job.Metrics.Coverage), barHeight, "F")
		pdf.SetY(y + barHeight + 4)
	}

	// QR code with the job record.
	payload := jobQR{
		Report:  report.ID,
		File:    job.File,
		Angle:   report.Params.AngleThreshold,
		Faces:   report.Params.MinIslandFaces,
		Stretch: job.Metrics.StretchAvg,
		Cover:   job.Metrics.Coverage,
		Error:   job.Err,
	}
	qrData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", report.ID, num)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, pageWidth-marginRight-qrSize, marginTop, qrSize, qrSize, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
