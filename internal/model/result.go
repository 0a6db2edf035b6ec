package model

import (
	"time"

	"github.com/google/uuid"
)

// UnwrapSummary is the per-call statistics block returned by the
// unwrapping tool. Degraded marks summaries produced by the neutral
// fallback when the tool is unavailable, so callers can detect that
// no real unwrap happened.
type UnwrapSummary struct {
	NumIslands    int     `json:"num_islands"`
	FaceIslandIDs []int   `json:"face_island_ids,omitempty"`
	AvgStretch    float64 `json:"avg_stretch"`
	MaxStretch    float64 `json:"max_stretch"`
	Coverage      float64 `json:"coverage"`
	Degraded      bool    `json:"degraded,omitempty"`
}

// NeutralSummary returns the summary used in degraded mode: no islands,
// perfect-isometry stretch, zero coverage.
func NeutralSummary() UnwrapSummary {
	return UnwrapSummary{AvgStretch: 1.0, MaxStretch: 1.0, Coverage: 0.0, Degraded: true}
}

// QualityMetrics holds the computed quality of a mesh/UV pair.
// Stretch values are >= 0 with 1.0 meaning perfect isometry; coverage
// is the covered fraction of the unit UV square; angle distortion is
// the worst per-corner angle error in radians.
type QualityMetrics struct {
	StretchAvg      float64 `json:"avg_stretch"`
	StretchMax      float64 `json:"max_stretch"`
	Coverage        float64 `json:"coverage"`
	AngleDistortion float64 `json:"angle_distortion"`
}

// BatchJobResult records the outcome of one batch job. Err is empty on
// success; a failed job carries its error text and no metrics. Params
// records the parameter set this job actually ran under, which can
// differ from the report-level base when a manifest carries per-row
// overrides.
type BatchJobResult struct {
	ID        string         `json:"id"`
	File      string         `json:"file"`
	Params    UnwrapParams   `json:"params"`
	Vertices  int            `json:"vertices,omitempty"`
	Triangles int            `json:"triangles,omitempty"`
	Islands   int            `json:"islands,omitempty"`
	Elapsed   time.Duration  `json:"elapsed"`
	Metrics   QualityMetrics `json:"metrics"`
	Err       string         `json:"error,omitempty"`
}

// Failed reports whether the job ended in an error.
func (r BatchJobResult) Failed() bool { return r.Err != "" }

// BatchSummary aggregates a full batch run. Mean quality fields are
// computed over successful jobs only.
type BatchSummary struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"success"`
	Failed      int           `json:"failed"`
	TotalTime   time.Duration `json:"total_time"`
	AvgTime     time.Duration `json:"avg_time"`
	AvgStretch  float64       `json:"avg_stretch"`
	AvgCoverage float64       `json:"avg_coverage"`
}

// Summarize derives a BatchSummary from completed job results. An empty
// success set yields zero means rather than a division error.
func Summarize(results []BatchJobResult, totalTime time.Duration) BatchSummary {
	s := BatchSummary{Total: len(results), TotalTime: totalTime}

	var timeSum time.Duration
	var stretchSum, coverageSum float64
	for _, r := range results {
		if r.Failed() {
			s.Failed++
			continue
		}
		s.Succeeded++
		timeSum += r.Elapsed
		stretchSum += r.Metrics.StretchAvg
		coverageSum += r.Metrics.Coverage
	}

	if s.Succeeded > 0 {
		s.AvgTime = timeSum / time.Duration(s.Succeeded)
		s.AvgStretch = stretchSum / float64(s.Succeeded)
		s.AvgCoverage = coverageSum / float64(s.Succeeded)
	}
	return s
}

// BatchReport ties a batch run together for export and persistence.
// Params is the base parameter set of the run; individual jobs may have
// run with per-row overrides, recorded on each BatchJobResult.
type BatchReport struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Params    UnwrapParams     `json:"params"`
	Summary   BatchSummary     `json:"summary"`
	Jobs      []BatchJobResult `json:"files"`
}

// NewBatchReport assembles a report with a fresh identifier.
func NewBatchReport(params UnwrapParams, summary BatchSummary, jobs []BatchJobResult) BatchReport {
	return BatchReport{
		ID:        uuid.New().String()[:8],
		CreatedAt: time.Now(),
		Params:    params,
		Summary:   summary,
		Jobs:      jobs,
	}
}
