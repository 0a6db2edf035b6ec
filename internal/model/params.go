package model

import "fmt"

// UnwrapParams are the control parameters handed to the external
// unwrapping tool. Values are immutable once constructed.
type UnwrapParams struct {
	AngleThreshold float64 `json:"angle_threshold" yaml:"angle_threshold"` // degrees, chart boundary cutoff
	MinIslandFaces int     `json:"min_island_faces" yaml:"min_island_faces"`
	PackIslands    bool    `json:"pack_islands" yaml:"pack_islands"`
	IslandMargin   float64 `json:"island_margin" yaml:"island_margin"` // UV-space spacing between packed islands
}

// DefaultParams returns the unwrapper defaults.
func DefaultParams() UnwrapParams {
	return UnwrapParams{
		AngleThreshold: 30.0,
		MinIslandFaces: 10,
		PackIslands:    true,
		IslandMargin:   0.02,
	}
}

// TargetMetric selects which quality metric an optimization run scores on.
type TargetMetric string

const (
	TargetStretch    TargetMetric = "stretch"
	TargetMaxStretch TargetMetric = "max_stretch"
	TargetCoverage   TargetMetric = "coverage"
)

// LowerIsBetter reports the comparison direction for the metric.
// Stretch values approach 1.0 from above for good mappings, so lower
// wins; coverage is a fill fraction, so higher wins.
func (t TargetMetric) LowerIsBetter() bool {
	return t != TargetCoverage
}

// ParseTargetMetric converts a user-supplied metric name.
func ParseTargetMetric(s string) (TargetMetric, error) {
	switch TargetMetric(s) {
	case TargetStretch, TargetMaxStretch, TargetCoverage:
		return TargetMetric(s), nil
	}
	return "", fmt.Errorf("unknown target metric %q (want stretch, max_stretch or coverage)", s)
}
