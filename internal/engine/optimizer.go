// Package engine searches the unwrap parameter space for the settings
// that score best on a chosen quality metric.
package engine

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/texelforge/uvwrap/internal/gateway"
	"github.com/texelforge/uvwrap/internal/logger"
	"github.com/texelforge/uvwrap/internal/metrics"
	"github.com/texelforge/uvwrap/internal/model"
)

// ErrNoViableParams is returned when every trial in the lattice failed.
var ErrNoViableParams = errors.New("no viable parameters found")

// Lattice is the discrete search grid: the Cartesian product of angle
// thresholds and minimum island face counts, with the remaining params
// held at their defaults. Enumeration order is part of the contract —
// the outer loop walks AngleThresholds, the inner loop MinIslandFaces,
// and ties go to the earlier point — so the grids must stay ordered.
type Lattice struct {
	AngleThresholds []float64 `yaml:"angle_thresholds"`
	MinIslandFaces  []int     `yaml:"min_island_faces"`
}

// DefaultLattice is the hand-chosen grid: small enough to enumerate
// against one mesh in a reasonable wall-clock budget.
func DefaultLattice() Lattice {
	return Lattice{
		AngleThresholds: []float64{20, 25, 30, 35, 40},
		MinIslandFaces:  []int{5, 10, 20},
	}
}

// Size returns the number of lattice points.
func (l Lattice) Size() int {
	return len(l.AngleThresholds) * len(l.MinIslandFaces)
}

// Optimizer grid-searches unwrap parameters for a single mesh. It runs
// sequentially; concurrency lives in the batch processor, not here.
type Optimizer struct {
	Unwrapper gateway.Unwrapper
	Lattice   Lattice

	// Resolution is the coverage grid size; 0 means metrics.DefaultResolution.
	Resolution int
}

// NewOptimizer builds an optimizer over the default lattice.
func NewOptimizer(unwrapper gateway.Unwrapper) *Optimizer {
	return &Optimizer{Unwrapper: unwrapper, Lattice: DefaultLattice()}
}

// Optimize tries every lattice point against the mesh and returns the
// best parameters with their score under the target metric. Stretch
// targets minimize, coverage maximizes; comparison is strictly better,
// so the first point in enumeration order wins ties. A trial whose
// unwrap fails is skipped; if every trial fails the search reports
// ErrNoViableParams instead of a sentinel pair.
func (o *Optimizer) Optimize(mesh *model.Mesh, target model.TargetMetric) (model.UnwrapParams, float64, error) {
	bestScore := math.Inf(1)
	if !target.LowerIsBetter() {
		// Coverage lives in [0,1]; -1 is below any valid value.
		bestScore = -1
	}

	var best model.UnwrapParams
	found := false

	for _, angle := range o.Lattice.AngleThresholds {
		for _, minFaces := range o.Lattice.MinIslandFaces {
			params := model.DefaultParams()
			params.AngleThreshold = angle
			params.MinIslandFaces = minFaces

			score, err := o.trial(mesh, params, target)
			if err != nil {
				logger.Debug("trial skipped",
					zap.Float64("angle", angle),
					zap.Int("min_faces", minFaces),
					zap.Error(err))
				continue
			}

			better := score < bestScore
			if !target.LowerIsBetter() {
				better = score > bestScore
			}
			if better {
				best = params
				bestScore = score
				found = true
			}
		}
	}

	if !found {
		return model.UnwrapParams{}, 0, ErrNoViableParams
	}
	logger.Info("optimization finished",
		zap.String("target", string(target)),
		zap.Float64("angle", best.AngleThreshold),
		zap.Int("min_faces", best.MinIslandFaces),
		zap.Float64("score", bestScore))
	return best, bestScore, nil
}

// trial unwraps once and scores the result under the target metric.
func (o *Optimizer) trial(mesh *model.Mesh, params model.UnwrapParams, target model.TargetMetric) (float64, error) {
	unwrapped, _, err := o.Unwrapper.Unwrap(mesh, params)
	if err != nil {
		return 0, err
	}

	switch target {
	case model.TargetCoverage:
		return metrics.Coverage(unwrapped.UVs, unwrapped.Triangles, o.resolution())
	default:
		avg, max, err := metrics.Stretch(unwrapped, unwrapped.UVs)
		if err != nil {
			return 0, err
		}
		if target == model.TargetMaxStretch {
			return max, nil
		}
		return avg, nil
	}
}

func (o *Optimizer) resolution() int {
	if o.Resolution > 0 {
		return o.Resolution
	}
	return metrics.DefaultResolution
}
