package engine

import (
	"fmt"

	"github.com/texelforge/uvwrap/internal/gateway"
	"github.com/texelforge/uvwrap/internal/metrics"
	"github.com/texelforge/uvwrap/internal/model"
)

// ComparisonScenario is a named parameter set to evaluate.
type ComparisonScenario struct {
	Name   string
	Params model.UnwrapParams
}

// ComparisonResult holds the unwrap summary and computed quality for a
// single scenario. Err is set when the scenario's unwrap failed; the
// remaining scenarios still run.
type ComparisonResult struct {
	Scenario ComparisonScenario
	Summary  model.UnwrapSummary
	Metrics  model.QualityMetrics
	Err      string
}

// CompareScenarios unwraps one mesh under each scenario and returns the
// results in scenario order, enabling side-by-side comparison of
// parameter choices before committing to a batch run.
func CompareScenarios(unwrapper gateway.Unwrapper, mesh *model.Mesh, scenarios []ComparisonScenario, resolution int) []ComparisonResult {
	if resolution <= 0 {
		resolution = metrics.DefaultResolution
	}

	results := make([]ComparisonResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		r := ComparisonResult{Scenario: scenario}

		unwrapped, summary, err := unwrapper.Unwrap(mesh, scenario.Params)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			continue
		}
		r.Summary = summary

		qm, err := metrics.Compute(unwrapped, resolution)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			continue
		}
		r.Metrics = qm
		results = append(results, r)
	}
	return results
}

// BuildDefaultScenarios derives what-if variants from a base parameter
// set: a tighter and a looser chart angle, and the opposite packing
// choice.
func BuildDefaultScenarios(base model.UnwrapParams) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Params: base},
	}

	tight := base
	tight.AngleThreshold = base.AngleThreshold * 0.75
	scenarios = append(scenarios, ComparisonScenario{
		Name:   fmt.Sprintf("Angle %.0f° (tighter)", tight.AngleThreshold),
		Params: tight,
	})

	loose := base
	loose.AngleThreshold = base.AngleThreshold * 1.25
	scenarios = append(scenarios, ComparisonScenario{
		Name:   fmt.Sprintf("Angle %.0f° (looser)", loose.AngleThreshold),
		Params: loose,
	})

	flipPack := base
	flipPack.PackIslands = !base.PackIslands
	name := "No Packing"
	if flipPack.PackIslands {
		name = "With Packing"
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Params: flipPack})

	return scenarios
}
