package main

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texelforge/uvwrap/internal/batch"
	"github.com/texelforge/uvwrap/internal/gateway"
	"github.com/texelforge/uvwrap/internal/importer"
	"github.com/texelforge/uvwrap/internal/model"
)

// memLoader serves the same UV-mapped quad for every path, keeping the
// pipeline off the disk.
type memLoader struct{}

func (memLoader) Load(string) (*model.Mesh, error) {
	return &model.Mesh{
		Vertices:  []model.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Triangles: []model.Triangle{{0, 1, 2}, {1, 3, 2}},
		UVs:       []model.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	}, nil
}

func testProcessor(workers int) *batch.Processor {
	p := batch.New(gateway.NeutralUnwrapper{}, workers)
	p.Loader = memLoader{}
	p.Resolution = 64
	return p
}

func mixedEntries(n int) []importer.ManifestEntry {
	tight := model.DefaultParams()
	tight.AngleThreshold = 20

	entries := make([]importer.ManifestEntry, n)
	for i := range entries {
		params := model.DefaultParams()
		if i%2 == 1 {
			params = tight
		}
		entries[i] = importer.ManifestEntry{
			File:   fmt.Sprintf("mesh_%02d.obj", i),
			Params: params,
		}
	}
	return entries
}

func TestRunEntries_ProgressCountsExactUnderConcurrency(t *testing.T) {
	// The progress closure is invoked from worker goroutines; the shared
	// counter must produce every count 1..N exactly once with no tears
	// or duplicates.
	const n = 64
	var out bytes.Buffer

	report, err := runEntries(testProcessor(8), mixedEntries(n), "", &out)
	require.NoError(t, err)
	assert.Equal(t, n, report.Summary.Total)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, n)

	counts := make([]int, 0, n)
	for _, line := range lines {
		var got, total int
		var file string
		_, err := fmt.Sscanf(line, "[%d/%d] %s", &got, &total, &file)
		require.NoError(t, err, "line %q", line)
		assert.Equal(t, n, total)
		counts = append(counts, got)
	}
	sort.Ints(counts)
	for i, c := range counts {
		assert.Equal(t, i+1, c, "each count must appear exactly once")
	}
}

func TestRunEntries_JobsCarryTheirOwnParams(t *testing.T) {
	// A manifest mixing parameter sets runs as separate pool passes; the
	// report's base params come from the first group, and every job
	// records the params it actually ran under.
	entries := mixedEntries(8)
	var out bytes.Buffer

	report, err := runEntries(testProcessor(4), entries, "", &out)
	require.NoError(t, err)
	require.Len(t, report.Jobs, len(entries))

	assert.Equal(t, entries[0].Params, report.Params)

	want := make(map[string]model.UnwrapParams, len(entries))
	for _, e := range entries {
		want[e.File] = e.Params
	}
	for _, job := range report.Jobs {
		assert.Equal(t, want[job.File], job.Params, "job %s", job.File)
	}
}

func TestRunEntries_SingleGroupKeepsSubmissionOrder(t *testing.T) {
	entries := make([]importer.ManifestEntry, 6)
	for i := range entries {
		entries[i] = importer.ManifestEntry{
			File:   fmt.Sprintf("mesh_%02d.obj", i),
			Params: model.DefaultParams(),
		}
	}
	var out bytes.Buffer

	report, err := runEntries(testProcessor(3), entries, "", &out)
	require.NoError(t, err)
	require.Len(t, report.Jobs, len(entries))
	for i, job := range report.Jobs {
		assert.Equal(t, entries[i].File, job.File)
	}
}
