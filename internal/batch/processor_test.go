package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texelforge/uvwrap/internal/meshio"
	"github.com/texelforge/uvwrap/internal/model"
)

// unwrappedQuad is what the stub gateway hands back: a flat quad with
// an isometric UV layout covering half the unit square.
func unwrappedQuad() *model.Mesh {
	return &model.Mesh{
		Vertices:  []model.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Triangles: []model.Triangle{{0, 1, 2}, {1, 3, 2}},
		UVs:       []model.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	}
}

// stubLoader serves in-memory meshes and fails for configured paths.
type stubLoader struct {
	failFor map[string]bool
}

func (s *stubLoader) Load(path string) (*model.Mesh, error) {
	if s.failFor[filepath.Base(path)] {
		return nil, errors.New("corrupt file")
	}
	m := unwrappedQuad()
	m.UVs = nil
	return m, nil
}

// stubUnwrapper returns a fixed unwrapped mesh, optionally failing for
// configured file content (keyed by triangle count, irrelevant here).
type stubUnwrapper struct {
	err error
}

func (s *stubUnwrapper) Unwrap(mesh *model.Mesh, _ model.UnwrapParams) (*model.Mesh, model.UnwrapSummary, error) {
	if s.err != nil {
		return nil, model.UnwrapSummary{}, s.err
	}
	return unwrappedQuad(), model.UnwrapSummary{NumIslands: 1}, nil
}

// nopSaver discards outputs.
type nopSaver struct{}

func (nopSaver) Save(*model.Mesh, string) error { return nil }

func newTestProcessor(loader *stubLoader) *Processor {
	return &Processor{
		Unwrapper: &stubUnwrapper{},
		Loader:    loader,
		Saver:     nopSaver{},
		Workers:   4,
	}
}

func jobFiles(n int) []string {
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("meshes/mesh_%02d.obj", i)
	}
	return files
}

func TestProcess_AllSucceed(t *testing.T) {
	p := newTestProcessor(&stubLoader{})
	report, err := p.Process(jobFiles(6), "", model.DefaultParams(), nil)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Summary.Total)
	assert.Equal(t, 6, report.Summary.Succeeded)
	assert.Equal(t, 0, report.Summary.Failed)
	assert.NotEmpty(t, report.ID)

	for _, job := range report.Jobs {
		assert.False(t, job.Failed())
		assert.Equal(t, 4, job.Vertices)
		assert.Equal(t, 2, job.Triangles)
		assert.Equal(t, 1, job.Islands)
		assert.InDelta(t, 1.0, job.Metrics.StretchAvg, 1e-9)
		assert.Equal(t, 1.0, job.Metrics.Coverage)
	}
}

func TestProcess_SingleFailureIsIsolated(t *testing.T) {
	loader := &stubLoader{failFor: map[string]bool{"mesh_03.obj": true}}
	p := newTestProcessor(loader)

	report, err := p.Process(jobFiles(8), "", model.DefaultParams(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 7, report.Summary.Succeeded)

	for _, job := range report.Jobs {
		if job.File == "mesh_03.obj" {
			assert.True(t, job.Failed())
			assert.Contains(t, job.Err, "corrupt file")
		} else {
			assert.False(t, job.Failed())
			assert.InDelta(t, 1.0, job.Metrics.StretchAvg, 1e-9)
		}
	}
}

func TestProcess_GatewayFailureTagged(t *testing.T) {
	p := newTestProcessor(&stubLoader{})
	p.Unwrapper = &stubUnwrapper{err: errors.New("native crash")}

	report, err := p.Process(jobFiles(3), "", model.DefaultParams(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Summary.Failed)
	assert.Equal(t, 0, report.Summary.Succeeded)
	for _, job := range report.Jobs {
		assert.Contains(t, job.Err, "native crash")
	}
	assert.Zero(t, report.Summary.AvgStretch)
}

func TestProcess_ResultsInSubmissionOrder(t *testing.T) {
	files := jobFiles(16)
	p := newTestProcessor(&stubLoader{})
	p.Workers = 8

	report, err := p.Process(files, "", model.DefaultParams(), nil)
	require.NoError(t, err)

	require.Len(t, report.Jobs, len(files))
	for i, job := range report.Jobs {
		assert.Equal(t, filepath.Base(files[i]), job.File, "result %d out of submission order", i)
	}
}

func TestProcess_ProgressExactlyOncePerJob(t *testing.T) {
	files := jobFiles(10)
	p := newTestProcessor(&stubLoader{failFor: map[string]bool{"mesh_05.obj": true}})

	var mu sync.Mutex
	var counts []int
	var seen []string
	total := 0

	_, err := p.Process(files, "", model.DefaultParams(), func(completed, tot int, file string) {
		mu.Lock()
		defer mu.Unlock()
		counts = append(counts, completed)
		seen = append(seen, file)
		total = tot
	})
	require.NoError(t, err)

	assert.Equal(t, len(files), total)
	require.Len(t, counts, len(files), "one callback per job, failures included")

	// Counts are a permutation-free running tally: sorted they are 1..N.
	sort.Ints(counts)
	for i, c := range counts {
		assert.Equal(t, i+1, c)
	}

	sort.Strings(seen)
	for i, f := range seen {
		assert.Equal(t, fmt.Sprintf("mesh_%02d.obj", i), f)
	}
}

func TestProcess_SavesOutputs(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	p := New(&stubUnwrapper{}, 2)
	p.Loader = &stubLoader{}

	// Real saver writes real OBJ files into outDir.
	report, err := p.Process([]string{"a.obj", "b.obj"}, outDir, model.DefaultParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Succeeded)

	for _, name := range []string{"a.obj", "b.obj"} {
		loaded, err := meshio.FileIO{}.Load(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.True(t, loaded.HasUVs())
	}
}

func TestProcess_EmptyJobList(t *testing.T) {
	p := newTestProcessor(&stubLoader{})
	report, err := p.Process(nil, "", model.DefaultParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Total)
	assert.Empty(t, report.Jobs)
}

func TestProcess_DefaultWorkerCount(t *testing.T) {
	p := newTestProcessor(&stubLoader{})
	p.Workers = 0 // one per CPU

	report, err := p.Process(jobFiles(4), "", model.DefaultParams(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Summary.Succeeded)
}

func TestProcess_JobIDsAreUnique(t *testing.T) {
	p := newTestProcessor(&stubLoader{})
	report, err := p.Process(jobFiles(5), "", model.DefaultParams(), nil)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, job := range report.Jobs {
		require.False(t, ids[job.ID], "duplicate job id %s", job.ID)
		require.False(t, strings.Contains(job.ID, " "))
		ids[job.ID] = true
	}
}
