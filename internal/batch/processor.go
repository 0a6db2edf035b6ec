// Package batch fans independent mesh-unwrapping jobs out across a
// bounded worker pool. Each job loads a mesh, runs the unwrap gateway,
// scores the result with the metrics engine, and persists the output;
// failures are isolated per job and never abort siblings.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/texelforge/uvwrap/internal/gateway"
	"github.com/texelforge/uvwrap/internal/logger"
	"github.com/texelforge/uvwrap/internal/meshio"
	"github.com/texelforge/uvwrap/internal/metrics"
	"github.com/texelforge/uvwrap/internal/model"

	"github.com/google/uuid"
)

// ProgressFunc is invoked exactly once per completed job, success or
// failure, with the running completed count, the total, and the job's
// file name. It may be called from any worker goroutine and must not
// block for long.
type ProgressFunc func(completed, total int, file string)

// Processor runs batches of unwrap jobs.
type Processor struct {
	Unwrapper gateway.Unwrapper
	Loader    meshio.Loader
	Saver     meshio.Saver

	// Workers caps the pool size; 0 means one worker per CPU.
	Workers int
	// Resolution is the coverage grid size; 0 means metrics.DefaultResolution.
	Resolution int
}

// New builds a processor around an unwrapper with plain file I/O.
func New(unwrapper gateway.Unwrapper, workers int) *Processor {
	return &Processor{
		Unwrapper: unwrapper,
		Loader:    meshio.FileIO{},
		Saver:     meshio.FileIO{},
		Workers:   workers,
	}
}

// Process unwraps every file and returns the assembled report. The
// per-job result sequence is in submission order regardless of worker
// completion order, so repeated runs report reproducibly. The summary
// is aggregated only after every job has finished.
func (p *Processor) Process(files []string, outDir string, params model.UnwrapParams, onProgress ProgressFunc) (model.BatchReport, error) {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return model.BatchReport{}, fmt.Errorf("creating output dir: %w", err)
		}
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	logger.Info("starting batch",
		zap.Int("jobs", len(files)),
		zap.Int("workers", workers))

	start := time.Now()
	results := make([]model.BatchJobResult, len(files))
	jobs := make(chan int)

	// completed counter and progress callback share one lock so the
	// count passed to the callback is never torn or duplicated.
	var progressMu sync.Mutex
	completed := 0

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.runJob(files[idx], outDir, params)

				progressMu.Lock()
				completed++
				done := completed
				progressMu.Unlock()

				if onProgress != nil {
					onProgress(done, len(files), filepath.Base(files[idx]))
				}
			}
		}()
	}

	for idx := range files {
		jobs <- idx
	}
	close(jobs)
	wg.Wait() // full barrier: no partial aggregation

	summary := model.Summarize(results, time.Since(start))
	logger.Info("batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("total", summary.TotalTime))

	return model.NewBatchReport(params, summary, results), nil
}

// runJob executes one job end to end. Every failure path is converted
// into an error-tagged result for this file only.
func (p *Processor) runJob(file, outDir string, params model.UnwrapParams) model.BatchJobResult {
	result := model.BatchJobResult{
		ID:     uuid.New().String()[:8],
		File:   filepath.Base(file),
		Params: params,
	}
	start := time.Now()

	fail := func(err error) model.BatchJobResult {
		result.Elapsed = time.Since(start)
		result.Err = err.Error()
		logger.Warn("job failed", zap.String("file", result.File), zap.Error(err))
		return result
	}

	mesh, err := p.Loader.Load(file)
	if err != nil {
		return fail(fmt.Errorf("load: %w", err))
	}

	unwrapped, summary, err := p.Unwrapper.Unwrap(mesh, params)
	if err != nil {
		return fail(fmt.Errorf("unwrap: %w", err))
	}

	if outDir != "" {
		outPath := filepath.Join(outDir, filepath.Base(file))
		if err := p.Saver.Save(unwrapped, outPath); err != nil {
			return fail(fmt.Errorf("save: %w", err))
		}
	}

	resolution := p.Resolution
	if resolution <= 0 {
		resolution = metrics.DefaultResolution
	}

	avg, max, err := metrics.Stretch(unwrapped, unwrapped.UVs)
	if err != nil {
		return fail(fmt.Errorf("stretch: %w", err))
	}
	cov, err := metrics.Coverage(unwrapped.UVs, unwrapped.Triangles, resolution)
	if err != nil {
		return fail(fmt.Errorf("coverage: %w", err))
	}
	ang, err := metrics.AngleDistortion(unwrapped, unwrapped.UVs)
	if err != nil {
		return fail(fmt.Errorf("angle distortion: %w", err))
	}

	result.Vertices = unwrapped.NumVertices()
	result.Triangles = unwrapped.NumTriangles()
	result.Islands = summary.NumIslands
	result.Elapsed = time.Since(start)
	result.Metrics = model.QualityMetrics{
		StretchAvg:      avg,
		StretchMax:      max,
		Coverage:        cov,
		AngleDistortion: ang,
	}
	return result
}
