// uvwrap — UV parameterization quality toolkit.
//
// Unwraps meshes through the external uvunwrap tool, scores the results
// (stretch, coverage, angle distortion), batch-processes whole
// directories, and grid-searches unwrap parameters.
//
// Build:
//   go build -o uvwrap ./cmd/uvwrap

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/texelforge/uvwrap/internal/batch"
	"github.com/texelforge/uvwrap/internal/config"
	"github.com/texelforge/uvwrap/internal/engine"
	"github.com/texelforge/uvwrap/internal/export"
	"github.com/texelforge/uvwrap/internal/gateway"
	"github.com/texelforge/uvwrap/internal/importer"
	"github.com/texelforge/uvwrap/internal/logger"
	"github.com/texelforge/uvwrap/internal/meshio"
	"github.com/texelforge/uvwrap/internal/metrics"
	"github.com/texelforge/uvwrap/internal/model"
	"github.com/texelforge/uvwrap/internal/project"
)

const usage = `uvwrap — UV parameterization quality toolkit

Usage:
  uvwrap unwrap   -in mesh.obj [-out unwrapped.obj] [param flags]
  uvwrap batch    -out dir (-manifest jobs.csv | file.obj ...) [param flags]
  uvwrap analyze  -in unwrapped.obj
  uvwrap optimize -in mesh.obj [-target stretch|max_stretch|coverage]
  uvwrap compare  -in mesh.obj [param flags]

Param flags:
  -angle f        chart boundary angle threshold in degrees
  -min-faces n    minimum faces per island
  -pack bool      pack islands into the unit square
  -margin f       UV-space margin between packed islands

Common flags:
  -config path    config file (default: auto-discovered)
  -log-level s    debug, info, warn, error
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "unwrap":
		err = cmdUnwrap(os.Args[2:])
	case "batch":
		err = cmdBatch(os.Args[2:])
	case "analyze":
		err = cmdAnalyze(os.Args[2:])
	case "optimize":
		err = cmdOptimize(os.Args[2:])
	case "compare":
		err = cmdCompare(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// commonFlags holds the flags shared by every subcommand; finish loads
// the config file and initializes logging once Parse has run.
type commonFlags struct {
	configPath string
	logLevel   string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "config file path (default: auto-discovered)")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return c
}

func (c *commonFlags) finish() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	level := cfg.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	if err := logger.InitWithFileConfig(level, cfg.Logging.File, true); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// paramFlags collects the unwrap parameter flags. Config (or preset)
// values supply anything the command line leaves unset, so the flag
// defaults here are placeholders; resolve applies only flags the user
// actually passed.
type paramFlags struct {
	fs     *flag.FlagSet
	angle  float64
	faces  int
	pack   bool
	margin float64
}

func registerParams(fs *flag.FlagSet) *paramFlags {
	p := &paramFlags{fs: fs}
	fs.Float64Var(&p.angle, "angle", 0, "chart boundary angle threshold in degrees")
	fs.IntVar(&p.faces, "min-faces", 0, "minimum faces per island")
	fs.BoolVar(&p.pack, "pack", true, "pack islands into the unit square")
	fs.Float64Var(&p.margin, "margin", 0, "UV-space margin between packed islands")
	return p
}

// resolve overlays explicitly-set flags onto the base parameters.
func (p *paramFlags) resolve(base model.UnwrapParams) model.UnwrapParams {
	out := base
	p.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "angle":
			out.AngleThreshold = p.angle
		case "min-faces":
			out.MinIslandFaces = p.faces
		case "pack":
			out.PackIslands = p.pack
		case "margin":
			out.IslandMargin = p.margin
		}
	})
	return out
}

func cmdUnwrap(args []string) error {
	fs := flag.NewFlagSet("unwrap", flag.ExitOnError)
	common := registerCommon(fs)
	pf := registerParams(fs)
	in := fs.String("in", "", "input OBJ file")
	out := fs.String("out", "", "output OBJ file (default: <in>_unwrapped.obj)")
	dxfPath := fs.String("dxf", "", "also write the UV layout as a DXF wireframe")
	preset := fs.Bool("preset", false, "start from the saved parameter preset instead of config defaults")
	fs.Parse(args)

	cfg, err := common.finish()
	if err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("missing -in")
	}

	base := cfg.Defaults
	if *preset {
		if base, err = project.LoadParams(project.DefaultParamsPath()); err != nil {
			return err
		}
	}
	params := pf.resolve(base)

	outPath := *out
	if outPath == "" {
		ext := filepath.Ext(*in)
		outPath = strings.TrimSuffix(*in, ext) + "_unwrapped" + ext
	}

	io := meshio.FileIO{}
	mesh, err := io.Load(*in)
	if err != nil {
		return err
	}

	unwrapper, live := gateway.Resolve()
	if !live {
		fmt.Println("warning: uvunwrap tool not found, running in degraded mode")
	}
	unwrapped, summary, err := unwrapper.Unwrap(mesh, params)
	if err != nil {
		return err
	}

	if err := io.Save(unwrapped, outPath); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d islands)\n", outPath, summary.NumIslands)

	qm, err := metrics.Compute(unwrapped, cfg.Resolution)
	if err != nil {
		return err
	}
	printMetrics(qm)

	if *dxfPath != "" {
		if err := export.ExportUVLayoutDXF(*dxfPath, unwrapped); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", *dxfPath)
	}
	return nil
}

func cmdBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	common := registerCommon(fs)
	pf := registerParams(fs)
	out := fs.String("out", "", "output directory for unwrapped meshes (required)")
	manifest := fs.String("manifest", "", "CSV or XLSX manifest of jobs")
	workers := fs.Int("workers", 0, "worker count (0 = config, then one per CPU)")
	pdfPath := fs.String("pdf", "", "write a PDF report to this path")
	xlsxPath := fs.String("xlsx", "", "write an XLSX report to this path")
	noSave := fs.Bool("no-report", false, "skip persisting the report JSON")
	fs.Parse(args)

	cfg, err := common.finish()
	if err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("missing -out directory")
	}
	params := pf.resolve(cfg.Defaults)

	var entries []importer.ManifestEntry
	switch {
	case *manifest != "":
		var result importer.ImportResult
		if strings.EqualFold(filepath.Ext(*manifest), ".xlsx") {
			result = importer.ImportManifestXLSX(*manifest, params)
		} else {
			result = importer.ImportManifestCSV(*manifest, params)
		}
		for _, w := range result.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("manifest import failed: %s", strings.Join(result.Errors, "; "))
		}
		entries = result.Entries
	case fs.NArg() > 0:
		for _, f := range fs.Args() {
			entries = append(entries, importer.ManifestEntry{File: f, Params: params})
		}
	default:
		return fmt.Errorf("no input files: pass a -manifest or positional OBJ paths")
	}

	poolSize := cfg.Workers
	if *workers > 0 {
		poolSize = *workers
	}
	unwrapper, _ := gateway.Resolve()
	processor := batch.New(unwrapper, poolSize)
	processor.Resolution = cfg.Resolution
	// Manifests may list one mesh under several parameter rows; cache
	// loads so each file hits the disk once.
	if loader, err := meshio.NewCachingLoader(meshio.FileIO{}, 64); err == nil {
		processor.Loader = loader
	}

	report, err := runEntries(processor, entries, *out, os.Stdout)
	if err != nil {
		return err
	}

	s := report.Summary
	fmt.Printf("\n%d jobs: %d succeeded, %d failed in %s\n",
		s.Total, s.Succeeded, s.Failed, s.TotalTime.Round(time.Millisecond))
	if s.Succeeded > 0 {
		fmt.Printf("mean stretch %.3f, mean coverage %.1f%%\n", s.AvgStretch, s.AvgCoverage*100)
	}

	if !*noSave {
		path, err := project.SaveReport(project.ReportsDir(), report)
		if err != nil {
			return err
		}
		fmt.Printf("report saved to %s\n", path)
	}
	if *pdfPath != "" {
		if err := export.ExportPDF(*pdfPath, report); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", *pdfPath)
	}
	if *xlsxPath != "" {
		if err := export.ExportXLSX(*xlsxPath, report); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", *xlsxPath)
	}
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", s.Failed, s.Total)
	}
	return nil
}

// runEntries executes manifest entries, grouping rows that share a
// parameter set so each group runs as one pool pass; the final report
// covers all groups, stamped with the first group's params as the base
// set (each job records the params it actually ran under). Progress
// lines go to progressOut, one per completed job across all groups.
func runEntries(processor *batch.Processor, entries []importer.ManifestEntry, outDir string, progressOut io.Writer) (model.BatchReport, error) {
	groups := make(map[model.UnwrapParams][]string)
	var order []model.UnwrapParams
	for _, e := range entries {
		if _, seen := groups[e.Params]; !seen {
			order = append(order, e.Params)
		}
		groups[e.Params] = append(groups[e.Params], e.File)
	}

	total := len(entries)

	// The callback runs on worker goroutines; the counter and the write
	// share one lock so counts are never torn or duplicated.
	var progressMu sync.Mutex
	done := 0
	progress := func(_, _ int, file string) {
		progressMu.Lock()
		done++
		fmt.Fprintf(progressOut, "[%d/%d] %s\n", done, total, file)
		progressMu.Unlock()
	}

	start := time.Now()
	var jobs []model.BatchJobResult
	for _, params := range order {
		report, err := processor.Process(groups[params], outDir, params, progress)
		if err != nil {
			return model.BatchReport{}, err
		}
		jobs = append(jobs, report.Jobs...)
	}

	summary := model.Summarize(jobs, time.Since(start))
	return model.NewBatchReport(order[0], summary, jobs), nil
}

func cmdAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	common := registerCommon(fs)
	in := fs.String("in", "", "UV-mapped OBJ file to score")
	fs.Parse(args)

	cfg, err := common.finish()
	if err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("missing -in")
	}

	mesh, err := meshio.FileIO{}.Load(*in)
	if err != nil {
		return err
	}
	if !mesh.HasUVs() {
		return fmt.Errorf("%s has no UV coordinates to analyze", *in)
	}

	qm, err := metrics.Compute(mesh, cfg.Resolution)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d vertices, %d triangles\n", filepath.Base(*in), mesh.NumVertices(), mesh.NumTriangles())
	printMetrics(qm)
	return nil
}

func cmdOptimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	common := registerCommon(fs)
	in := fs.String("in", "", "input OBJ file")
	targetName := fs.String("target", "stretch", "metric to optimize: stretch, max_stretch, coverage")
	save := fs.Bool("save", false, "save the winning parameters as the preset")
	fs.Parse(args)

	cfg, err := common.finish()
	if err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("missing -in")
	}
	target, err := model.ParseTargetMetric(*targetName)
	if err != nil {
		return err
	}

	mesh, err := meshio.FileIO{}.Load(*in)
	if err != nil {
		return err
	}

	unwrapper, live := gateway.Resolve()
	if !live {
		return fmt.Errorf("optimization needs the real unwrap tool: %w", gateway.ErrUnwrapperUnavailable)
	}

	opt := engine.NewOptimizer(unwrapper)
	opt.Lattice = cfg.Lattice
	opt.Resolution = cfg.Resolution

	fmt.Printf("searching %d parameter combinations...\n", opt.Lattice.Size())
	best, score, err := opt.Optimize(mesh, target)
	if err != nil {
		return err
	}

	fmt.Printf("best %s = %.4f with angle %.1f°, min faces %d\n",
		target, score, best.AngleThreshold, best.MinIslandFaces)
	if *save {
		if err := project.SaveParams(project.DefaultParamsPath(), best); err != nil {
			return err
		}
		fmt.Printf("preset saved to %s\n", project.DefaultParamsPath())
	}
	return nil
}

func cmdCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	common := registerCommon(fs)
	pf := registerParams(fs)
	in := fs.String("in", "", "input OBJ file")
	fs.Parse(args)

	cfg, err := common.finish()
	if err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("missing -in")
	}
	params := pf.resolve(cfg.Defaults)

	mesh, err := meshio.FileIO{}.Load(*in)
	if err != nil {
		return err
	}

	unwrapper, live := gateway.Resolve()
	if !live {
		fmt.Println("warning: uvunwrap tool not found, comparisons run in degraded mode")
	}

	scenarios := engine.BuildDefaultScenarios(params)
	results := engine.CompareScenarios(unwrapper, mesh, scenarios, cfg.Resolution)

	fmt.Printf("%-24s %10s %10s %10s %10s\n", "Scenario", "Stretch", "Max", "Coverage", "Angle")
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("%-24s failed: %s\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Printf("%-24s %10.3f %10.3f %9.1f%% %10.4f\n",
			r.Scenario.Name,
			r.Metrics.StretchAvg, r.Metrics.StretchMax,
			r.Metrics.Coverage*100, r.Metrics.AngleDistortion)
	}
	return nil
}

func printMetrics(qm model.QualityMetrics) {
	fmt.Printf("stretch: %.3f avg, %.3f max\n", qm.StretchAvg, qm.StretchMax)
	fmt.Printf("coverage: %.1f%%\n", qm.Coverage*100)
	fmt.Printf("angle distortion: %.4f rad\n", qm.AngleDistortion)
}
