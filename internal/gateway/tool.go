package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/texelforge/uvwrap/internal/meshio"
	"github.com/texelforge/uvwrap/internal/model"
)

// ToolUnwrapper runs the external uvunwrap binary. It is an explicitly
// owned client value: construct it once and pass it to whichever
// component needs it, rather than sharing a lazily-initialized global
// handle. The exchange uses temp OBJ files; the tool prints its summary
// as JSON on stdout.
type ToolUnwrapper struct {
	path string
	io   meshio.FileIO
}

// NewToolUnwrapper locates the external tool and returns a client bound
// to it, or ErrUnwrapperUnavailable.
func NewToolUnwrapper() (*ToolUnwrapper, error) {
	path, err := locateTool()
	if err != nil {
		return nil, err
	}
	return &ToolUnwrapper{path: path}, nil
}

// NewToolUnwrapperAt builds a client for an explicit binary path,
// bypassing discovery. Used by tests and by callers with their own
// configuration.
func NewToolUnwrapperAt(path string) (*ToolUnwrapper, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrUnwrapperUnavailable
	}
	return &ToolUnwrapper{path: path}, nil
}

// Path returns the resolved tool binary path.
func (t *ToolUnwrapper) Path() string { return t.path }

// toolSummary mirrors the JSON stats block the tool writes to stdout.
type toolSummary struct {
	NumIslands    int     `json:"num_islands"`
	FaceIslandIDs []int   `json:"face_island_ids"`
	AvgStretch    float64 `json:"avg_stretch"`
	MaxStretch    float64 `json:"max_stretch"`
	Coverage      float64 `json:"coverage"`
}

// Unwrap writes the mesh to a temp OBJ, runs the tool, and reads the
// UV-mapped result back. The input mesh is never touched; a fresh mesh
// is returned.
func (t *ToolUnwrapper) Unwrap(mesh *model.Mesh, params model.UnwrapParams) (*model.Mesh, model.UnwrapSummary, error) {
	if err := mesh.Validate(); err != nil {
		return nil, model.UnwrapSummary{}, fmt.Errorf("invalid input mesh: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "uvwrap-*")
	if err != nil {
		return nil, model.UnwrapSummary{}, err
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "in.obj")
	outPath := filepath.Join(tmpDir, "out.obj")
	if err := t.io.Save(mesh, inPath); err != nil {
		return nil, model.UnwrapSummary{}, fmt.Errorf("writing temp mesh: %w", err)
	}

	args := []string{
		"--angle-threshold", strconv.FormatFloat(params.AngleThreshold, 'g', -1, 64),
		"--min-island-faces", strconv.Itoa(params.MinIslandFaces),
		"--island-margin", strconv.FormatFloat(params.IslandMargin, 'g', -1, 64),
	}
	if !params.PackIslands {
		args = append(args, "--no-pack")
	}
	args = append(args, inPath, outPath)

	out, err := exec.Command(t.path, args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, model.UnwrapSummary{}, fmt.Errorf("uvunwrap failed: %s", exitErr.Stderr)
		}
		return nil, model.UnwrapSummary{}, fmt.Errorf("uvunwrap failed: %w", err)
	}

	result, err := t.io.Load(outPath)
	if err != nil {
		return nil, model.UnwrapSummary{}, fmt.Errorf("reading unwrapped mesh: %w", err)
	}
	if !result.HasUVs() {
		return nil, model.UnwrapSummary{}, fmt.Errorf("uvunwrap produced no uv channel for %s", outPath)
	}

	summary, err := parseSummary(out)
	if err != nil {
		return nil, model.UnwrapSummary{}, err
	}
	return result, summary, nil
}

// parseSummary decodes the tool's stdout JSON stats block.
func parseSummary(out []byte) (model.UnwrapSummary, error) {
	var ts toolSummary
	if err := json.Unmarshal(out, &ts); err != nil {
		return model.UnwrapSummary{}, fmt.Errorf("parsing uvunwrap summary: %w", err)
	}
	return model.UnwrapSummary{
		NumIslands:    ts.NumIslands,
		FaceIslandIDs: ts.FaceIslandIDs,
		AvgStretch:    ts.AvgStretch,
		MaxStretch:    ts.MaxStretch,
		Coverage:      ts.Coverage,
	}, nil
}
