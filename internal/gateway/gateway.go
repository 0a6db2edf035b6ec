// Package gateway invokes the external uvunwrap tool that performs the
// actual island decomposition and packing. The core only depends on the
// Unwrapper contract; when the tool is missing a named degraded-mode
// implementation stands in so the pipeline keeps functioning.
package gateway

import (
	"errors"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/texelforge/uvwrap/internal/logger"
	"github.com/texelforge/uvwrap/internal/model"
)

// ToolEnvVar overrides tool discovery with an explicit binary path.
const ToolEnvVar = "UVUNWRAP_TOOL"

// toolName is the binary looked up on PATH when the env override is unset.
const toolName = "uvunwrap"

// ErrUnwrapperUnavailable is returned when the external tool cannot be
// located.
var ErrUnwrapperUnavailable = errors.New("uvunwrap tool not found")

// Unwrapper produces a UV-mapped copy of a mesh. Implementations must
// never mutate the input mesh and must treat the call as synchronous;
// it may block for the full duration of the unwrap.
type Unwrapper interface {
	Unwrap(mesh *model.Mesh, params model.UnwrapParams) (*model.Mesh, model.UnwrapSummary, error)
}

// NeutralUnwrapper is the explicit degraded-mode variant used when the
// external tool is unavailable. It returns the input mesh unchanged and
// a neutral summary tagged Degraded, so callers can detect that no real
// unwrap happened and decide whether that is acceptable.
type NeutralUnwrapper struct{}

// Unwrap returns the input mesh and a degraded-tagged neutral summary.
func (NeutralUnwrapper) Unwrap(mesh *model.Mesh, _ model.UnwrapParams) (*model.Mesh, model.UnwrapSummary, error) {
	return mesh, model.NeutralSummary(), nil
}

// locateTool resolves the external binary: env override first, then PATH.
func locateTool() (string, error) {
	if env := os.Getenv(ToolEnvVar); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", ErrUnwrapperUnavailable
		}
		return env, nil
	}
	path, err := exec.LookPath(toolName)
	if err != nil {
		return "", ErrUnwrapperUnavailable
	}
	return path, nil
}

// Resolve returns a ToolUnwrapper when the external tool is present and
// falls back to the NeutralUnwrapper otherwise. The boolean reports
// whether the real tool was found.
func Resolve() (Unwrapper, bool) {
	tool, err := NewToolUnwrapper()
	if err != nil {
		logger.Warn("uvunwrap tool not found, running in degraded mode")
		return NeutralUnwrapper{}, false
	}
	logger.Debug("using uvunwrap tool", zap.String("path", tool.Path()))
	return tool, true
}
