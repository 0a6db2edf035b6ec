package gateway

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texelforge/uvwrap/internal/model"
)

func testMesh() *model.Mesh {
	return &model.Mesh{
		Vertices:  []model.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: []model.Triangle{{0, 1, 2}},
	}
}

func TestNeutralUnwrapper_TagsDegraded(t *testing.T) {
	mesh := testMesh()
	out, summary, err := NeutralUnwrapper{}.Unwrap(mesh, model.DefaultParams())
	require.NoError(t, err)

	assert.Same(t, mesh, out, "degraded mode returns the input mesh")
	assert.True(t, summary.Degraded)
	assert.Equal(t, 1.0, summary.AvgStretch)
	assert.Zero(t, summary.Coverage)
}

func TestNewToolUnwrapperAt_MissingBinary(t *testing.T) {
	_, err := NewToolUnwrapperAt(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrUnwrapperUnavailable)
}

func TestResolve_FallsBackWhenUnset(t *testing.T) {
	// Point the override at a nonexistent file so discovery cannot
	// accidentally find a real tool on PATH.
	t.Setenv(ToolEnvVar, filepath.Join(t.TempDir(), "missing"))

	uw, real := Resolve()
	assert.False(t, real)
	_, ok := uw.(NeutralUnwrapper)
	assert.True(t, ok)
}

func TestParseSummary(t *testing.T) {
	out := []byte(`{"num_islands":3,"avg_stretch":1.25,"max_stretch":2.5,"coverage":0.8}`)
	s, err := parseSummary(out)
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumIslands)
	assert.Equal(t, 1.25, s.AvgStretch)
	assert.Equal(t, 2.5, s.MaxStretch)
	assert.Equal(t, 0.8, s.Coverage)
	assert.False(t, s.Degraded)
}

func TestParseSummary_Garbage(t *testing.T) {
	_, err := parseSummary([]byte("not json"))
	assert.Error(t, err)
}

// fakeTool writes a shell script that emits a fixed UV-mapped OBJ and a
// summary JSON, standing in for the native binary.
func fakeTool(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool script requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "uvunwrap")
	body := `#!/bin/sh
# last two args are input and output paths
for arg in "$@"; do out="$arg"; done
cat > "$out" <<'OBJ'
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
f 1/1 2/2 3/3
OBJ
echo '{"num_islands":1,"avg_stretch":1.0,"max_stretch":1.0,"coverage":0.5}'
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))
	return script
}

func TestToolUnwrapper_RoundTrip(t *testing.T) {
	tool, err := NewToolUnwrapperAt(fakeTool(t))
	require.NoError(t, err)

	mesh := testMesh()
	out, summary, err := tool.Unwrap(mesh, model.DefaultParams())
	require.NoError(t, err)

	assert.True(t, out.HasUVs())
	assert.Nil(t, mesh.UVs, "input mesh must not be mutated")
	assert.Equal(t, 1, summary.NumIslands)
	assert.Equal(t, 0.5, summary.Coverage)
	assert.False(t, summary.Degraded)
}

func TestToolUnwrapper_FailingTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tool script requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "uvunwrap")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'bad mesh' >&2\nexit 2\n"), 0755))

	tool, err := NewToolUnwrapperAt(script)
	require.NoError(t, err)

	_, _, err = tool.Unwrap(testMesh(), model.DefaultParams())
	assert.Error(t, err)
}

func TestToolUnwrapper_InvalidInputMesh(t *testing.T) {
	tool := &ToolUnwrapper{path: "irrelevant"}
	bad := &model.Mesh{
		Vertices:  []model.Vec3{{0, 0, 0}},
		Triangles: []model.Triangle{{0, 1, 2}},
	}
	_, _, err := tool.Unwrap(bad, model.DefaultParams())
	assert.Error(t, err)
}
