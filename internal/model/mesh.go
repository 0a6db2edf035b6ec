package model

import "fmt"

// Vec3 is a 3D vertex position.
type Vec3 [3]float64

// Vec2 is a 2D UV coordinate.
type Vec2 [2]float64

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a[0] - b[0], a[1] - b[1]}
}

// Triangle references three vertices by index.
type Triangle [3]int

// Mesh is an indexed triangle mesh with an optional UV channel.
// UVs is nil when no parameterization exists; when present it holds
// exactly one coordinate per vertex. Meshes are treated as immutable:
// every transformation produces a new Mesh.
type Mesh struct {
	Vertices  []Vec3     `json:"vertices"`
	Triangles []Triangle `json:"triangles"`
	UVs       []Vec2     `json:"uvs,omitempty"`
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumTriangles returns the triangle count.
func (m *Mesh) NumTriangles() int { return len(m.Triangles) }

// HasUVs reports whether the mesh carries a UV channel.
func (m *Mesh) HasUVs() bool { return m.UVs != nil }

// Validate checks structural invariants: every triangle index must be
// within the vertex range, and a present UV channel must have one
// coordinate per vertex. Numeric degeneracies (zero-area triangles,
// coincident vertices) are not validation errors.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for ti, t := range m.Triangles {
		for _, idx := range t {
			if idx < 0 || idx >= n {
				return fmt.Errorf("triangle %d references vertex %d, mesh has %d vertices", ti, idx, n)
			}
		}
	}
	if m.UVs != nil && len(m.UVs) != n {
		return fmt.Errorf("uv count %d does not match vertex count %d", len(m.UVs), n)
	}
	return nil
}
