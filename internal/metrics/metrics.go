// Package metrics computes UV-mapping quality measures: Jacobian
// stretch, texture-space coverage, and angle distortion. All functions
// are pure and degrade gracefully on degenerate triangles; only
// structural mismatches between mesh and UV data return errors.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/texelforge/uvwrap/internal/model"
)

// degenerateEps is the threshold below which determinants, singular
// values, and edge norms are treated as zero.
const degenerateEps = 1e-12

// DefaultResolution is the coverage grid size used by the batch
// processor and optimizer.
const DefaultResolution = 512

// ErrUVCountMismatch is returned when the UV channel does not line up
// with the vertex array.
var ErrUVCountMismatch = errors.New("uv count does not match vertex count")

func validatePair(mesh *model.Mesh, uvs []model.Vec2) error {
	if len(uvs) != len(mesh.Vertices) {
		return fmt.Errorf("%w: %d uvs, %d vertices", ErrUVCountMismatch, len(uvs), len(mesh.Vertices))
	}
	return mesh.Validate()
}

// Stretch computes the average and maximum per-triangle stretch of the
// 3D-to-UV mapping. Per triangle it builds the Jacobian J = E * M^-1
// (E the 3D edge matrix, M the UV edge matrix) and takes the ratio of
// its singular values. A UV-degenerate triangle (|det M| below the
// epsilon) or a collapsed second singular value contributes the neutral
// value 1.0 instead of failing. A mesh with no triangles scores (1, 1).
func Stretch(mesh *model.Mesh, uvs []model.Vec2) (avg, max float64, err error) {
	if err := validatePair(mesh, uvs); err != nil {
		return 0, 0, err
	}
	if len(mesh.Triangles) == 0 {
		return 1.0, 1.0, nil
	}

	var sum float64
	max = 0.0
	for _, t := range mesh.Triangles {
		s := triangleStretch(mesh, uvs, t)
		sum += s
		if s > max {
			max = s
		}
	}
	return sum / float64(len(mesh.Triangles)), max, nil
}

func triangleStretch(mesh *model.Mesh, uvs []model.Vec2, t model.Triangle) float64 {
	i, j, k := t[0], t[1], t[2]

	// UV edge matrix M, columns (uv_j - uv_i), (uv_k - uv_i).
	e1 := uvs[j].Sub(uvs[i])
	e2 := uvs[k].Sub(uvs[i])
	det := e1[0]*e2[1] - e2[0]*e1[1]
	if math.Abs(det) < degenerateEps {
		return 1.0 // zero UV area, neutral
	}

	// M^-1 entries.
	inv00 := e2[1] / det
	inv01 := -e2[0] / det
	inv10 := -e1[1] / det
	inv11 := e1[0] / det

	// 3D edge matrix E, columns (p_j - p_i), (p_k - p_i).
	p1 := mesh.Vertices[j].Sub(mesh.Vertices[i])
	p2 := mesh.Vertices[k].Sub(mesh.Vertices[i])

	// J = E * M^-1, a 3x2 matrix held as two column vectors.
	var c1, c2 model.Vec3
	for d := 0; d < 3; d++ {
		c1[d] = p1[d]*inv00 + p2[d]*inv10
		c2[d] = p1[d]*inv01 + p2[d]*inv11
	}

	// J^T J is 2x2 symmetric; its eigenvalues have a closed form.
	a := c1[0]*c1[0] + c1[1]*c1[1] + c1[2]*c1[2]
	b := c1[0]*c2[0] + c1[1]*c2[1] + c1[2]*c2[2]
	c := c2[0]*c2[0] + c2[1]*c2[1] + c2[2]*c2[2]

	mean := (a + c) / 2
	disc := math.Sqrt((a-c)*(a-c)/4 + b*b)

	// Numerical eigenvalues can dip slightly negative; clamp before sqrt.
	l1 := math.Max(mean+disc, 0)
	l2 := math.Max(mean-disc, 0)

	s1 := math.Sqrt(l1)
	s2 := math.Sqrt(l2)
	if s2 <= degenerateEps {
		return 1.0
	}
	return s1 / s2
}

// Coverage rasterizes the UV triangles onto a resolution x resolution
// grid over [0,1]^2 and returns the covered fraction. The inside test
// is barycentric with an inclusive (>= 0) boundary rule, so adjoining
// triangles both claim shared boundary cells; coverage only measures
// the union, so this never over-counts. Triangle bounding boxes are
// clamped to the unit square before scanning, which keeps spilled
// geometry from inflating the result past 1.0. Degenerate triangles
// (near-zero barycentric denominator) are skipped.
func Coverage(uvs []model.Vec2, triangles []model.Triangle, resolution int) (float64, error) {
	if resolution < 2 {
		return 0, fmt.Errorf("coverage resolution must be >= 2, got %d", resolution)
	}
	for ti, t := range triangles {
		for _, idx := range t {
			if idx < 0 || idx >= len(uvs) {
				return 0, fmt.Errorf("triangle %d references uv %d, have %d uvs", ti, idx, len(uvs))
			}
		}
	}

	grid := make([]bool, resolution*resolution)
	scale := float64(resolution - 1)

	for _, t := range triangles {
		uv0, uv1, uv2 := uvs[t[0]], uvs[t[1]], uvs[t[2]]

		denom := (uv1[1]-uv2[1])*(uv0[0]-uv2[0]) + (uv2[0]-uv1[0])*(uv0[1]-uv2[1])
		if math.Abs(denom) < degenerateEps {
			continue
		}

		minU := clamp01(math.Min(uv0[0], math.Min(uv1[0], uv2[0])))
		maxU := clamp01(math.Max(uv0[0], math.Max(uv1[0], uv2[0])))
		minV := clamp01(math.Min(uv0[1], math.Min(uv1[1], uv2[1])))
		maxV := clamp01(math.Max(uv0[1], math.Max(uv1[1], uv2[1])))

		x0 := int(minU * scale)
		x1 := int(maxU * scale)
		y0 := int(minV * scale)
		y1 := int(maxV * scale)

		for y := y0; y <= y1; y++ {
			v := float64(y) / scale
			for x := x0; x <= x1; x++ {
				u := float64(x) / scale

				a := ((uv1[1]-uv2[1])*(u-uv2[0]) + (uv2[0]-uv1[0])*(v-uv2[1])) / denom
				b := ((uv2[1]-uv0[1])*(u-uv2[0]) + (uv0[0]-uv2[0])*(v-uv2[1])) / denom
				c := 1 - a - b
				if a >= 0 && b >= 0 && c >= 0 {
					grid[y*resolution+x] = true
				}
			}
		}
	}

	covered := 0
	for _, g := range grid {
		if g {
			covered++
		}
	}
	return float64(covered) / float64(len(grid)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AngleDistortion returns the worst absolute difference between a
// triangle corner's 3D interior angle and its UV counterpart, in
// radians, over the whole mesh. This is a maximum rather than a mean:
// angle-preservation failures are usually localized seam artifacts, and
// a single bad corner should surface. Near-zero-length edges contribute
// an angle of zero rather than failing.
func AngleDistortion(mesh *model.Mesh, uvs []model.Vec2) (float64, error) {
	if err := validatePair(mesh, uvs); err != nil {
		return 0, err
	}

	var worst float64
	for _, t := range mesh.Triangles {
		i, j, k := t[0], t[1], t[2]
		p0, p1, p2 := mesh.Vertices[i], mesh.Vertices[j], mesh.Vertices[k]
		u0, u1, u2 := uvs[i], uvs[j], uvs[k]

		corners := [3]float64{
			angle3(p1.Sub(p0), p2.Sub(p0)),
			angle3(p0.Sub(p1), p2.Sub(p1)),
			angle3(p0.Sub(p2), p1.Sub(p2)),
		}
		uvCorners := [3]float64{
			angle2(u1.Sub(u0), u2.Sub(u0)),
			angle2(u0.Sub(u1), u2.Sub(u1)),
			angle2(u0.Sub(u2), u1.Sub(u2)),
		}

		for c := 0; c < 3; c++ {
			if d := math.Abs(corners[c] - uvCorners[c]); d > worst {
				worst = d
			}
		}
	}
	return worst, nil
}

func angle3(a, b model.Vec3) float64 {
	na := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	nb := math.Sqrt(b[0]*b[0] + b[1]*b[1] + b[2]*b[2])
	if na < degenerateEps || nb < degenerateEps {
		return 0.0
	}
	return math.Acos(clampCos((a[0]*b[0] + a[1]*b[1] + a[2]*b[2]) / (na * nb)))
}

func angle2(a, b model.Vec2) float64 {
	na := math.Sqrt(a[0]*a[0] + a[1]*a[1])
	nb := math.Sqrt(b[0]*b[0] + b[1]*b[1])
	if na < degenerateEps || nb < degenerateEps {
		return 0.0
	}
	return math.Acos(clampCos((a[0]*b[0] + a[1]*b[1]) / (na * nb)))
}

func clampCos(c float64) float64 {
	if c < -1 {
		return -1
	}
	if c > 1 {
		return 1
	}
	return c
}

// Compute runs all three metrics against a mesh's own UV channel.
func Compute(mesh *model.Mesh, resolution int) (model.QualityMetrics, error) {
	if !mesh.HasUVs() {
		return model.QualityMetrics{}, errors.New("mesh has no uv channel")
	}
	avg, max, err := Stretch(mesh, mesh.UVs)
	if err != nil {
		return model.QualityMetrics{}, err
	}
	cov, err := Coverage(mesh.UVs, mesh.Triangles, resolution)
	if err != nil {
		return model.QualityMetrics{}, err
	}
	ang, err := AngleDistortion(mesh, mesh.UVs)
	if err != nil {
		return model.QualityMetrics{}, err
	}
	return model.QualityMetrics{
		StretchAvg:      avg,
		StretchMax:      max,
		Coverage:        cov,
		AngleDistortion: ang,
	}, nil
}
