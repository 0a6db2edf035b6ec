// Package meshio reads and writes triangle meshes in Wavefront OBJ
// format. Only the subset the pipeline needs is supported: vertex
// positions, per-vertex texture coordinates, and triangular faces.
package meshio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/texelforge/uvwrap/internal/model"
)

// Loader loads a mesh from a path.
type Loader interface {
	Load(path string) (*model.Mesh, error)
}

// Saver writes a mesh to a path.
type Saver interface {
	Save(mesh *model.Mesh, path string) error
}

// FileIO is the plain disk-backed Loader/Saver.
type FileIO struct{}

// Load reads an OBJ file. Faces with more than three vertices keep only
// their first three corners; texture coordinates are assumed to be
// listed per vertex, in vertex order. A file with no vt lines yields a
// mesh without a UV channel.
func (FileIO) Load(path string) (*model.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mesh := &model.Mesh{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: malformed vertex line", path, lineNum)
			}
			var p model.Vec3
			for d := 0; d < 3; d++ {
				p[d], err = strconv.ParseFloat(fields[d+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad vertex coordinate: %w", path, lineNum, err)
				}
			}
			mesh.Vertices = append(mesh.Vertices, p)

		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%s:%d: malformed texture coordinate line", path, lineNum)
			}
			var uv model.Vec2
			for d := 0; d < 2; d++ {
				uv[d], err = strconv.ParseFloat(fields[d+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad texture coordinate: %w", path, lineNum, err)
				}
			}
			mesh.UVs = append(mesh.UVs, uv)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: face needs at least 3 vertices", path, lineNum)
			}
			var tri model.Triangle
			for c := 0; c < 3; c++ {
				// "f 1/1 2/2 3/3" — only the vertex index matters.
				idxStr := strings.SplitN(fields[c+1], "/", 2)[0]
				idx, err := strconv.Atoi(idxStr)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad face index: %w", path, lineNum, err)
				}
				tri[c] = idx - 1 // OBJ indices are 1-based
			}
			mesh.Triangles = append(mesh.Triangles, tri)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mesh, nil
}

// Save writes a mesh as OBJ. When the mesh has UVs each face corner is
// written as v/vt with matching indices.
func (FileIO) Save(mesh *model.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "v %g %g %g\n", v[0], v[1], v[2])
	}
	if mesh.HasUVs() {
		for _, uv := range mesh.UVs {
			fmt.Fprintf(w, "vt %g %g\n", uv[0], uv[1])
		}
	}
	for _, t := range mesh.Triangles {
		if mesh.HasUVs() {
			fmt.Fprintf(w, "f %d/%d %d/%d %d/%d\n", t[0]+1, t[0]+1, t[1]+1, t[1]+1, t[2]+1, t[2]+1)
		} else {
			fmt.Fprintf(w, "f %d %d %d\n", t[0]+1, t[1]+1, t[2]+1)
		}
	}
	return w.Flush()
}
