package export

import (
	"fmt"

	"github.com/yofu/dxf"

	"github.com/texelforge/uvwrap/internal/model"
)

// ExportUVLayoutDXF writes the UV layout of a mesh as a DXF wireframe:
// every triangle's three edges drawn in UV space on a "UV" layer, with
// the unit texture square outlined on a "FRAME" layer for reference.
func ExportUVLayoutDXF(path string, mesh *model.Mesh) error {
	if mesh == nil || !mesh.HasUVs() {
		return fmt.Errorf("mesh has no UV coordinates to export")
	}
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("invalid mesh: %w", err)
	}

	d := dxf.NewDrawing()

	if _, err := d.AddLayer("FRAME", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to create frame layer: %w", err)
	}
	frame := [][4]float64{
		{0, 0, 1, 0},
		{1, 0, 1, 1},
		{1, 1, 0, 1},
		{0, 1, 0, 0},
	}
	for _, e := range frame {
		if _, err := d.Line(e[0], e[1], 0, e[2], e[3], 0); err != nil {
			return fmt.Errorf("failed to draw frame edge: %w", err)
		}
	}

	if _, err := d.AddLayer("UV", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to create UV layer: %w", err)
	}
	for _, tri := range mesh.Triangles {
		for e := 0; e < 3; e++ {
			a := mesh.UVs[tri[e]]
			b := mesh.UVs[tri[(e+1)%3]]
			if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
				return fmt.Errorf("failed to draw UV edge: %w", err)
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}
