package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
)

const DefaultCells = 48

type shapeBuilder func(r float64) (sdf.SDF3, error)

var shapes = map[string]shapeBuilder{
	"sphere": func(r float64) (sdf.SDF3, error) {
		return sdf.Sphere3D(r)
	},
	"box": func(r float64) (sdf.SDF3, error) {
		side := r * 2 / math.Sqrt(3)
		return sdf.Box3D(v3.Vec{X: side, Y: side, Z: side}, side*0.1)
	},
	"cylinder": func(r float64) (sdf.SDF3, error) {
		return sdf.Cylinder3D(r*1.4, r*0.7, 0)
	},
	"capsule": func(r float64) (sdf.SDF3, error) {
		// a fully rounded cylinder
		return sdf.Cylinder3D(r*2, r*0.5, r*0.5)
	},
	"ring": func(r float64) (sdf.SDF3, error) {
		outer, err := sdf.Cylinder3D(r*0.4, r, 0)
		if err != nil {
			return nil, err
		}
		inner, err := sdf.Cylinder3D(r*0.5, r*0.6, 0)
		if err != nil {
			return nil, err
		}
		ring := sdf.Difference3D(outer, inner)
		return sdf.Transform3D(ring, sdf.RotateX(math.Pi/2)), nil
	},
	"cross": func(r float64) (sdf.SDF3, error) {
		long, thin := r*1.6, r*0.45
		x, err := sdf.Box3D(v3.Vec{X: long, Y: thin, Z: thin}, 0)
		if err != nil {
			return nil, err
		}
		y, err := sdf.Box3D(v3.Vec{X: thin, Y: long, Z: thin}, 0)
		if err != nil {
			return nil, err
		}
		z, err := sdf.Box3D(v3.Vec{X: thin, Y: thin, Z: long}, 0)
		if err != nil {
			return nil, err
		}
		return sdf.Union3D(x, y, z), nil
	},
}

// Shapes lists the procedural shape names in stable order.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShapeSDF builds the signed distance field of a named shape sized to fit a
// sphere of the given radius.
func ShapeSDF(shape string, radius float64) (sdf.SDF3, error) {
	build, ok := shapes[shape]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
	return build(radius)
}

// Procedural meshes a named shape with marching cubes and returns its
// distinct surface vertices.
func Procedural(shape string, radius float64, cells int) (core.SourceMesh, error) {
	if cells <= 0 {
		cells = DefaultCells
	}
	s, err := ShapeSDF(shape, radius)
	if err != nil {
		return core.SourceMesh{}, err
	}

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	if len(triangles) == 0 {
		return core.SourceMesh{}, fmt.Errorf("shape %q produced no surface at %d cells", shape, cells)
	}

	seen := make(map[[3]float32]struct{}, len(triangles))
	positions := make([]float32, 0, len(triangles)*3)
	for _, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			key := [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			positions = append(positions, key[0], key[1], key[2])
		}
	}
	return core.NewSourceMesh("sdf:"+shape, positions), nil
}
