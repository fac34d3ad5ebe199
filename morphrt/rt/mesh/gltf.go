package mesh

import (
	"fmt"
	"path/filepath"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLTF reads a .gltf or .glb file and returns one SourceMesh per mesh,
// concatenating the POSITION streams of its primitives. Node transforms
// are not applied.
func LoadGLTF(path string) ([]core.SourceMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var out []core.SourceMesh
	for mi, m := range doc.Meshes {
		var positions []float32
		for _, prim := range m.Primitives {
			idx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			points, err := modeler.ReadPosition(doc, doc.Accessors[idx], nil)
			if err != nil {
				return nil, fmt.Errorf("%s mesh %d: %w", path, mi, err)
			}
			for _, p := range points {
				positions = append(positions, p[0], p[1], p[2])
			}
		}
		if len(positions) == 0 {
			continue
		}

		name := m.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", filepath.Base(path), mi)
		}
		out = append(out, core.NewSourceMesh(name, positions))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, core.ErrNoSourceMeshes)
	}
	return out, nil
}
