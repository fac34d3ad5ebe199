package mesh

import (
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
)

// Fit recenters a mesh on the origin and scales it so its bounding sphere
// has the given radius. Meshes with a single distinct point are only
// recentered.
func Fit(m core.SourceMesh, radius float32) core.SourceMesh {
	bounds := core.BoundingSphere(m.Positions)
	scale := float32(1)
	if bounds.Radius > 0 {
		scale = radius / bounds.Radius
	}

	out := make([]float32, len(m.Positions))
	for i := 0; i+2 < len(m.Positions); i += 3 {
		out[i] = (m.Positions[i] - bounds.Center[0]) * scale
		out[i+1] = (m.Positions[i+1] - bounds.Center[1]) * scale
		out[i+2] = (m.Positions[i+2] - bounds.Center[2]) * scale
	}
	return core.NewSourceMesh(m.Name, out)
}
