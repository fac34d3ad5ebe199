package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcedural_SphereLiesOnSurface(t *testing.T) {
	m, err := Procedural("sphere", 2, 24)
	require.NoError(t, err)
	assert.Equal(t, "sdf:sphere", m.Name)
	require.Greater(t, m.Count(), 100)

	for i := 0; i < m.Count(); i++ {
		x, y, z := m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]
		r := math32.Sqrt(x*x + y*y + z*z)
		assert.InDelta(t, 2, r, 0.2, "vertex %d", i)
	}
}

func TestProcedural_VerticesAreDistinct(t *testing.T) {
	m, err := Procedural("box", 1, 16)
	require.NoError(t, err)

	seen := map[[3]float32]bool{}
	for i := 0; i < m.Count(); i++ {
		key := [3]float32{m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]}
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestProcedural_AllShapesBuild(t *testing.T) {
	for _, name := range Shapes() {
		m, err := Procedural(name, 1.5, 16)
		require.NoError(t, err, name)
		assert.Positive(t, m.Count(), name)
	}
}

func TestProcedural_UnknownShape(t *testing.T) {
	_, err := Procedural("teapot", 1, 16)
	assert.ErrorContains(t, err, "teapot")
}

func TestFit(t *testing.T) {
	m := core.NewSourceMesh("seg", []float32{10, 0, 0, 14, 0, 0})
	fitted := Fit(m, 3)
	assert.Equal(t, []float32{-3, 0, 0, 3, 0, 0}, fitted.Positions)
	assert.Equal(t, "seg", fitted.Name)
	// source untouched
	assert.Equal(t, float32(10), m.Positions[0])
}

const triangleGLTF = `{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": 36, "uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAAAACAPwAAAAAAAAAAAAAAAAAAAEAAAAAA"}],
  "bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": 36}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 2, 0]}],
  "meshes": [
    {"name": "tri", "primitives": [{"attributes": {"POSITION": 0}}]},
    {"primitives": [{"attributes": {"POSITION": 0}}]}
  ]
}`

func TestLoadGLTF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.gltf")
	require.NoError(t, os.WriteFile(path, []byte(triangleGLTF), 0o644))

	meshes, err := LoadGLTF(path)
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "tri", meshes[0].Name)
	assert.Equal(t, "models.gltf#1", meshes[1].Name)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 2, 0}, meshes[0].Positions)
}

func TestLoadGLTF_MissingFile(t *testing.T) {
	_, err := LoadGLTF(filepath.Join(t.TempDir(), "nope.glb"))
	assert.Error(t, err)
}
