package pointmorph

import (
	"math"
	"testing"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settle(o *OrbitCamera) {
	for i := 0; i < 600 && !o.Settled(); i++ {
		o.Step()
	}
}

func TestOrbitCamera_DerivesOrbitFromCamera(t *testing.T) {
	cam := core.NewCamera(1)
	cam.Position = mgl32.Vec3{0, 5, 5}
	o := NewOrbitCamera(cam, 60, 6, 1)

	assert.InDelta(t, 0, o.Yaw, 1e-6)
	assert.InDelta(t, math.Pi/4, o.Pitch, 1e-6)
	assert.InDelta(t, math.Sqrt(50), o.Distance, 1e-5)

	o.Step()
	assert.InDelta(t, 0, cam.Position.X(), 1e-4)
	assert.InDelta(t, 5, cam.Position.Y(), 1e-4)
	assert.InDelta(t, 5, cam.Position.Z(), 1e-4)
}

func TestOrbitCamera_RotateFollowsSpring(t *testing.T) {
	cam := core.NewCamera(1)
	o := NewOrbitCamera(cam, 60, 6, 1)

	o.Rotate(-math.Pi/2/o.RotateSpeed, 0)
	assert.InDelta(t, math.Pi/2, o.Yaw, 1e-9)

	o.Step()
	assert.False(t, o.Settled())
	assert.Less(t, float64(cam.Position.X()), 16.0)

	settle(o)
	require.True(t, o.Settled())
	assert.InDelta(t, 16, cam.Position.X(), 1e-2)
	assert.InDelta(t, 0, cam.Position.Z(), 1e-2)
}

func TestOrbitCamera_Clamps(t *testing.T) {
	o := NewOrbitCamera(core.NewCamera(1), 60, 6, 1)

	o.Rotate(0, 1e6)
	assert.InDelta(t, orbitMaxPitch, o.Pitch, 1e-9)
	o.Rotate(0, -1e6)
	assert.InDelta(t, -orbitMaxPitch, o.Pitch, 1e-9)

	o.Zoom(100)
	assert.Equal(t, o.MinDistance, o.Distance)
	o.Zoom(-100)
	assert.Equal(t, o.MaxDistance, o.Distance)

	o.Reset()
	assert.InDelta(t, 16, o.Distance, 1e-5)
	assert.InDelta(t, 0, o.Pitch, 1e-9)
}

func TestOrbitCameraModule_DragAndResize(t *testing.T) {
	app := NewAppBuilder().
		UseModule(InputModule{}).
		UseModule(OrbitCameraModule{Fov: 50, Distance: 10}).
		Build()

	orbit, ok := GetResource[OrbitCamera](app)
	require.True(t, ok)
	assert.Equal(t, float32(50), orbit.Camera.FovY)
	assert.InDelta(t, 10, orbit.Distance, 1e-6)

	input, _ := GetResource[Input](app)
	app.UseSystem(System(func(in *Input) {
		in.Pressed[MouseButtonLeft] = true
		in.MouseDeltaX = 100
		in.WindowWidth, in.WindowHeight = 400, 200
	}).InStage(PreUpdate))

	app.Step()
	assert.InDelta(t, -100*orbit.RotateSpeed, orbit.Yaw, 1e-9)
	assert.Equal(t, float32(2), orbit.Camera.Aspect)
	assert.True(t, input.Pressed[MouseButtonLeft])
}
