package pointmorph

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	orbitMaxPitch = math.Pi/2 - 0.05
)

// OrbitCamera orbits core.Camera around its target. Yaw, Pitch and Distance
// are goals; the rendered values follow them through a damped spring.
type OrbitCamera struct {
	Camera *core.Camera

	Yaw      float64
	Pitch    float64
	Distance float64

	RotateSpeed float64 // radians per pixel
	ZoomSpeed   float64 // fraction of distance per scroll step
	MinDistance float64
	MaxDistance float64

	current  [3]float64 // yaw, pitch, distance
	velocity [3]float64
	home     [3]float64
	spring   harmonica.Spring
}

// NewOrbitCamera derives the orbit from the camera's current placement.
func NewOrbitCamera(cam *core.Camera, fps int, frequency, damping float64) *OrbitCamera {
	offset := cam.Position.Sub(cam.Target)
	distance := float64(offset.Len())
	var yaw, pitch float64
	if distance > 0 {
		yaw = math.Atan2(float64(offset.X()), float64(offset.Z()))
		pitch = math.Asin(float64(offset.Y()) / distance)
	}

	o := &OrbitCamera{
		Camera:      cam,
		Yaw:         yaw,
		Pitch:       pitch,
		Distance:    distance,
		RotateSpeed: 0.005,
		ZoomSpeed:   0.1,
		MinDistance: 2,
		MaxDistance: 60,
		spring:      harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
	}
	o.current = [3]float64{yaw, pitch, distance}
	o.home = o.current
	return o
}

func (o *OrbitCamera) Rotate(dx, dy float64) {
	o.Yaw -= dx * o.RotateSpeed
	o.Pitch = clampFloat(o.Pitch+dy*o.RotateSpeed, -orbitMaxPitch, orbitMaxPitch)
}

// Zoom moves the goal distance; positive steps move closer.
func (o *OrbitCamera) Zoom(steps float64) {
	o.Distance = clampFloat(o.Distance*math.Pow(1-o.ZoomSpeed, steps), o.MinDistance, o.MaxDistance)
}

// Reset returns the goal to the initial placement.
func (o *OrbitCamera) Reset() {
	o.Yaw, o.Pitch, o.Distance = o.home[0], o.home[1], o.home[2]
}

// Step advances the springs one tick and places the camera.
func (o *OrbitCamera) Step() {
	goal := [3]float64{o.Yaw, o.Pitch, o.Distance}
	for i := range goal {
		o.current[i], o.velocity[i] = o.spring.Update(o.current[i], o.velocity[i], goal[i])
	}
	o.place()
}

// Settled reports whether the camera has reached its goal.
func (o *OrbitCamera) Settled() bool {
	goal := [3]float64{o.Yaw, o.Pitch, o.Distance}
	for i := range goal {
		if math.Abs(o.current[i]-goal[i]) > 1e-4 || math.Abs(o.velocity[i]) > 1e-4 {
			return false
		}
	}
	return true
}

func (o *OrbitCamera) place() {
	yaw, pitch, dist := o.current[0], o.current[1], o.current[2]
	offset := mgl32.Vec3{
		float32(dist * math.Cos(pitch) * math.Sin(yaw)),
		float32(dist * math.Sin(pitch)),
		float32(dist * math.Cos(pitch) * math.Cos(yaw)),
	}
	o.Camera.Position = o.Camera.Target.Add(offset)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

type OrbitCameraModule struct {
	Aspect    float32
	Fov       float32
	Distance  float32
	FPS       int
	Frequency float64
	Damping   float64
}

func (mod OrbitCameraModule) Install(app *App, cmd *Commands) {
	aspect := mod.Aspect
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	fps := mod.FPS
	if fps <= 0 {
		fps = 60
	}
	frequency, damping := mod.Frequency, mod.Damping
	if frequency <= 0 {
		frequency = 6
	}
	if damping <= 0 {
		damping = 1
	}
	cam := core.NewCamera(aspect)
	if mod.Fov > 0 {
		cam.FovY = mod.Fov
	}
	if mod.Distance > 0 {
		cam.Position = mgl32.Vec3{0, 0, mod.Distance}
	}
	cmd.AddResources(NewOrbitCamera(cam, fps, frequency, damping))
	app.UseSystem(
		System(orbitCameraSystem).
			InStage(Update).
			RunAlways(),
	)
}

func orbitCameraSystem(input *Input, orbit *OrbitCamera) {
	if input.Pressed[MouseButtonLeft] || input.Pressed[MouseButtonRight] {
		orbit.Rotate(input.MouseDeltaX, input.MouseDeltaY)
	}
	if input.ScrollY != 0 {
		orbit.Zoom(input.ScrollY)
	}
	if input.JustPressed[KeyR] {
		orbit.Reset()
	}
	orbit.Camera.Resize(input.WindowWidth, input.WindowHeight)
	orbit.Step()
}
