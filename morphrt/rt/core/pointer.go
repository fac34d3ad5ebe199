package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultInfluenceRadius = 1.0
	DefaultRayFalloff      = 0.3
	DefaultVelocityGain    = 30.0
	DefaultMaxPush         = 10.0
	DefaultPushScale       = 0.5
	DefaultDecay           = 0.99
	DefaultReferenceFrame  = 1.0 / 60.0
)

type PointerConfig struct {
	// InfluenceRadius bounds the distance to the hit point.
	InfluenceRadius float32
	// RayFalloff is the fraction of InfluenceRadius used for the distance
	// to the ray.
	RayFalloff   float32
	VelocityGain float32
	MaxPush      float32
	PushScale    float32
	// Decay multiplies the displacement once per Update.
	Decay float32
	// ReferenceFrame is the frame time UpdateDelta treats as one Update.
	ReferenceFrame float32
	PickThreshold  float32
}

func DefaultPointerConfig() PointerConfig {
	return PointerConfig{
		InfluenceRadius: DefaultInfluenceRadius,
		RayFalloff:      DefaultRayFalloff,
		VelocityGain:    DefaultVelocityGain,
		MaxPush:         DefaultMaxPush,
		PushScale:       DefaultPushScale,
		Decay:           DefaultDecay,
		ReferenceFrame:  DefaultReferenceFrame,
		PickThreshold:   DefaultPickThreshold,
	}
}

// PointerEvent carries client coordinates in pixels together with the
// size of the surface they were measured on.
type PointerEvent struct {
	ClientX, ClientY float32
	Width, Height    float32
}

// NDC maps the event to normalized device coordinates, Y up.
func (ev PointerEvent) NDC() mgl32.Vec2 {
	return mgl32.Vec2{
		ev.ClientX/ev.Width*2 - 1,
		-(ev.ClientY/ev.Height)*2 + 1,
	}
}

type PointerState struct {
	Mouse    mgl32.Vec2
	Previous mgl32.Vec2
	Velocity mgl32.Vec2
}

// Displacer pushes particles near the pointer ray along the pointer's
// motion and relaxes them back over time.
type Displacer struct {
	ctrl      *Controller
	cfg       PointerConfig
	state     PointerState
	raycaster PointsRaycaster
	scratch   []float32
	lastHit   PointHit
}

func NewDisplacer(ctrl *Controller, cfg PointerConfig) *Displacer {
	rc := NewPointsRaycaster()
	rc.Threshold = cfg.PickThreshold
	return &Displacer{ctrl: ctrl, cfg: cfg, raycaster: rc}
}

func (d *Displacer) Config() PointerConfig {
	return d.cfg
}

func (d *Displacer) State() PointerState {
	return d.state
}

// LastHit is the intersection of the latest pointer move that hit the cloud.
func (d *Displacer) LastHit() PointHit {
	return d.lastHit
}

// OnPointerMove updates the pointer history and, when the pointer ray hits
// the cloud, sets the push of every particle within the influence radius.
// It reports whether the ray hit.
func (d *Displacer) OnPointerMove(ev PointerEvent, cam *Camera) bool {
	if ev.Width <= 0 || ev.Height <= 0 || d.ctrl.Released() {
		return false
	}

	d.state.Previous = d.state.Mouse
	d.state.Mouse = ev.NDC()
	d.state.Velocity = d.state.Mouse.Sub(d.state.Previous)

	ray := cam.Ray(d.state.Mouse)
	bounds := d.ctrl.Bounds()
	if !ray.IntersectsSphere(Sphere{Center: bounds.Center, Radius: bounds.Radius + d.raycaster.Threshold}) {
		return false
	}

	d.scratch = d.ctrl.InterpolatedPositions(d.scratch)
	hit, ok := d.raycaster.Intersect(ray, bounds, d.scratch)
	if !ok {
		return false
	}
	d.lastHit = hit

	d.push(ray, hit.Point, cam.Orientation())
	return true
}

func (d *Displacer) push(ray Ray, hitPoint mgl32.Vec3, orientation mgl32.Quat) {
	speed := d.state.Velocity.Len()
	magnitude := math32.Min(d.cfg.MaxPush, speed*d.cfg.VelocityGain) * d.cfg.PushScale
	if magnitude == 0 {
		return
	}

	dir := orientation.Rotate(mgl32.Vec3{d.state.Velocity[0] / speed, d.state.Velocity[1] / speed, 0})

	radius := d.cfg.InfluenceRadius
	rayRadius := radius * d.cfg.RayFalloff
	disp := d.ctrl.Displacement()
	for i := 0; i*3+2 < len(d.scratch); i++ {
		p := mgl32.Vec3{d.scratch[i*3], d.scratch[i*3+1], d.scratch[i*3+2]}
		pointDistance := p.Sub(hitPoint).Len()
		rayDistance := ray.ClosestPointToPoint(p).Sub(p).Len()

		w := math32.Min(pointDistance/radius, rayDistance/rayRadius)
		if w >= 1 {
			continue
		}
		strength := 1 - w
		amount := magnitude * strength * strength

		// replaces whatever decayed push the particle still carries
		disp.Data[i*3] = dir[0] * amount
		disp.Data[i*3+1] = dir[1] * amount
		disp.Data[i*3+2] = dir[2] * amount
	}
	disp.MarkNeedsUpdate()
}

// Update decays the displacement by one frame's worth.
func (d *Displacer) Update() {
	d.scale(d.cfg.Decay)
}

// UpdateDelta decays by Decay^(dt/ReferenceFrame), independent of frame rate.
func (d *Displacer) UpdateDelta(dt float32) {
	if dt <= 0 {
		return
	}
	d.scale(math32.Pow(d.cfg.Decay, dt/d.cfg.ReferenceFrame))
}

func (d *Displacer) scale(f float32) {
	if d.ctrl.Released() {
		return
	}
	disp := d.ctrl.Displacement()
	for i := range disp.Data {
		disp.Data[i] *= f
	}
	disp.MarkNeedsUpdate()
}
