package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultStaggerDuration = 0.6
	DefaultNoiseFrequency  = 0.2
	DefaultTweenDuration   = 2.0
)

// Schedule holds the staggered interpolation parameters. The WGSL program is
// generated from the same values, see shaders.Generate.
type Schedule struct {
	// Duration is the fraction of global progress each particle spends moving.
	Duration float32
	// NoiseFrequency scales positions before sampling noise.
	NoiseFrequency float32
}

func DefaultSchedule() Schedule {
	return Schedule{Duration: DefaultStaggerDuration, NoiseFrequency: DefaultNoiseFrequency}
}

type VertexPhase int

const (
	VertexWaiting VertexPhase = iota
	VertexTransitioning
	VertexSettled
)

func (p VertexPhase) String() string {
	switch p {
	case VertexWaiting:
		return "waiting"
	case VertexTransitioning:
		return "transitioning"
	case VertexSettled:
		return "settled"
	}
	return "unknown"
}

func Smoothstep(edge0, edge1, x float32) float32 {
	if edge0 == edge1 {
		return step(edge0, x)
	}
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func Mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

func MixVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return mgl32.Vec3{Mix(a[0], b[0], t), Mix(a[1], b[1], t), Mix(a[2], b[2], t)}
}

// Noise is the per-particle stagger value in [0, 1]. It blends the noise at
// the origin and at the target so it is continuous over the transition.
func (s Schedule) Noise(origin, target mgl32.Vec3, progress float32) float32 {
	f := s.NoiseFrequency
	a := SimplexNoise3(origin[0]*f, origin[1]*f, origin[2]*f)
	b := SimplexNoise3(target[0]*f, target[1]*f, target[2]*f)
	return Smoothstep(-1, 1, Mix(a, b, progress))
}

func (s Schedule) Delay(noise float32) float32 {
	return (1 - s.Duration) * noise
}

func (s Schedule) LocalProgress(noise, progress float32) float32 {
	delay := s.Delay(noise)
	return Smoothstep(delay, delay+s.Duration, progress)
}

// Phase classifies a vertex. Both window edges count as transitioning.
func (s Schedule) Phase(noise, progress float32) VertexPhase {
	delay := s.Delay(noise)
	switch {
	case progress < delay:
		return VertexWaiting
	case progress > delay+s.Duration:
		return VertexSettled
	}
	return VertexTransitioning
}

// Position evaluates the interpolated position of one particle, without
// displacement, and returns the stagger noise used to colour it.
func (s Schedule) Position(origin, target mgl32.Vec3, progress float32) (mgl32.Vec3, float32) {
	noise := s.Noise(origin, target, progress)
	return MixVec3(origin, target, s.LocalProgress(noise, progress)), noise
}

// PointSize is the on-screen sprite diameter in pixels for a particle at
// view-space depth viewZ (negative in front of the camera).
func PointSize(size, uniformSize, resolutionY, viewZ float32) float32 {
	if viewZ >= 0 {
		return 0
	}
	return size * uniformSize * resolutionY * (1 / -viewZ)
}

// SpriteAlpha is the radial glow falloff for sprite coordinates in [0,1]^2.
func SpriteAlpha(u, v float32) float32 {
	du, dv := u-0.5, v-0.5
	dist := math32.Sqrt(du*du + dv*dv)
	if dist == 0 {
		return 1
	}
	return mgl32.Clamp(0.05/dist-0.1, 0, 1)
}

func ParticleColor(a, b mgl32.Vec3, noise float32) mgl32.Vec3 {
	return MixVec3(a, b, noise)
}
