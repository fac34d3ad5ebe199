package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective look-at camera. Matrices use the GL clip
// convention (z in [-1, 1]); GPU passes remap depth themselves.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FovY     float32 // degrees
	Aspect   float32
	Near     float32
	Far      float32
}

func NewCamera(aspect float32) *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, 16},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     35,
		Aspect:   aspect,
		Near:     0.1,
		Far:      100,
	}
}

func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Orientation is the camera's world rotation.
func (c *Camera) Orientation() mgl32.Quat {
	return mgl32.Mat4ToQuat(c.View().Inv()).Normalize()
}

// Unproject maps an NDC point back to world space.
func (c *Camera) Unproject(ndc mgl32.Vec3) mgl32.Vec3 {
	inv := c.ViewProjection().Inv()
	p := inv.Mul4x1(ndc.Vec4(1))
	if p[3] == 0 {
		return p.Vec3()
	}
	return p.Vec3().Mul(1 / p[3])
}

// Ray returns the world-space ray from the camera through an NDC point.
func (c *Camera) Ray(ndc mgl32.Vec2) Ray {
	through := c.Unproject(mgl32.Vec3{ndc[0], ndc[1], 0.5})
	return Ray{
		Origin:    c.Position,
		Direction: through.Sub(c.Position).Normalize(),
	}
}

// Project maps a world point to NDC. The returned w is the clip-space w,
// which is <= 0 for points behind the camera.
func (c *Camera) Project(p mgl32.Vec3) (mgl32.Vec3, float32) {
	clip := c.ViewProjection().Mul4x1(p.Vec4(1))
	if clip[3] == 0 {
		return clip.Vec3(), 0
	}
	return clip.Vec3().Mul(1 / clip[3]), clip[3]
}
