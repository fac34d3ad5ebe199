package core

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultPickThreshold = 1.0

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // normalized
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ClosestPointToPoint projects p onto the ray. Points behind the origin
// project onto the origin.
func (r Ray) ClosestPointToPoint(p mgl32.Vec3) mgl32.Vec3 {
	t := p.Sub(r.Origin).Dot(r.Direction)
	if t < 0 {
		return r.Origin
	}
	return r.At(t)
}

func (r Ray) DistanceSqToPoint(p mgl32.Vec3) float32 {
	d := r.ClosestPointToPoint(p).Sub(p)
	return d.Dot(d)
}

func (r Ray) IntersectsSphere(s Sphere) bool {
	return r.DistanceSqToPoint(s.Center) <= s.Radius*s.Radius
}

type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// BoundingSphere encloses every xyz triple of the given buffers. The center
// is the center of their axis-aligned box.
func BoundingSphere(buffers ...[]float32) Sphere {
	minV := mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	maxV := mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	empty := true
	for _, buf := range buffers {
		for i := 0; i+2 < len(buf); i += 3 {
			empty = false
			for a := 0; a < 3; a++ {
				minV[a] = math32.Min(minV[a], buf[i+a])
				maxV[a] = math32.Max(maxV[a], buf[i+a])
			}
		}
	}
	if empty {
		return Sphere{}
	}

	center := minV.Add(maxV).Mul(0.5)
	var radiusSq float32
	for _, buf := range buffers {
		for i := 0; i+2 < len(buf); i += 3 {
			d := mgl32.Vec3{buf[i], buf[i+1], buf[i+2]}.Sub(center)
			radiusSq = math32.Max(radiusSq, d.Dot(d))
		}
	}
	return Sphere{Center: center, Radius: math32.Sqrt(radiusSq)}
}

// PointHit is the closest particle along a ray.
type PointHit struct {
	Index         int
	Point         mgl32.Vec3 // closest point on the ray to the particle
	Distance      float32    // from the ray origin to Point
	DistanceToRay float32
}

// PointsRaycaster hit-tests a point cloud: a particle is hit when it lies
// within Threshold of the ray.
type PointsRaycaster struct {
	Threshold float32
	Near      float32
	Far       float32
}

func NewPointsRaycaster() PointsRaycaster {
	return PointsRaycaster{Threshold: DefaultPickThreshold, Near: 0, Far: math.MaxFloat32}
}

// Intersect returns the hit nearest to the ray origin. bounds is tested
// first, grown by the threshold.
func (rc PointsRaycaster) Intersect(ray Ray, bounds Sphere, positions []float32) (PointHit, bool) {
	grown := Sphere{Center: bounds.Center, Radius: bounds.Radius + rc.Threshold}
	if !ray.IntersectsSphere(grown) {
		return PointHit{}, false
	}

	thresholdSq := rc.Threshold * rc.Threshold
	best := PointHit{Index: -1, Distance: math.MaxFloat32}
	for i := 0; i+2 < len(positions); i += 3 {
		p := mgl32.Vec3{positions[i], positions[i+1], positions[i+2]}
		onRay := ray.ClosestPointToPoint(p)
		dSq := onRay.Sub(p).Dot(onRay.Sub(p))
		if dSq >= thresholdSq {
			continue
		}
		dist := onRay.Sub(ray.Origin).Len()
		if dist < rc.Near || dist > rc.Far {
			continue
		}
		if dist < best.Distance {
			best = PointHit{Index: i / 3, Point: onRay, Distance: dist, DistanceToRay: math32.Sqrt(dSq)}
		}
	}
	return best, best.Index >= 0
}
