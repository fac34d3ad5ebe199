package shaders

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

// wgslSnoise3 follows noise.wgsl statement by statement with the same
// vector lanes, so the CPU noise can be checked against the GPU program
// without a device.

type vec4 [4]float32

func floor3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Floor(v[0]), math32.Floor(v[1]), math32.Floor(v[2])}
}

func floor4(v vec4) vec4 {
	return vec4{math32.Floor(v[0]), math32.Floor(v[1]), math32.Floor(v[2]), math32.Floor(v[3])}
}

func step1(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

func mod289v3(x mgl32.Vec3) mgl32.Vec3 {
	return x.Sub(floor3(x.Mul(1.0 / 289.0)).Mul(289.0))
}

func mod289v4(x vec4) vec4 {
	var out vec4
	for i := range x {
		out[i] = x[i] - math32.Floor(x[i]*(1.0/289.0))*289.0
	}
	return out
}

func permute4(x vec4) vec4 {
	var y vec4
	for i := range x {
		y[i] = ((x[i] * 34.0) + 1.0) * x[i]
	}
	return mod289v4(y)
}

func add4(a vec4, s float32, b vec4) vec4 {
	return vec4{a[0] + s + b[0], a[1] + s + b[1], a[2] + s + b[2], a[3] + s + b[3]}
}

func wgslSnoise3(v mgl32.Vec3) float32 {
	cx, cy := float32(1.0/6.0), float32(1.0/3.0)

	i := floor3(v.Add(mgl32.Vec3{1, 1, 1}.Mul(v.Dot(mgl32.Vec3{cy, cy, cy}))))
	x0 := v.Sub(i).Add(mgl32.Vec3{1, 1, 1}.Mul(i.Dot(mgl32.Vec3{cx, cx, cx})))

	// g = step(x0.yzx, x0.xyz)
	g := mgl32.Vec3{step1(x0[1], x0[0]), step1(x0[2], x0[1]), step1(x0[0], x0[2])}
	l := mgl32.Vec3{1 - g[0], 1 - g[1], 1 - g[2]}
	// l.zxy
	lz := mgl32.Vec3{l[2], l[0], l[1]}
	i1 := mgl32.Vec3{math32.Min(g[0], lz[0]), math32.Min(g[1], lz[1]), math32.Min(g[2], lz[2])}
	i2 := mgl32.Vec3{math32.Max(g[0], lz[0]), math32.Max(g[1], lz[1]), math32.Max(g[2], lz[2])}

	x1 := x0.Sub(i1).Add(mgl32.Vec3{cx, cx, cx})
	x2 := x0.Sub(i2).Add(mgl32.Vec3{cy, cy, cy})
	x3 := x0.Sub(mgl32.Vec3{0.5, 0.5, 0.5})

	i = mod289v3(i)
	p := permute4(add4(vec4{0, i1[2], i2[2], 1}, i[2], vec4{}))
	p = permute4(add4(p, i[1], vec4{0, i1[1], i2[1], 1}))
	p = permute4(add4(p, i[0], vec4{0, i1[0], i2[0], 1}))

	// ns = n_ * D.wyz - D.xzx with D = (0, 0.5, 1, 2)
	n := float32(0.142857142857)
	ns := mgl32.Vec3{n*2 - 0, n*0.5 - 1, n*1 - 0}

	var x, y, h vec4
	for k := range p {
		j := p[k] - 49.0*math32.Floor(p[k]*ns[2]*ns[2])
		xs := math32.Floor(j * ns[2])
		ys := math32.Floor(j - 7.0*xs)
		x[k] = xs*ns[0] + ns[1]
		y[k] = ys*ns[0] + ns[1]
		h[k] = 1.0 - math32.Abs(x[k]) - math32.Abs(y[k])
	}

	b0 := vec4{x[0], x[1], y[0], y[1]}
	b1 := vec4{x[2], x[3], y[2], y[3]}
	s0, s1 := floor4(b0), floor4(b1)
	for k := 0; k < 4; k++ {
		s0[k] = s0[k]*2 + 1
		s1[k] = s1[k]*2 + 1
	}
	var sh vec4
	for k := range h {
		sh[k] = -step1(h[k], 0)
	}

	// a0 = b0.xzyw + s0.xzyw * sh.xxyy, a1 = b1.xzyw + s1.xzyw * sh.zzww
	a0 := vec4{b0[0] + s0[0]*sh[0], b0[2] + s0[2]*sh[0], b0[1] + s0[1]*sh[1], b0[3] + s0[3]*sh[1]}
	a1 := vec4{b1[0] + s1[0]*sh[2], b1[2] + s1[2]*sh[2], b1[1] + s1[1]*sh[3], b1[3] + s1[3]*sh[3]}

	grads := [4]mgl32.Vec3{
		{a0[0], a0[1], h[0]},
		{a0[2], a0[3], h[1]},
		{a1[0], a1[1], h[2]},
		{a1[2], a1[3], h[3]},
	}
	offsets := [4]mgl32.Vec3{x0, x1, x2, x3}

	var sum float32
	for k := range grads {
		norm := float32(1.79284291400159) - float32(0.85373472095314)*grads[k].Dot(grads[k])
		gk := grads[k].Mul(norm)
		m := math32.Max(0.6-offsets[k].Dot(offsets[k]), 0)
		m *= m
		sum += m * m * gk.Dot(offsets[k])
	}
	return 42.0 * sum
}

func wgslSmoothstep(e0, e1, x float32) float32 {
	t := math32.Min(math32.Max((x-e0)/(e1-e0), 0), 1)
	return t * t * (3 - 2*t)
}

var noiseSamples = []mgl32.Vec3{
	{0, 0, 0},
	{0.1, 0.2, 0.3},
	{-1.25, 0.5, 2.75},
	{3.3, -4.4, 5.5},
	{12.01, 7.77, -9.5},
	{-0.6, -0.6, -0.6},
	{100.5, 42.25, -13.125},
	{0.49, 0.51, -0.02},
}

func TestNoiseWGSL_MatchesCoreNoise(t *testing.T) {
	assert.Contains(t, NoiseWGSL, "let n_ = 0.142857142857;")
	assert.Contains(t, NoiseWGSL, "return 1.79284291400159 - 0.85373472095314 * r;")
	assert.Contains(t, NoiseWGSL, "var m = max(0.6 - vec4<f32>")

	for _, p := range noiseSamples {
		gpu := wgslSnoise3(p)
		cpu := core.SimplexNoise3(p[0], p[1], p[2])
		assert.InDelta(t, gpu, cpu, 1e-4, "noise at %v", p)
	}
}

func TestParticleWGSL_ScheduleMatchesCore(t *testing.T) {
	s := core.DefaultSchedule()
	origin := mgl32.Vec3{1.5, -2, 0.25}
	target := mgl32.Vec3{-3, 4, 2}

	for _, progress := range []float32{0, 0.2, 0.45, 0.8, 1} {
		f := s.NoiseFrequency
		// stagger_noise and local_progress from particles.wgsl.tmpl
		n := core.Mix(wgslSnoise3(origin.Mul(f)), wgslSnoise3(target.Mul(f)), progress)
		noise := wgslSmoothstep(-1, 1, n)
		delay := (1 - s.Duration) * noise
		local := wgslSmoothstep(delay, delay+s.Duration, progress)

		assert.InDelta(t, s.Noise(origin, target, progress), noise, 1e-4)
		assert.InDelta(t, s.LocalProgress(noise, progress), local, 1e-5)
	}
}
