package core

import (
	"github.com/chewxy/math32"
)

// 3D simplex noise with the permutation polynomial and lattice gradients
// used by the WGSL program, so CPU and GPU agree up to float rounding.

const (
	simplexSkew   = 1.0 / 3.0
	simplexUnskew = 1.0 / 6.0
)

func mod289(x float32) float32 {
	return x - math32.Floor(x*(1.0/289.0))*289.0
}

func permute(x float32) float32 {
	return mod289((x*34.0 + 1.0) * x)
}

func step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

// simplexGradient maps a hashed corner to a normalized gradient on the
// octahedron.
func simplexGradient(p float32) (gx, gy, gz float32) {
	const n = 1.0 / 7.0
	const nsx, nsy, nsz = 2 * n, 0.5*n - 1, n

	j := p - 49.0*math32.Floor(p*nsz*nsz)
	xf := math32.Floor(j * nsz)
	yf := math32.Floor(j - 7.0*xf)

	gx = xf*nsx + nsy
	gy = yf*nsx + nsy
	gz = 1.0 - math32.Abs(gx) - math32.Abs(gy)
	if gz <= 0 {
		gx -= math32.Floor(gx)*2 + 1
		gy -= math32.Floor(gy)*2 + 1
	}

	norm := float32(1.79284291400159) - float32(0.85373472095314)*(gx*gx+gy*gy+gz*gz)
	return gx * norm, gy * norm, gz * norm
}

// SimplexNoise3 returns 3D simplex noise, roughly in [-1, 1].
func SimplexNoise3(x, y, z float32) float32 {
	s := (x + y + z) * simplexSkew
	ix := math32.Floor(x + s)
	iy := math32.Floor(y + s)
	iz := math32.Floor(z + s)

	t := (ix + iy + iz) * simplexUnskew
	x0 := [3]float32{x - ix + t, y - iy + t, z - iz + t}

	gX := step(x0[1], x0[0])
	gY := step(x0[2], x0[1])
	gZ := step(x0[0], x0[2])
	lX, lY, lZ := 1-gX, 1-gY, 1-gZ

	i1 := [3]float32{math32.Min(gX, lZ), math32.Min(gY, lX), math32.Min(gZ, lY)}
	i2 := [3]float32{math32.Max(gX, lZ), math32.Max(gY, lX), math32.Max(gZ, lY)}

	corners := [4][3]float32{
		{0, 0, 0},
		i1,
		i2,
		{1, 1, 1},
	}

	ix, iy, iz = mod289(ix), mod289(iy), mod289(iz)

	var sum float32
	for k, off := range corners {
		g := float32(k) * simplexUnskew
		xk := [3]float32{x0[0] - off[0] + g, x0[1] - off[1] + g, x0[2] - off[2] + g}

		m := 0.6 - (xk[0]*xk[0] + xk[1]*xk[1] + xk[2]*xk[2])
		if m <= 0 {
			continue
		}
		m *= m

		p := permute(permute(permute(iz+off[2])+iy+off[1]) + ix + off[0])
		gx, gy, gz := simplexGradient(p)
		sum += m * m * (gx*xk[0] + gy*xk[1] + gz*xk[2])
	}
	return 42.0 * sum
}
