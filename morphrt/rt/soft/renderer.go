// Package soft rasterizes the particle cloud on the CPU. It evaluates the
// same schedule as the WGSL program and is used for headless runs.
package soft

import (
	"image"
	"image/png"
	"os"

	"github.com/chewxy/math32"
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

type Stats struct {
	Drawn  int
	Culled int
}

// Renderer splats every particle as an additive glow sprite into a linear
// accumulation buffer, Supersample times larger than the output.
type Renderer struct {
	Width       int
	Height      int
	Supersample int
	Clear       mgl32.Vec3 // linear RGB

	accum []mgl32.Vec3
	stats Stats
}

func NewRenderer(width, height, supersample int) *Renderer {
	if supersample < 1 {
		supersample = 1
	}
	return &Renderer{Width: width, Height: height, Supersample: supersample}
}

func (r *Renderer) Stats() Stats {
	return r.stats
}

func (r *Renderer) Resize(width, height int) {
	r.Width, r.Height = width, height
}

func (r *Renderer) bufferSize() (int, int) {
	return r.Width * r.Supersample, r.Height * r.Supersample
}

// Render draws the controller's current state as seen from cam.
func (r *Renderer) Render(ctrl *core.Controller, cam *core.Camera) *image.RGBA {
	w, h := r.bufferSize()
	if len(r.accum) != w*h {
		r.accum = make([]mgl32.Vec3, w*h)
	}
	for i := range r.accum {
		r.accum[i] = r.Clear
	}
	r.stats = Stats{}

	u := ctrl.Uniforms()
	view := cam.View()
	proj := cam.Projection()
	sizes := ctrl.Sizes()
	disp := ctrl.Displacement().Data

	for i := 0; i < ctrl.Count(); i++ {
		pos, noise := ctrl.Evaluate(i)
		pos = pos.Add(mgl32.Vec3{disp[i*3], disp[i*3+1], disp[i*3+2]})

		viewPos := view.Mul4x1(pos.Vec4(1))
		if viewPos.Z() > -cam.Near {
			r.stats.Culled++
			continue
		}
		clip := proj.Mul4x1(viewPos)
		ndc := clip.Vec3().Mul(1 / clip.W())

		size := core.PointSize(sizes[i], u.Size, float32(h), viewPos.Z())
		cx := (ndc.X()*0.5 + 0.5) * float32(w)
		cy := (0.5 - ndc.Y()*0.5) * float32(h)
		if !r.splat(cx, cy, size, core.ParticleColor(u.ColorA, u.ColorB, noise), w, h) {
			r.stats.Culled++
			continue
		}
		r.stats.Drawn++
	}

	return r.resolve(w, h)
}

func (r *Renderer) splat(cx, cy, size float32, color mgl32.Vec3, w, h int) bool {
	if size <= 0 {
		return false
	}
	half := size / 2
	x0 := max(int(math32.Floor(cx-half)), 0)
	x1 := min(int(math32.Ceil(cx+half)), w-1)
	y0 := max(int(math32.Floor(cy-half)), 0)
	y1 := min(int(math32.Ceil(cy+half)), h-1)
	if x0 > x1 || y0 > y1 {
		return false
	}

	left, top := cx-half, cy-half
	for y := y0; y <= y1; y++ {
		v := (float32(y) + 0.5 - top) / size
		if v < 0 || v > 1 {
			continue
		}
		for x := x0; x <= x1; x++ {
			uu := (float32(x) + 0.5 - left) / size
			if uu < 0 || uu > 1 {
				continue
			}
			alpha := core.SpriteAlpha(uu, v)
			if alpha <= 0 {
				continue
			}
			idx := y*w + x
			r.accum[idx] = r.accum[idx].Add(color.Mul(alpha))
		}
	}
	return true
}

func (r *Renderer) resolve(w, h int) *image.RGBA {
	full := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := r.accum[y*w+x]
			srgb := colorful.LinearRgb(float64(c[0]), float64(c[1]), float64(c[2])).Clamped()
			cr, cg, cb := srgb.RGB255()
			off := full.PixOffset(x, y)
			full.Pix[off], full.Pix[off+1], full.Pix[off+2], full.Pix[off+3] = cr, cg, cb, 0xff
		}
	}
	if r.Supersample == 1 {
		return full
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.CatmullRom.Scale(out, out.Bounds(), full, full.Bounds(), draw.Src, nil)
	return out
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
