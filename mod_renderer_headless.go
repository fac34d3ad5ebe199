package pointmorph

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gekko3d/pointmorph/morphrt/rt/soft"
)

// HeadlessRendererModule renders with the software splatter and writes PNG
// frames. It also scripts input: a pointer sweep through the cloud and a
// morph to the next target every MorphEvery frames.
type HeadlessRendererModule struct {
	Config HeadlessConfig
}

type HeadlessRenderer struct {
	Renderer *soft.Renderer
	OutDir   string
	Every    int
	Frames   int
	// MorphEvery of zero disables scripted morphs.
	MorphEvery int

	frame   int
	written []string
	logger  Logger
}

// Written lists the PNG files produced so far.
func (h *HeadlessRenderer) Written() []string {
	return h.written
}

func (h *HeadlessRenderer) RenderedFrames() int {
	return h.frame
}

func (mod HeadlessRendererModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, RendererHeadless)
	cfg := mod.Config
	every := cfg.Every
	if every <= 0 {
		every = 1
	}
	cmd.AddResources(&HeadlessRenderer{
		Renderer:   soft.NewRenderer(cfg.Width, cfg.Height, cfg.Supersample),
		OutDir:     cfg.Out,
		Every:      every,
		Frames:     cfg.Frames,
		MorphEvery: cfg.MorphEvery,
		logger:     app.Logger().With("headless"),
	})
	app.UseSystem(
		System(headlessScriptSystem).
			InStage(Prelude).
			RunAlways(),
	)
	app.UseSystem(
		System(headlessRenderSystem).
			InStage(Render).
			RunAlways(),
	)
}

// headlessScriptSystem stands in for a user: it moves the pointer along a
// Lissajous curve over the image and presses space periodically.
func headlessScriptSystem(h *HeadlessRenderer, input *Input, cloud *ParticleCloud) {
	if !cloud.Ready() {
		return
	}
	w, hgt := h.Renderer.Width, h.Renderer.Height
	t := float64(h.frame)
	x := float64(w) * (0.5 + 0.3*math.Sin(t*0.031))
	y := float64(hgt) * (0.5 + 0.25*math.Sin(t*0.047+1))
	input.PushPointer(x, y, w, hgt)

	if h.MorphEvery > 0 && h.frame > 0 && h.frame%h.MorphEvery == 0 {
		input.Tap(KeySpace)
	}
}

func headlessRenderSystem(h *HeadlessRenderer, cloud *ParticleCloud, orbit *OrbitCamera, cmd *Commands) {
	if !cloud.Ready() {
		// still loading; don't spin
		time.Sleep(time.Millisecond)
		return
	}

	if h.OutDir != "" && h.frame%h.Every == 0 {
		img := h.Renderer.Render(cloud.Controller, orbit.Camera)
		if err := h.write(img); err != nil {
			h.logger.Errorf("Headless frame %d: %v", h.frame, err)
			cmd.Stop()
			return
		}
	}

	h.frame++
	if h.Frames > 0 && h.frame >= h.Frames {
		h.logger.Infof("Headless run finished: %d frames, %d images in %s", h.frame, len(h.written), h.OutDir)
		cmd.Stop()
	}
}

func (h *HeadlessRenderer) write(img *image.RGBA) error {
	if len(h.written) == 0 {
		if err := os.MkdirAll(h.OutDir, 0o755); err != nil {
			return err
		}
	}
	path := filepath.Join(h.OutDir, fmt.Sprintf("frame_%05d.png", h.frame))
	if err := soft.WritePNG(path, img); err != nil {
		return err
	}
	h.written = append(h.written, path)
	return nil
}
