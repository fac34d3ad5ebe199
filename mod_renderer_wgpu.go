package pointmorph

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/pointmorph/morphrt/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// WgpuRendererModule draws the particle cloud to the window surface.
type WgpuRendererModule struct {
	Gpu        *GpuState
	ClearColor wgpu.Color
}

type WgpuRenderer struct {
	gpu    *GpuState
	pass   *gpu.ParticlePass
	clear  wgpu.Color
	failed bool
	logger Logger
}

func (mod WgpuRendererModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, RendererWGPU)
	if mod.Gpu == nil {
		panic("WgpuRendererModule: nil GpuState")
	}
	cmd.AddResources(mod.Gpu, &WgpuRenderer{
		gpu:    mod.Gpu,
		clear:  mod.ClearColor,
		logger: app.Logger().With("wgpu"),
	})
	app.UseSystem(
		System(wgpuRenderSystem).
			InStage(Render).
			RunAlways(),
	)
}

func wgpuRenderSystem(r *WgpuRenderer, ws *WindowState, cloud *ParticleCloud, orbit *OrbitCamera) {
	width, height := ws.FramebufferSize()
	if width <= 0 || height <= 0 {
		return
	}
	if r.gpu.Resize(width, height) {
		r.logger.Debugf("Surface resized to %dx%d", width, height)
	}

	if cloud.Ready() {
		if r.pass == nil && !r.failed {
			pass, err := gpu.NewParticlePass(r.gpu.device, r.gpu.Format(), cloud.Controller.Schedule())
			if err != nil {
				r.failed = true
				r.logger.Errorf("Particle pass: %v", err)
			} else {
				r.pass = pass
			}
		}
		if r.pass != nil {
			u := cloud.Controller.Uniforms()
			u.Resolution = mgl32.Vec2{float32(width), float32(height)}
			uniforms := gpu.NewParticleUniforms(*u, orbit.Camera)
			if err := r.pass.Update(r.gpu.queue, cloud.Controller.Geometry(), uniforms); err != nil {
				r.logger.Warnf("Particle upload: %v", err)
			}
		}
	}

	r.drawFrame()
}

func (r *WgpuRenderer) drawFrame() {
	nextTexture, err := r.gpu.surface.GetCurrentTexture()
	if err != nil {
		r.logger.Warnf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		r.logger.Warnf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := r.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		r.logger.Warnf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: r.clear,
		}},
	})
	if r.pass != nil {
		r.pass.Draw(rPass)
	}
	if err := rPass.End(); err != nil {
		r.logger.Warnf("Render pass End failed: %v", err)
	}
	rPass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		r.logger.Warnf("Encoder Finish failed: %v", err)
		return
	}
	defer cmd.Release()
	r.gpu.queue.Submit(cmd)
	r.gpu.surface.Present()
}

// Release frees the particle pass and the GPU device. Safe to call twice.
func (r *WgpuRenderer) Release() {
	if r.pass != nil {
		r.pass.Release()
		r.pass = nil
	}
	r.gpu.Release()
}
