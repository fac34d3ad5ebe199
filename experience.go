package pointmorph

import (
	"context"
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// Experience wires the particle morph demo into an App: loaders, the morph
// controller, pointer displacement, a renderer and the optional debug panel.
type Experience struct {
	App    *App
	Config Config

	window *WindowState
	closed bool
}

// NewExperience validates cfg and builds the app. Outside headless mode it
// opens the window and GPU device, so it must run on the main goroutine.
func NewExperience(cfg Config) (*Experience, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	e := &Experience{Config: cfg}
	builder := NewAppBuilder().
		UseStates(StateLoading, StateExiting).
		UseModule(LoggingModule{Prefix: "pointmorph", Debug: cfg.Log.Debug})

	aspect := float32(cfg.Window.Width) / float32(cfg.Window.Height)
	var gpuState *GpuState
	if cfg.Headless.Enabled {
		aspect = float32(cfg.Headless.Width) / float32(cfg.Headless.Height)
		builder.UseModule(TimeModule{FixedStep: cfg.FrameStep()})
	} else {
		window, err := OpenWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
		if err != nil {
			return nil, err
		}
		gpuState, err = NewGpuState(window)
		if err != nil {
			window.Close()
			return nil, err
		}
		e.window = window
		builder.UseModule(TimeModule{}, PlatformWindowModule{Window: window})
	}

	builder.UseModule(
		InputModule{},
		TweenModule{},
		AssetServerModule{FitRadius: cfg.Particles.FitRadius, Cells: cfg.Particles.Cells},
		OrbitCameraModule{
			Aspect:    aspect,
			Fov:       cfg.Camera.Fov,
			Distance:  cfg.Camera.Distance,
			Frequency: cfg.Camera.DampingFrequency,
			Damping:   cfg.Camera.DampingRatio,
		},
		ParticleMorphModule{Config: cfg},
	)
	e.App = builder.Build()

	if cfg.Headless.Enabled {
		e.App.UseRenderer(RendererHeadless, HeadlessRendererModule{Config: cfg.Headless})
	} else {
		e.App.UseRenderer(RendererWGPU, WgpuRendererModule{Gpu: gpuState, ClearColor: wgpu.Color{A: 1}})
	}
	e.App.UseModules(DebugPanelModule{Listen: cfg.Debug.Listen, BroadcastFrames: cfg.Debug.BroadcastFrames})

	return e, nil
}

// Run drives the app until it exits, then shuts down. It returns the load
// error if the particle cloud could not be built.
func (e *Experience) Run() error {
	defer e.Shutdown()
	e.App.Run()
	if cloud, ok := GetResource[ParticleCloud](e.App); ok && cloud.LoadErr != nil {
		return cloud.LoadErr
	}
	return nil
}

// Shutdown releases everything the experience owns: tweens, particle
// buffers, the debug server, GPU objects and the window. Idempotent.
func (e *Experience) Shutdown() {
	if e.closed {
		return
	}
	e.closed = true
	app := e.App

	if tweens, ok := GetResource[Tweens](app); ok {
		tweens.CancelAll()
	}
	if loader, ok := GetResource[particleLoader](app); ok {
		loader.cancel()
	}
	if cloud, ok := GetResource[ParticleCloud](app); ok && cloud.Controller != nil {
		cloud.Controller.Release()
	}
	if panel, ok := GetResource[DebugPanel](app); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := panel.Close(ctx); err != nil {
			app.Logger().Warnf("Debug panel shutdown: %v", err)
		}
		cancel()
	}
	if renderer, ok := GetResource[WgpuRenderer](app); ok {
		renderer.Release()
	}
	if e.window != nil {
		e.window.Close()
		e.window = nil
	}
	app.Logger().Infof("Shutdown complete")
}
