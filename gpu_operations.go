package pointmorph

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowState struct {
	// glfw
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
}

// OpenWindow creates the glfw window without a client API. The calling
// goroutine is locked to its OS thread for the rest of the program.
func OpenWindow(windowWidth int, windowHeight int, windowTitle string) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Important: tell GLFW we don't want OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}, nil
}

// FramebufferSize returns the drawable size in pixels.
func (s *WindowState) FramebufferSize() (int, int) {
	return s.windowGlfw.GetFramebufferSize()
}

func (s *WindowState) Close() {
	if s.windowGlfw == nil {
		return
	}
	s.unbindInput()
	s.windowGlfw.Destroy()
	s.windowGlfw = nil
	glfw.Terminate()
}

func NewGpuState(s *WindowState) (*GpuState, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	// wraps GLFW window into a wgpu surface.
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	// finds a suitable GPU (discrete GPU preferred)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	// allocates the device and command queue
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return nil, errors.New("surface reports no formats")
	}
	width, height := s.FramebufferSize()
	// defines how the swapchain behaves (size, format, vsync)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}

	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}, nil
}

func (g *GpuState) Format() wgpu.TextureFormat {
	return g.surfaceConfig.Format
}

// Resize reconfigures the surface when the framebuffer size changed.
// Zero sizes (minimized windows) are ignored.
func (g *GpuState) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if g.surfaceConfig.Width == uint32(width) && g.surfaceConfig.Height == uint32(height) {
		return false
	}
	g.surfaceConfig.Width = uint32(width)
	g.surfaceConfig.Height = uint32(height)
	g.surface.Configure(g.adapter, g.device, g.surfaceConfig)
	return true
}

func (g *GpuState) Release() {
	if g.device == nil {
		return
	}
	g.queue.Release()
	g.device.Release()
	g.adapter.Release()
	g.surface.Release()
	g.device = nil
}
