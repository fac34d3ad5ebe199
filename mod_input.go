package pointmorph

import (
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	Key0 int = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEscape
	KeyR
	KeyP
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
)

const maxPointerEvents = 256

type InputModule struct{}

type Input struct {
	Pressed [32]bool

	JustPressed  [32]bool
	JustReleased [32]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	ScrollY                  float64

	WindowWidth, WindowHeight int
	CloseRequested            bool

	pointerEvents []core.PointerEvent
}

// PushPointer queues a cursor move in window coordinates. Events beyond
// the queue capacity replace the newest entry.
func (in *Input) PushPointer(x, y float64, width, height int) {
	ev := core.PointerEvent{
		ClientX: float32(x),
		ClientY: float32(y),
		Width:   float32(width),
		Height:  float32(height),
	}
	if len(in.pointerEvents) >= maxPointerEvents {
		in.pointerEvents[len(in.pointerEvents)-1] = ev
		return
	}
	in.pointerEvents = append(in.pointerEvents, ev)
}

// DrainPointerEvents returns the queued events in arrival order and empties
// the queue.
func (in *Input) DrainPointerEvents() []core.PointerEvent {
	events := in.pointerEvents
	in.pointerEvents = nil
	return events
}

// Tap marks key as pressed for the current frame only.
func (in *Input) Tap(key int) {
	in.JustPressed[key] = true
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputFrameSystem).
			InStage(Prelude).
			RunAlways(),
	)

	ws, ok := GetResource[WindowState](app)
	if !ok {
		return
	}
	input, _ := GetResource[Input](app)
	ws.bindInput(input)
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

func inputFrameSystem(input *Input) {
	input.JustPressed = [32]bool{}
	input.JustReleased = [32]bool{}
	input.MouseDeltaX, input.MouseDeltaY = 0, 0
	input.ScrollY = 0
}

// bindInput routes glfw callbacks into input. Callbacks fire from
// PollEvents on the main goroutine.
func (s *WindowState) bindInput(input *Input) {
	s.windowGlfw.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		width, height := w.GetSize()
		input.PushPointer(x, y, width, height)
	})
	s.windowGlfw.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		input.ScrollY += yoff
	})
}

func (s *WindowState) unbindInput() {
	s.windowGlfw.SetCursorPosCallback(nil)
	s.windowGlfw.SetScrollCallback(nil)
}

func inputSystem(s *WindowState, input *Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		updateButton(input, key, s.windowGlfw.GetKey(glfwKey))
	}
	for btn, glfwBtn := range mouseToGlfw {
		updateButton(input, btn, s.windowGlfw.GetMouseButton(glfwBtn))
	}

	mx, my := s.windowGlfw.GetCursorPos()
	input.MouseDeltaX = mx - input.MouseX
	input.MouseDeltaY = my - input.MouseY
	input.MouseX = mx
	input.MouseY = my

	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()
	input.CloseRequested = s.windowGlfw.ShouldClose()
}

func updateButton(input *Input, key int, action glfw.Action) {
	if glfw.Press == action {
		if !input.Pressed[key] {
			input.JustPressed[key] = true
		}
		input.Pressed[key] = true
	} else if glfw.Release == action {
		if input.Pressed[key] {
			input.JustReleased[key] = true
		}
		input.Pressed[key] = false
	}
}

var keyToGlfw = map[int]glfw.Key{
	Key0:      glfw.Key0,
	Key1:      glfw.Key1,
	Key2:      glfw.Key2,
	Key3:      glfw.Key3,
	Key4:      glfw.Key4,
	Key5:      glfw.Key5,
	Key6:      glfw.Key6,
	Key7:      glfw.Key7,
	Key8:      glfw.Key8,
	Key9:      glfw.Key9,
	KeySpace:  glfw.KeySpace,
	KeyEscape: glfw.KeyEscape,
	KeyR:      glfw.KeyR,
	KeyP:      glfw.KeyP,
}

var mouseToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}
