package pointmorph

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_PointerQueue(t *testing.T) {
	in := &Input{}
	in.PushPointer(10, 20, 100, 50)
	in.PushPointer(30, 40, 100, 50)

	events := in.DrainPointerEvents()
	require.Len(t, events, 2)
	assert.Equal(t, float32(10), events[0].ClientX)
	assert.Equal(t, float32(40), events[1].ClientY)
	assert.Equal(t, float32(50), events[1].Height)
	assert.Empty(t, in.DrainPointerEvents())
}

func TestInput_PointerQueueKeepsNewest(t *testing.T) {
	in := &Input{}
	for i := 0; i < maxPointerEvents+10; i++ {
		in.PushPointer(float64(i), 0, 1, 1)
	}
	events := in.DrainPointerEvents()
	require.Len(t, events, maxPointerEvents)
	assert.Equal(t, float32(maxPointerEvents+9), events[len(events)-1].ClientX)
}

func TestInput_FrameReset(t *testing.T) {
	app := NewAppBuilder().UseModule(InputModule{}).Build()
	in, ok := GetResource[Input](app)
	require.True(t, ok)

	in.Tap(KeySpace)
	in.ScrollY = 2
	in.Pressed[KeyR] = true
	app.Step()

	assert.False(t, in.JustPressed[KeySpace])
	assert.Zero(t, in.ScrollY)
	assert.True(t, in.Pressed[KeyR], "held state survives the frame reset")
}

func TestUpdateButton(t *testing.T) {
	in := &Input{}
	updateButton(in, KeyP, glfw.Press)
	assert.True(t, in.Pressed[KeyP])
	assert.True(t, in.JustPressed[KeyP])

	in.JustPressed = [32]bool{}
	updateButton(in, KeyP, glfw.Press)
	assert.False(t, in.JustPressed[KeyP])

	updateButton(in, KeyP, glfw.Release)
	assert.False(t, in.Pressed[KeyP])
	assert.True(t, in.JustReleased[KeyP])
}
