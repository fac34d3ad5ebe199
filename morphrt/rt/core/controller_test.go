package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, counts []int, tweener Tweener, preempt Preemption) *Controller {
	t.Helper()
	src := newRand(5)
	var meshes []SourceMesh
	for i, c := range counts {
		meshes = append(meshes, randomMesh(src, string(rune('a'+i)), c))
	}
	opts := DefaultControllerOptions(newRand(9), tweener)
	opts.Preemption = preempt
	ctrl, err := NewController(meshes, opts)
	require.NoError(t, err)
	return ctrl
}

func TestController_InitialState(t *testing.T) {
	ctrl := newTestController(t, []int{30, 50}, &manualTweener{}, PreemptRetarget)

	assert.Equal(t, 0, ctrl.Index())
	assert.Equal(t, 50, ctrl.Count())
	assert.Equal(t, 2, ctrl.NumTargets())
	assert.Equal(t, MorphIdle, ctrl.State().Phase)
	assert.Equal(t, float32(0), ctrl.Progress())

	g := ctrl.Geometry()
	require.NotNil(t, g.Attribute(AttrPosition))
	assert.Same(t, g.Attribute(AttrPosition), g.Attribute(AttrPositionTarget))
	assert.Equal(t, []float32(ctrl.Target(0)), g.Attribute(AttrPosition).Data)

	for _, s := range ctrl.Sizes() {
		assert.GreaterOrEqual(t, s, float32(0.1))
		assert.Less(t, s, float32(1.0))
	}
	for _, d := range ctrl.Displacement().Data {
		assert.Equal(t, float32(0), d)
	}
}

func TestController_MorphRepointsAttributes(t *testing.T) {
	tweener := &manualTweener{}
	ctrl := newTestController(t, []int{20, 40, 10, 25}, tweener, PreemptRetarget)
	ctrl.Displacement().Data[4] = 3
	version := ctrl.Displacement().Version

	require.NoError(t, ctrl.Morph(2))

	g := ctrl.Geometry()
	assert.Equal(t, []float32(ctrl.Target(0)), g.Attribute(AttrPosition).Data)
	assert.Equal(t, []float32(ctrl.Target(2)), g.Attribute(AttrPositionTarget).Data)
	assert.Equal(t, 2, ctrl.Index())
	assert.Greater(t, ctrl.Displacement().Version, version)
	for _, d := range ctrl.Displacement().Data {
		assert.Equal(t, float32(0), d)
	}

	require.Len(t, tweener.tweens, 1)
	spec := tweener.tweens[0].spec
	assert.Equal(t, float32(0), spec.From)
	assert.Equal(t, float32(1), spec.To)
	assert.Equal(t, float32(2), spec.Duration)
	assert.Same(t, &ctrl.Uniforms().Progress, spec.Target)
	assert.InDelta(t, 0.25, spec.Easing(0.5, 0, 1, 2), 1e-6)

	state := ctrl.State()
	assert.Equal(t, MorphTransitioning, state.Phase)
	assert.Equal(t, 0, state.From)
	assert.Equal(t, 2, state.To)
}

func TestController_IndexUpdatesBeforeTweenCompletes(t *testing.T) {
	tweener := &manualTweener{}
	ctrl := newTestController(t, []int{10, 10, 10}, tweener, PreemptRetarget)

	require.NoError(t, ctrl.Morph(1))
	tweener.Advance(0.5)
	assert.Equal(t, 1, ctrl.Index())
	assert.InDelta(t, 0.25, ctrl.Progress(), 1e-6)

	tweener.Advance(2)
	assert.Equal(t, float32(1), ctrl.Progress())
	assert.Equal(t, MorphIdle, ctrl.State().Phase)
	assert.Equal(t, 1, ctrl.State().To)
}

func TestController_MorphOutOfRange(t *testing.T) {
	tweener := &manualTweener{}
	ctrl := newTestController(t, []int{10, 10}, tweener, PreemptRetarget)
	pos := ctrl.Geometry().Attribute(AttrPosition)

	assert.ErrorIs(t, ctrl.Morph(2), ErrTargetOutOfRange)
	assert.ErrorIs(t, ctrl.Morph(-1), ErrTargetOutOfRange)
	assert.Equal(t, 0, ctrl.Index())
	assert.Same(t, pos, ctrl.Geometry().Attribute(AttrPosition))
	assert.Empty(t, tweener.tweens)
}

func TestController_RetargetStartsFromDisplayedPositions(t *testing.T) {
	tweener := &manualTweener{}
	ctrl := newTestController(t, []int{16, 16, 16}, tweener, PreemptRetarget)

	require.NoError(t, ctrl.Morph(1))
	tweener.Advance(1)
	ctrl.Displacement().Data[0] = 0.5

	displayed := ctrl.InterpolatedPositions(nil)
	displayed[0] += 0.5

	require.NoError(t, ctrl.Morph(2))
	assert.True(t, tweener.tweens[0].cancelled)
	assert.Equal(t, 2, ctrl.Index())
	assert.Equal(t, float32(0), ctrl.Progress())

	from := ctrl.Geometry().Attribute(AttrPosition)
	assert.Equal(t, displayed, from.Data)
	for i := 0; i < ctrl.Count(); i++ {
		p := ctrl.InterpolatedPosition(i)
		assert.Equal(t, displayed[i*3:i*3+3], []float32{p[0], p[1], p[2]})
	}

	// a second retarget must not overwrite the buffer it reads from
	tweener.Advance(0.5)
	require.NoError(t, ctrl.Morph(0))
	assert.NotSame(t, from, ctrl.Geometry().Attribute(AttrPosition))
}

func TestController_QueueWaitsForSettle(t *testing.T) {
	tweener := &manualTweener{}
	ctrl := newTestController(t, []int{8, 8, 8, 8}, tweener, PreemptQueue)

	require.NoError(t, ctrl.Morph(1))
	tweener.Advance(1)
	require.NoError(t, ctrl.Morph(2))
	require.NoError(t, ctrl.Morph(3))

	assert.Equal(t, 3, ctrl.Index())
	pending, ok := ctrl.Pending()
	assert.True(t, ok)
	assert.Equal(t, 3, pending)
	assert.Len(t, tweener.tweens, 1)
	assert.Equal(t, []float32(ctrl.Target(1)), ctrl.Geometry().Attribute(AttrPositionTarget).Data)

	tweener.Advance(1)
	require.Len(t, tweener.tweens, 2)
	_, ok = ctrl.Pending()
	assert.False(t, ok)
	assert.Equal(t, []float32(ctrl.Target(1)), ctrl.Geometry().Attribute(AttrPosition).Data)
	assert.Equal(t, []float32(ctrl.Target(3)), ctrl.Geometry().Attribute(AttrPositionTarget).Data)
	assert.Equal(t, float32(0), ctrl.Progress())

	tweener.Advance(2)
	assert.Equal(t, MorphIdle, ctrl.State().Phase)
	assert.Equal(t, 3, ctrl.State().To)
}

func TestController_RestartRepointsFromPreviousIndex(t *testing.T) {
	tweener := &manualTweener{}
	ctrl := newTestController(t, []int{8, 8, 8}, tweener, PreemptRestart)

	require.NoError(t, ctrl.Morph(1))
	tweener.Advance(1)
	require.NoError(t, ctrl.Morph(2))

	assert.True(t, tweener.tweens[0].cancelled)
	assert.Equal(t, []float32(ctrl.Target(1)), ctrl.Geometry().Attribute(AttrPosition).Data)
	assert.Equal(t, []float32(ctrl.Target(2)), ctrl.Geometry().Attribute(AttrPositionTarget).Data)

	// the cancelled tween must not settle the new transition
	tweener.tweens[0].spec.OnComplete()
	assert.Equal(t, MorphTransitioning, ctrl.State().Phase)
}

func TestController_DefaultMidFlightMorphStartsFromPreviousIndex(t *testing.T) {
	tweener := &manualTweener{}
	meshes := []SourceMesh{
		randomMesh(newRand(3), "a", 6),
		randomMesh(newRand(4), "b", 6),
		randomMesh(newRand(5), "c", 6),
	}
	ctrl, err := NewController(meshes, DefaultControllerOptions(newRand(1), tweener))
	require.NoError(t, err)
	require.Equal(t, PreemptRestart, ctrl.Preemption())

	require.NoError(t, ctrl.Morph(1))
	tweener.Advance(0.5)
	require.NoError(t, ctrl.Morph(2))

	pos := ctrl.Geometry().Attribute(AttrPosition)
	assert.Equal(t, "target:1", pos.Name)
	assert.Equal(t, []float32(ctrl.Target(1)), pos.Data)
	assert.Equal(t, "target:2", ctrl.Geometry().Attribute(AttrPositionTarget).Name)
	assert.Equal(t, 2, ctrl.Index())
	assert.Equal(t, float32(0), ctrl.Progress())
}

func TestController_WithoutTweenerSettlesImmediately(t *testing.T) {
	ctrl := newTestController(t, []int{8, 12}, nil, PreemptRetarget)

	require.NoError(t, ctrl.Morph(1))
	assert.Equal(t, float32(1), ctrl.Progress())
	assert.Equal(t, MorphIdle, ctrl.State().Phase)
	for i := 0; i < ctrl.Count(); i++ {
		p := ctrl.InterpolatedPosition(i)
		assert.Equal(t, ctrl.Target(1).At(i), [3]float32(p))
	}
}

func TestController_Bounds(t *testing.T) {
	meshes := []SourceMesh{
		NewSourceMesh("a", []float32{-1, 0, 0, 1, 0, 0}),
		NewSourceMesh("b", []float32{0, 4, 0, 0, 6, 0}),
	}
	ctrl, err := NewController(meshes, DefaultControllerOptions(newRand(1), nil))
	require.NoError(t, err)

	b := ctrl.Bounds()
	assert.Equal(t, float32(1), b.Radius)

	require.NoError(t, ctrl.Morph(1))
	b = ctrl.Bounds()
	assert.InDelta(t, 3, b.Center.Y(), 1e-6)
	assert.InDelta(t, 3.1623, b.Radius, 1e-3)
}

func TestController_Release(t *testing.T) {
	tweener := &manualTweener{}
	ctrl := newTestController(t, []int{8, 8}, tweener, PreemptRetarget)
	require.NoError(t, ctrl.Morph(1))

	ctrl.Release()
	ctrl.Release()
	assert.True(t, tweener.tweens[0].cancelled)
	assert.True(t, ctrl.Released())
	assert.ErrorIs(t, ctrl.Morph(0), ErrControllerReleased)
	assert.Nil(t, ctrl.Geometry().Attribute(AttrPosition))
}

func TestNewController_Errors(t *testing.T) {
	_, err := NewController(nil, DefaultControllerOptions(newRand(1), nil))
	assert.ErrorIs(t, err, ErrNoSourceMeshes)

	_, err = NewController([]SourceMesh{NewSourceMesh("a", []float32{0, 0, 0})}, ControllerOptions{})
	assert.Error(t, err)
}

func TestParsePreemption(t *testing.T) {
	for _, p := range []Preemption{PreemptRetarget, PreemptQueue, PreemptRestart} {
		got, err := ParsePreemption(p.String())
		assert.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePreemption("bogus")
	assert.Error(t, err)

	p, err := ParsePreemption("")
	assert.NoError(t, err)
	assert.Equal(t, PreemptRestart, p)
	assert.Equal(t, PreemptRetarget, PreemptRestart.Next())
	assert.Equal(t, PreemptRestart, PreemptQueue.Next())
}
