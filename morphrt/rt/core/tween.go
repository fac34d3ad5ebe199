package core

// Easing has the (elapsed, begin, change, duration) shape used by Penner
// easing tables.
type Easing func(t, b, c, d float32) float32

func LinearEasing(t, b, c, d float32) float32 {
	if d <= 0 {
		return b + c
	}
	return c*t/d + b
}

// TweenSpec animates *Target from From to To over Duration seconds.
// OnComplete runs once after the final value has been written.
type TweenSpec struct {
	Target     *float32
	From, To   float32
	Duration   float32
	Easing     Easing
	OnComplete func()
}

type TweenHandle interface {
	Cancel()
	Done() bool
}

// Tweener animates numeric values across frames.
type Tweener interface {
	Tween(spec TweenSpec) TweenHandle
}
