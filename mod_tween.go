package pointmorph

import (
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tweens advances every active tween once per frame, in the order they were
// started. It implements core.Tweener.
type Tweens struct {
	active []*tweenEntry
}

type tweenEntry struct {
	tween      *gween.Tween
	target     *float32
	onComplete func()
	done       bool
}

func (e *tweenEntry) Cancel()    { e.done = true }
func (e *tweenEntry) Done() bool { return e.done }

func NewTweens() *Tweens {
	return &Tweens{}
}

// Tween writes req.From to the target immediately and starts animating
// from the next Advance.
func (t *Tweens) Tween(req core.TweenSpec) core.TweenHandle {
	easing := ease.Linear
	if req.Easing != nil {
		easing = ease.TweenFunc(req.Easing)
	}
	e := &tweenEntry{
		tween:      gween.New(req.From, req.To, req.Duration, easing),
		target:     req.Target,
		onComplete: req.OnComplete,
	}
	if e.target != nil {
		*e.target = req.From
	}
	t.active = append(t.active, e)
	return e
}

// Advance steps every tween by dt seconds. Tweens started from an
// OnComplete callback begin on the next Advance.
func (t *Tweens) Advance(dt float32) {
	ticking := append([]*tweenEntry(nil), t.active...)
	for _, e := range ticking {
		if e.done {
			continue
		}
		v, finished := e.tween.Update(dt)
		if e.target != nil {
			*e.target = v
		}
		if finished {
			e.done = true
			if e.onComplete != nil {
				e.onComplete()
			}
		}
	}

	live := t.active[:0]
	for _, e := range t.active {
		if !e.done {
			live = append(live, e)
		}
	}
	clear(t.active[len(live):])
	t.active = live
}

// Len reports the number of running tweens.
func (t *Tweens) Len() int {
	n := 0
	for _, e := range t.active {
		if !e.done {
			n++
		}
	}
	return n
}

func (t *Tweens) CancelAll() {
	for _, e := range t.active {
		e.done = true
	}
	t.active = nil
}

type TweenModule struct{}

func (mod TweenModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewTweens())
	cmd.UseSystem(System(tweenSystem).InStage(Update).RunAlways())
}

func tweenSystem(t *Time, tweens *Tweens) {
	tweens.Advance(t.Seconds())
}
