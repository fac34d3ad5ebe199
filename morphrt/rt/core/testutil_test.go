package core

import (
	"math/rand"
)

type manualTween struct {
	spec      TweenSpec
	elapsed   float32
	cancelled bool
	done      bool
}

func (t *manualTween) Cancel()    { t.cancelled = true }
func (t *manualTween) Done() bool { return t.done || t.cancelled }

// manualTweener advances tweens only when told to.
type manualTweener struct {
	tweens []*manualTween
}

func (m *manualTweener) Tween(spec TweenSpec) TweenHandle {
	t := &manualTween{spec: spec}
	m.tweens = append(m.tweens, t)
	return t
}

func (m *manualTweener) active() []*manualTween {
	var out []*manualTween
	for _, t := range m.tweens {
		if !t.Done() {
			out = append(out, t)
		}
	}
	return out
}

func (m *manualTweener) Advance(dt float32) {
	for _, t := range m.active() {
		if t.Done() {
			continue
		}
		t.elapsed += dt
		if t.elapsed >= t.spec.Duration {
			*t.spec.Target = t.spec.To
			t.done = true
			if t.spec.OnComplete != nil {
				t.spec.OnComplete()
			}
			continue
		}
		*t.spec.Target = t.spec.Easing(t.elapsed, t.spec.From, t.spec.To-t.spec.From, t.spec.Duration)
	}
}

type countingRand struct {
	*rand.Rand
	intn int
}

func (r *countingRand) Intn(n int) int {
	r.intn++
	return r.Rand.Intn(n)
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func randomMesh(rng *rand.Rand, name string, count int) SourceMesh {
	pos := make([]float32, count*3)
	for i := range pos {
		pos[i] = rng.Float32()*4 - 2
	}
	return NewSourceMesh(name, pos)
}
