package core

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrTargetOutOfRange   = errors.New("morph target out of range")
	ErrControllerReleased = errors.New("controller released")
)

// Preemption decides what a Morph call does while a transition is running.
type Preemption int

const (
	// PreemptRestart re-points position to the previously requested target's
	// buffer and restarts the tween, cancelling the running one.
	PreemptRestart Preemption = iota
	// PreemptRetarget starts the new transition from where the particles
	// currently are.
	PreemptRetarget
	// PreemptQueue lets the running transition settle, then starts the most
	// recently requested one.
	PreemptQueue

	numPreemptions
)

func (p Preemption) String() string {
	switch p {
	case PreemptRestart:
		return "restart"
	case PreemptRetarget:
		return "retarget"
	case PreemptQueue:
		return "queue"
	}
	return fmt.Sprintf("Preemption(%d)", int(p))
}

// Next cycles through the policies.
func (p Preemption) Next() Preemption {
	return (p + 1) % numPreemptions
}

func ParsePreemption(s string) (Preemption, error) {
	switch s {
	case "", "restart":
		return PreemptRestart, nil
	case "retarget":
		return PreemptRetarget, nil
	case "queue":
		return PreemptQueue, nil
	}
	return 0, fmt.Errorf("unknown preemption policy %q", s)
}

type MorphPhase int

const (
	MorphIdle MorphPhase = iota
	MorphTransitioning
)

func (p MorphPhase) String() string {
	if p == MorphTransitioning {
		return "transitioning"
	}
	return "idle"
}

// MorphState is a snapshot of the transition state machine. From and To are
// target indices; when Idle both equal the settled target.
type MorphState struct {
	Phase    MorphPhase
	From     int
	To       int
	Progress float32
}

type ControllerOptions struct {
	Rand          Rand
	Tweener       Tweener // nil completes every morph instantly
	Schedule      Schedule
	TweenDuration float32
	Easing        Easing
	Preemption    Preemption
	Uniforms      Uniforms
}

func DefaultControllerOptions(rng Rand, tweener Tweener) ControllerOptions {
	return ControllerOptions{
		Rand:          rng,
		Tweener:       tweener,
		Schedule:      DefaultSchedule(),
		TweenDuration: DefaultTweenDuration,
		Easing:        LinearEasing,
		Preemption:    PreemptRestart,
		Uniforms:      DefaultUniforms(),
	}
}

// Controller owns the particle geometry and drives transitions between
// morph targets.
type Controller struct {
	opts     ControllerOptions
	targets  []MorphTargetBuffer
	names    []string
	geometry *Geometry
	uniforms Uniforms

	targetAttrs  []*Attribute
	snapshots    [2]*Attribute
	nextSnapshot int
	sizes        *Attribute
	displacement *Attribute

	from    *Attribute
	to      *Attribute
	index   int
	state   MorphState
	pending int
	tween   TweenHandle
	gen     uint64

	bounds      Sphere
	boundsValid bool
	released    bool
}

func NewController(meshes []SourceMesh, opts ControllerOptions) (*Controller, error) {
	if opts.Rand == nil {
		return nil, errors.New("controller needs a random source")
	}
	if opts.Easing == nil {
		opts.Easing = LinearEasing
	}
	if opts.Schedule == (Schedule{}) {
		opts.Schedule = DefaultSchedule()
	}

	targets, err := Normalize(meshes, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("normalize source meshes: %w", err)
	}
	count := targets[0].Count()

	c := &Controller{
		opts:     opts,
		targets:  targets,
		geometry: NewGeometry(),
		uniforms: opts.Uniforms,
		pending:  -1,
	}
	for i, t := range targets {
		c.names = append(c.names, meshes[i].Name)
		c.targetAttrs = append(c.targetAttrs, NewAttribute(fmt.Sprintf("target:%d", i), t, 3))
	}
	for i := range c.snapshots {
		c.snapshots[i] = NewAttribute(fmt.Sprintf("snapshot:%d", i), make([]float32, count*3), 3)
	}

	sizes := make([]float32, count)
	for i := range sizes {
		sizes[i] = 0.1 + opts.Rand.Float32()*0.9
	}
	c.sizes = NewAttribute(AttrSize, sizes, 1)
	c.displacement = NewAttribute(AttrDisplacement, make([]float32, count*3), 3)

	c.from = c.targetAttrs[0]
	c.to = c.targetAttrs[0]
	c.geometry.SetAttribute(AttrPosition, c.from)
	c.geometry.SetAttribute(AttrPositionTarget, c.to)
	c.geometry.SetAttribute(AttrSize, c.sizes)
	c.geometry.SetAttribute(AttrDisplacement, c.displacement)
	c.uniforms.Progress = 0
	c.state = MorphState{Phase: MorphIdle}

	return c, nil
}

// Morph starts a transition to target k. Index reports k as soon as Morph
// returns.
func (c *Controller) Morph(k int) error {
	if c.released {
		return ErrControllerReleased
	}
	if k < 0 || k >= len(c.targets) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrTargetOutOfRange, k, len(c.targets))
	}

	prev := c.index
	if c.state.Phase != MorphTransitioning {
		c.begin(c.targetAttrs[prev], prev, k)
		return nil
	}

	switch c.opts.Preemption {
	case PreemptQueue:
		c.pending = k
		c.index = k
	case PreemptRetarget:
		c.cancelTween()
		from := c.snapshot()
		c.begin(from, c.state.To, k)
	default:
		c.cancelTween()
		c.begin(c.targetAttrs[prev], prev, k)
	}
	return nil
}

func (c *Controller) begin(from *Attribute, fromIndex, k int) {
	c.gen++
	c.from = from
	c.to = c.targetAttrs[k]
	c.geometry.SetAttribute(AttrPosition, c.from)
	c.geometry.SetAttribute(AttrPositionTarget, c.to)

	clear(c.displacement.Data)
	c.displacement.MarkNeedsUpdate()

	c.index = k
	c.boundsValid = false
	c.state = MorphState{Phase: MorphTransitioning, From: fromIndex, To: k}
	c.uniforms.Progress = 0

	if c.opts.Tweener == nil {
		c.uniforms.Progress = 1
		c.settle()
		return
	}

	gen := c.gen
	c.tween = c.opts.Tweener.Tween(TweenSpec{
		Target:   &c.uniforms.Progress,
		From:     0,
		To:       1,
		Duration: c.opts.TweenDuration,
		Easing:   c.opts.Easing,
		OnComplete: func() {
			if gen == c.gen {
				c.settle()
			}
		},
	})
}

func (c *Controller) settle() {
	c.tween = nil
	c.state = MorphState{Phase: MorphIdle, From: c.state.To, To: c.state.To, Progress: 1}
	if c.pending >= 0 {
		k := c.pending
		c.pending = -1
		c.begin(c.to, c.state.To, k)
	}
}

func (c *Controller) cancelTween() {
	if c.tween != nil {
		c.tween.Cancel()
		c.tween = nil
	}
}

// snapshot writes the displayed positions, displacement included, into the
// scratch buffer not currently bound as the origin.
func (c *Controller) snapshot() *Attribute {
	dst := c.snapshots[c.nextSnapshot]
	if dst == c.from {
		c.nextSnapshot ^= 1
		dst = c.snapshots[c.nextSnapshot]
	}
	c.nextSnapshot ^= 1

	disp := c.displacement.Data
	for i := 0; i < c.Count(); i++ {
		p := c.InterpolatedPosition(i)
		dst.Data[i*3] = p[0] + disp[i*3]
		dst.Data[i*3+1] = p[1] + disp[i*3+1]
		dst.Data[i*3+2] = p[2] + disp[i*3+2]
	}
	dst.MarkNeedsUpdate()
	return dst
}

func (c *Controller) Index() int {
	return c.index
}

func (c *Controller) State() MorphState {
	s := c.state
	s.Progress = c.uniforms.Progress
	return s
}

// Pending returns the target waiting behind the running transition.
func (c *Controller) Pending() (int, bool) {
	return c.pending, c.pending >= 0
}

func (c *Controller) Progress() float32 {
	return c.uniforms.Progress
}

func (c *Controller) Count() int {
	return c.sizes.Count()
}

func (c *Controller) NumTargets() int {
	return len(c.targets)
}

func (c *Controller) Target(k int) MorphTargetBuffer {
	return c.targets[k]
}

func (c *Controller) TargetName(k int) string {
	return c.names[k]
}

func (c *Controller) Geometry() *Geometry {
	return c.geometry
}

// Uniforms is live: renderers read it every frame and tweens write
// Progress through it.
func (c *Controller) Uniforms() *Uniforms {
	return &c.uniforms
}

func (c *Controller) Schedule() Schedule {
	return c.opts.Schedule
}

func (c *Controller) Preemption() Preemption {
	return c.opts.Preemption
}

func (c *Controller) SetPreemption(p Preemption) {
	c.opts.Preemption = p
}

func (c *Controller) Sizes() []float32 {
	return c.sizes.Data
}

func (c *Controller) Displacement() *Attribute {
	return c.displacement
}

func (c *Controller) origin(i int) mgl32.Vec3 {
	d := c.from.Data
	return mgl32.Vec3{d[i*3], d[i*3+1], d[i*3+2]}
}

func (c *Controller) destination(i int) mgl32.Vec3 {
	d := c.to.Data
	return mgl32.Vec3{d[i*3], d[i*3+1], d[i*3+2]}
}

// InterpolatedPosition evaluates particle i at the current progress,
// without displacement.
func (c *Controller) InterpolatedPosition(i int) mgl32.Vec3 {
	p, _ := c.opts.Schedule.Position(c.origin(i), c.destination(i), c.uniforms.Progress)
	return p
}

// Evaluate returns particle i's interpolated position and stagger noise.
func (c *Controller) Evaluate(i int) (mgl32.Vec3, float32) {
	return c.opts.Schedule.Position(c.origin(i), c.destination(i), c.uniforms.Progress)
}

// InterpolatedPositions fills dst (grown as needed) with every particle's
// interpolated position.
func (c *Controller) InterpolatedPositions(dst []float32) []float32 {
	n := c.Count() * 3
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := 0; i < c.Count(); i++ {
		p := c.InterpolatedPosition(i)
		dst[i*3], dst[i*3+1], dst[i*3+2] = p[0], p[1], p[2]
	}
	return dst
}

// Bounds encloses the origin and destination buffers, and so every
// interpolated position of the running transition.
func (c *Controller) Bounds() Sphere {
	if !c.boundsValid {
		c.bounds = BoundingSphere(c.from.Data, c.to.Data)
		c.boundsValid = true
	}
	return c.bounds
}

// Release cancels the running tween and drops every buffer. Further Morph
// calls fail with ErrControllerReleased.
func (c *Controller) Release() {
	if c.released {
		return
	}
	c.cancelTween()
	c.gen++
	c.released = true
	c.pending = -1
	c.targets = nil
	c.targetAttrs = nil
	c.geometry = NewGeometry()
}

func (c *Controller) Released() bool {
	return c.released
}
