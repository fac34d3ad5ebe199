package pointmorph

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
)

const (
	StateLoading State = iota
	StateRunning
	StateExiting
)

// ParticleCloud is the live morph controller and its pointer displacer.
// Both are nil until loading completes.
type ParticleCloud struct {
	Controller *core.Controller
	Displacer  *core.Displacer
	DecayMode  DecayMode
	// LoadErr is set when the sources could not be turned into a cloud.
	LoadErr error

	logger Logger
}

func (c *ParticleCloud) Ready() bool {
	return c.Controller != nil && !c.Controller.Released()
}

// Morph starts a transition to target k and logs it.
func (c *ParticleCloud) Morph(k int) error {
	if !c.Ready() {
		return core.ErrControllerReleased
	}
	from := c.Controller.Index()
	if err := c.Controller.Morph(k); err != nil {
		return err
	}
	c.logger.Infof("Morph %d -> %d (%s, %s)", from, k, c.Controller.TargetName(k), c.Controller.Preemption())
	return nil
}

// MorphNext morphs to the target after the current one, wrapping around.
func (c *ParticleCloud) MorphNext() error {
	if !c.Ready() {
		return core.ErrControllerReleased
	}
	return c.Morph((c.Controller.Index() + 1) % c.Controller.NumTargets())
}

type particleLoader struct {
	sources []string
	opts    core.ControllerOptions
	pointer core.PointerConfig
	ctx     context.Context
	cancel  context.CancelFunc
	job     *LoadJob
}

type ParticleMorphModule struct {
	Config Config
}

func (mod ParticleMorphModule) Install(app *App, cmd *Commands) {
	cfg := mod.Config
	preemption, err := core.ParsePreemption(cfg.Particles.Preemption)
	if err != nil {
		panic(err)
	}

	seed := cfg.Particles.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := core.DefaultControllerOptions(rand.New(rand.NewSource(seed)), nil)
	opts.Schedule = cfg.Schedule()
	opts.TweenDuration = cfg.Particles.TweenDuration
	opts.Preemption = preemption
	opts.Uniforms = cfg.Uniforms()

	ctx, cancel := context.WithCancel(context.Background())
	cmd.AddResources(
		&ParticleCloud{DecayMode: cfg.Pointer.DecayMode, logger: app.Logger().With("particles")},
		&particleLoader{
			sources: cfg.Particles.Sources,
			opts:    opts,
			pointer: cfg.DisplacerConfig(),
			ctx:     ctx,
			cancel:  cancel,
		},
	)

	app.UseSystem(
		System(particleLoadStartSystem).
			InStage(Prelude).
			InState(OnEnter(StateLoading)),
	)
	app.UseSystem(
		System(particleLoadPollSystem).
			InStage(Update).
			InState(OnExecute(StateLoading)),
	)
	app.UseSystem(
		System(pointerSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(morphKeySystem).
			InStage(PreUpdate).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(displacementDecaySystem).
			InStage(Update).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(particleReleaseSystem).
			InStage(Finale).
			InState(OnEnter(StateExiting)),
	)
}

func particleLoadStartSystem(assets *AssetServer, loader *particleLoader) {
	loader.job = assets.LoadAsync(loader.ctx, loader.sources)
}

func particleLoadPollSystem(loader *particleLoader, cloud *ParticleCloud, tweens *Tweens, cmd *Commands) {
	if loader.job == nil || !loader.job.Finished() {
		return
	}
	meshes, err := loader.job.Result()
	if err == nil {
		opts := loader.opts
		opts.Tweener = tweens
		var ctrl *core.Controller
		ctrl, err = core.NewController(meshes, opts)
		if err == nil {
			cloud.Controller = ctrl
			cloud.Displacer = core.NewDisplacer(ctrl, loader.pointer)
		}
	}
	if err != nil {
		cloud.LoadErr = fmt.Errorf("particle cloud: %w", err)
		cloud.logger.Errorf("%v", cloud.LoadErr)
		cmd.Stop()
		return
	}

	cloud.logger.Infof("Particle cloud ready: %d particles, %d targets", cloud.Controller.Count(), cloud.Controller.NumTargets())
	cmd.ChangeState(StateRunning)
}

// pointerSystem applies queued pointer moves. Events that arrive before
// the cloud exists are dropped.
func pointerSystem(input *Input, cloud *ParticleCloud, orbit *OrbitCamera) {
	events := input.DrainPointerEvents()
	if !cloud.Ready() {
		return
	}
	for _, ev := range events {
		cloud.Displacer.OnPointerMove(ev, orbit.Camera)
	}
}

func morphKeySystem(input *Input, cloud *ParticleCloud) {
	if !cloud.Ready() {
		return
	}
	for key := Key1; key <= Key9; key++ {
		if !input.JustPressed[key] {
			continue
		}
		k := key - Key1
		if err := cloud.Morph(k); err != nil {
			if errors.Is(err, core.ErrTargetOutOfRange) {
				cloud.logger.Debugf("No morph target %d", k)
				continue
			}
			cloud.logger.Warnf("Morph %d: %v", k, err)
		}
	}
	if input.JustPressed[KeySpace] {
		if err := cloud.MorphNext(); err != nil {
			cloud.logger.Warnf("Morph next: %v", err)
		}
	}
	if input.JustPressed[KeyP] {
		ctrl := cloud.Controller
		next := ctrl.Preemption().Next()
		ctrl.SetPreemption(next)
		cloud.logger.Infof("Preemption policy: %s", next)
	}
}

func displacementDecaySystem(cloud *ParticleCloud, t *Time) {
	if !cloud.Ready() {
		return
	}
	if cloud.DecayMode == DecayPerTime {
		cloud.Displacer.UpdateDelta(t.Seconds())
		return
	}
	cloud.Displacer.Update()
}

func particleReleaseSystem(loader *particleLoader, cloud *ParticleCloud) {
	loader.cancel()
	if cloud.Controller != nil {
		cloud.Controller.Release()
	}
}
