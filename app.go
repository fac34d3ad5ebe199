package pointmorph

import (
	"fmt"
	"maps"
	"reflect"
	"time"
)

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]phaseSystems
	systemsStateless   map[string][]system
	resources          map[reflect.Type]any

	started bool
	stopped bool
	done    bool
	frame   uint64

	profiling   bool
	profile     FrameProfile
	lastProfile FrameProfile
}

// FrameProfile is the wall time one frame spent per stage and per system.
// State transitions are included under the stages they ran in.
type FrameProfile struct {
	Frame   uint64
	Total   time.Duration
	Stages  map[string]time.Duration
	Systems map[string]time.Duration
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Run executes frames until the final state is reached (stateful apps) or
// Stop is requested (stateless apps).
func (app *App) Run() {
	for app.Step() {
	}
}

func (app *App) start() {
	if app.started {
		return
	}
	app.started = true

	if app.stateful {
		app.Logger().Debugf("Running in stateful mode...")
		app.state = app.initialState
		app.callSystems(app.state, enter)
	} else {
		app.Logger().Debugf("Running in stateless mode...")
	}
}

// Step runs a single frame and reports whether the app wants more.
func (app *App) Step() bool {
	if app.done {
		return false
	}

	var frameStart time.Time
	if app.profiling {
		frameStart = time.Now()
		app.profile = FrameProfile{
			Frame:   app.frame,
			Stages:  make(map[string]time.Duration, len(app.stages)),
			Systems: make(map[string]time.Duration),
		}
	}

	app.start()
	app.callSystems(app.state, execute)
	app.frame++

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}

		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			app.done = true
		}
	} else if app.stopped {
		app.done = true
	}

	if app.profiling {
		app.profile.Total = time.Since(frameStart)
		app.lastProfile = app.profile
	}
	return !app.done
}

// EnableProfiling makes every following frame record a FrameProfile. Call
// it between frames, not from a system.
func (app *App) EnableProfiling() {
	app.profiling = true
}

// LastProfile returns the profile of the most recent frame. It is empty
// until profiling is enabled and a frame has run.
func (app *App) LastProfile() FrameProfile {
	p := app.lastProfile
	p.Stages = maps.Clone(p.Stages)
	p.Systems = maps.Clone(p.Systems)
	return p
}

// State returns the current app state.
func (app *App) State() State {
	return app.state
}

// Frame returns the number of executed frames.
func (app *App) Frame() uint64 {
	return app.frame
}

func (app *App) Done() bool {
	return app.done
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		var start time.Time
		if app.profiling {
			start = time.Now()
		}

		// stateless systems only run on execute, ahead of the state's own
		if phase == execute {
			for _, sys := range app.systemsStateless[stage.Name] {
				app.callSystem(sys)
			}
		}
		if app.stateful {
			for _, sys := range app.systems[stage.Name][state][phase] {
				app.callSystem(sys)
			}
		}

		if app.profiling {
			app.profile.Stages[stage.Name] += time.Since(start)
		}
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

// stop ends a stateless app after the current frame, or moves a stateful
// app to its final state.
func (app *App) stop() {
	if app.stateful {
		if app.state != app.finalState {
			app.changeState(app.finalState)
		}
		return
	}
	app.stopped = true
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

func (app *App) hasResource(t reflect.Type) bool {
	_, ok := app.resources[t]
	return ok
}

// GetResource returns the resource of type *T registered in app.
func GetResource[T any](app *App) (*T, bool) {
	res, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	typed, ok := res.(*T)
	return typed, ok
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(sys system) {
	systemType := reflect.TypeOf(sys.fn)
	args := make([]reflect.Value, systemType.NumIn())

	for i := range args {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(sys, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlyingType]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(sys, argType)
		}
	}

	if !app.profiling {
		reflect.ValueOf(sys.fn).Call(args)
		return
	}
	start := time.Now()
	reflect.ValueOf(sys.fn).Call(args)
	app.profile.Systems[sys.name] += time.Since(start)
}

func (app *App) unresolved(sys system, dep reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		sys.name, reflect.TypeOf(sys.fn), dep)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}
