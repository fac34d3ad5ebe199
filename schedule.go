package pointmorph

import (
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"
)

type State int

// Stage is a named slot in the frame. Stages run in order; within a stage
// stateless systems run before the systems of the current state.
type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Finale     = Stage{Name: "Finale"}
)

var defaultStages = []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale}

type statePhase int

const (
	enter statePhase = iota
	execute
	exit
)

func (p statePhase) String() string {
	switch p {
	case enter:
		return "enter"
	case execute:
		return "execute"
	case exit:
		return "exit"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type systemFn any

// system is a scheduled function plus the name it reports under in
// profiles and dependency errors.
type system struct {
	fn   systemFn
	name string
}

type phaseSystems map[statePhase][]system

type stateSchedule struct {
	state  State
	phase  statePhase
	always bool
}

func OnEnter(state State) stateSchedule {
	return stateSchedule{state: state, phase: enter}
}

func OnExecute(state State) stateSchedule {
	return stateSchedule{state: state, phase: execute}
}

func OnExit(state State) stateSchedule {
	return stateSchedule{state: state, phase: exit}
}

// Always schedules a system on every frame regardless of state.
func Always() stateSchedule {
	return stateSchedule{always: true}
}

type systemScheduleBuilder struct {
	sys           system
	inStage       Stage
	runAlways     bool
	state         stateSchedule
	stateProvided bool
}

// System schedules fn in the Update stage, on every frame. Its arguments
// are resolved from app resources, plus *Commands.
func System(fn systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		sys:     system{fn: fn, name: systemName(fn)},
		inStage: Update,
	}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	sched.inStage = s
	return sched
}

func (sched systemScheduleBuilder) InState(s stateSchedule) systemScheduleBuilder {
	sched.state = s
	sched.runAlways = s.always
	sched.stateProvided = true
	return sched
}

func (sched systemScheduleBuilder) RunAlways() systemScheduleBuilder {
	sched.runAlways = true
	return sched
}

// Named overrides the name derived from the function.
func (sched systemScheduleBuilder) Named(name string) systemScheduleBuilder {
	sched.sys.name = name
	return sched
}

// systemName is the function name without its package path, e.g.
// "pointmorph.tweenSystem" or "pointmorph.TestApp.func1".
func systemName(fn systemFn) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("system must be a function, got %T", fn))
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return fmt.Sprintf("%T", fn)
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePlacement struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePlacement {
	return stagePlacement{position: stageBefore, target: s}
}

func AfterStage(s Stage) stagePlacement {
	return stagePlacement{position: stageAfter, target: s}
}

func (app *App) UseStage(stage Stage, where stagePlacement) *App {
	idx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == where.target.Name })
	if idx == -1 {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}
	if where.position == stageAfter {
		idx++
	}

	app.stages = slices.Insert(app.stages, idx, stage)
	app.initStatefulStage(stage)
	return app
}

func (app *App) UseSystem(sched systemScheduleBuilder) *App {
	stageName := sched.inStage.Name
	if _, ok := app.systemsStateless[stageName]; !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist (system %s)", stageName, sched.sys.name))
	}

	if sched.runAlways || !sched.stateProvided {
		app.systemsStateless[stageName] = append(app.systemsStateless[stageName], sched.sys)
		return app
	}

	if !app.stateful {
		panic(fmt.Sprintf("Trying to use a stateful system in a stateless app (system %s).", sched.sys.name))
	}
	byPhase, ok := app.systems[stageName][sched.state.state]
	if !ok {
		panic(fmt.Sprintf("State %v doesn't exist (system %s)", sched.state.state, sched.sys.name))
	}
	byPhase[sched.state.phase] = append(byPhase[sched.state.phase], sched.sys)
	return app
}

// initStatefulStage creates the system lists of a stage. Safe to call
// again for a stage that already has them.
func (app *App) initStatefulStage(stage Stage) {
	if _, ok := app.systemsStateless[stage.Name]; !ok {
		app.systemsStateless[stage.Name] = nil
	}
	if !app.stateful {
		return
	}
	if _, ok := app.systems[stage.Name]; ok {
		return
	}
	byState := make(map[State]phaseSystems)
	for state := app.initialState; state <= app.finalState; state++ {
		byState[state] = make(phaseSystems)
	}
	app.systems[stage.Name] = byState
}
