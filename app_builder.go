package pointmorph

import (
	"reflect"
	"slices"
)

type Module interface {
	Install(app *App, cmd *Commands)
}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: &App{
		resources:        make(map[reflect.Type]any),
		systems:          make(map[string]map[State]phaseSystems),
		systemsStateless: make(map[string][]system),
		stages:           slices.Clone(defaultStages),
		stateful:         false,
	}}
}

func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.app.stateful = true
	b.app.initialState = initialState
	b.app.finalState = finalState

	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	for _, stage := range app.stages {
		app.initStatefulStage(stage)
	}

	app.UseModules(b.modules...)

	return app
}

// UseModules installs modules into an already built app, in order.
func (app *App) UseModules(modules ...Module) *App {
	commands := &Commands{app: app}
	for _, module := range modules {
		module.Install(app, commands)
	}
	return app
}
