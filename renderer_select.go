package pointmorph

// RendererName identifies a renderer module.
type RendererName string

const (
	RendererWGPU     RendererName = "wgpu"
	RendererHeadless RendererName = "headless"
)

// UseRenderer installs mod as the app's only renderer:
//
//	app.UseRenderer(RendererHeadless, HeadlessRendererModule{Config: cfg.Headless})
func (app *App) UseRenderer(name RendererName, mod Module) *App {
	ensureSingleRenderer(app, name)
	app.Logger().Infof("Renderer selected: %s", name)
	app.UseModules(mod)
	return app
}
