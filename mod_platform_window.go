package pointmorph

// PlatformWindowModule publishes an already opened window as the shared
// WindowState resource and watches it for close requests and resizes.
// Install is idempotent: if a WindowState resource already exists, it is reused.
type PlatformWindowModule struct {
	Window *WindowState
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := GetResource[WindowState](app); ok {
		// Only one window per app.
		return
	}
	if m.Window == nil {
		panic("PlatformWindowModule: nil window")
	}

	app.addResources(m.Window)
	app.UseSystem(
		System(windowSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func windowSystem(ws *WindowState, input *Input, cmd *Commands) {
	if input.CloseRequested || input.JustPressed[KeyEscape] {
		cmd.Stop()
	}
	ws.WindowWidth, ws.WindowHeight = input.WindowWidth, input.WindowHeight
}
