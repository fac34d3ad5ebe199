package pointmorph

type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// Stop asks the app to finish after the current frame.
func (cmd *Commands) Stop() {
	cmd.app.stop()
}

func (cmd *Commands) State() State {
	return cmd.app.state
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

// LastProfile is the previous frame's timing; see App.EnableProfiling.
func (cmd *Commands) LastProfile() FrameProfile {
	return cmd.app.LastProfile()
}
