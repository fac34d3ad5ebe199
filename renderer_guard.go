package pointmorph

import (
	"fmt"
)

// RendererTag records which renderer module owns the Render stage.
type RendererTag struct {
	Name RendererName
}

// ensureSingleRenderer tags app with name, panicking if a different
// renderer was installed first.
func ensureSingleRenderer(app *App, name RendererName) {
	if app == nil {
		panic("ensureSingleRenderer: app is nil")
	}
	tag, ok := GetResource[RendererTag](app)
	if !ok {
		app.addResources(&RendererTag{Name: name})
		return
	}
	if tag.Name != name {
		msg := fmt.Sprintf("Multiple renderers installed: %s and %s", tag.Name, name)
		app.Logger().Errorf("%s", msg)
		panic(msg)
	}
}
