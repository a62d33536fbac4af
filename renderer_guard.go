package lightbeam

import (
	"fmt"
)

// RendererTag records which beam renderer owns the window.
type RendererTag struct {
	Name string
}

// ensureSingleRenderer panics when a second, different renderer is installed.
// Installing the same renderer twice is a no-op.
func ensureSingleRenderer(app *App, name string) {
	if app == nil {
		panic("ensureSingleRenderer: app is nil")
	}
	if tag, ok := resource[RendererTag](app); ok {
		if tag.Name != name {
			app.Logger().Errorf("Multiple renderers installed: %s and %s", tag.Name, name)
			panic(fmt.Sprintf("Multiple renderers installed: %s and %s", tag.Name, name))
		}
		return
	}
	app.addResources(&RendererTag{Name: name})
}
