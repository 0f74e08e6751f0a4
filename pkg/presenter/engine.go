package presenter

import (
	"context"

	"github.com/plinth3d/plinth/pkg/models"
	"github.com/plinth3d/plinth/pkg/render"
)

// Engine is the render surface the presenter drives. The reference
// implementation is render.Surface; tests substitute a stub.
type Engine interface {
	// Attach adds a loaded model's node hierarchy under the given id,
	// replacing any node already attached with that id.
	Attach(id string, node *models.Node)
	// Detach removes the node attached under id, if any.
	Detach(id string)
	// Camera returns the active camera. The pointer stays valid until
	// Release.
	Camera() *render.Camera
	// Framebuffer returns the surface's pixel buffer.
	Framebuffer() *render.Framebuffer

	SetBackground(c render.Color)
	SetGround(size float64, divisions int, visible bool)
	SetHeadLight(enabled bool, offset [2]float64)
	SetEnvLighting(enabled bool)
	SetEnvMap(tex *models.Texture)

	// Render draws one frame.
	Render()
	// Release frees the surface. Render calls after Release are no-ops.
	Release()
}

// FetchFunc retrieves the bytes behind a resolved URL.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// OrientationWidget is the on-screen compass bound to one camera. It
// cannot be rebound; camera-mode toggles dispose it and create a new
// one through the factory.
type OrientationWidget interface {
	// Update refreshes the widget from its camera's current pose.
	Update()
	Dispose()
}

// WidgetFactory builds an orientation widget bound to cam.
type WidgetFactory func(cam *render.Camera) OrientationWidget

type noopWidget struct{}

func (noopWidget) Update()  {}
func (noopWidget) Dispose() {}
