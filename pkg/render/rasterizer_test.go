package render

import (
	"testing"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/models"
)

func facingQuad(z float64) *models.Mesh {
	return &models.Mesh{
		Vertices: []models.Vertex{
			{Position: math3d.V3(-1, -1, z), Normal: math3d.V3(0, 0, 1)},
			{Position: math3d.V3(1, -1, z), Normal: math3d.V3(0, 0, 1)},
			{Position: math3d.V3(1, 1, z), Normal: math3d.V3(0, 0, 1)},
			{Position: math3d.V3(-1, 1, z), Normal: math3d.V3(0, 0, 1)},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func testScene(z float64, color [4]float64) *models.Node {
	n := models.NewGroup("quad")
	n.Mesh = facingQuad(z)
	mat := models.DefaultMaterial("quad")
	mat.BaseColor = color
	n.Material = &mat
	return n
}

func newTestRasterizer() (*Rasterizer, *Framebuffer) {
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 5))
	cam.SetTarget(math3d.Zero3())
	cam.SetAspectRatio(1)
	fb := NewFramebuffer(32, 32)
	return NewRasterizer(cam, fb), fb
}

func TestDrawNodeFillsPixels(t *testing.T) {
	r, fb := newTestRasterizer()
	r.ClearDepth()
	fb.Clear(ColorBlack)

	r.DrawNode(testScene(0, [4]float64{1, 0, 0, 1}))

	c := fb.GetPixel(16, 16)
	if c.R == 0 || c.G != 0 || c.B != 0 {
		t.Errorf("center pixel = %+v, want shaded red", c)
	}
}

func TestDrawNodeInvisibleSkipped(t *testing.T) {
	r, fb := newTestRasterizer()
	r.ClearDepth()
	fb.Clear(ColorBlack)

	scene := testScene(0, [4]float64{1, 0, 0, 1})
	scene.Visible = false
	r.DrawNode(scene)

	if c := fb.GetPixel(16, 16); c != ColorBlack {
		t.Errorf("center pixel = %+v, want untouched background", c)
	}
}

func TestDepthBufferOrdering(t *testing.T) {
	r, fb := newTestRasterizer()
	r.ClearDepth()
	fb.Clear(ColorBlack)

	// Far green quad first, near red quad second; red must win.
	r.DrawNode(testScene(-2, [4]float64{0, 1, 0, 1}))
	r.DrawNode(testScene(0, [4]float64{1, 0, 0, 1}))

	c := fb.GetPixel(16, 16)
	if c.R == 0 || c.G != 0 {
		t.Errorf("center pixel = %+v, want near red quad on top", c)
	}

	// Drawing the far quad again must not overwrite the near one.
	r.DrawNode(testScene(-2, [4]float64{0, 1, 0, 1}))
	c = fb.GetPixel(16, 16)
	if c.R == 0 || c.G != 0 {
		t.Errorf("center pixel after re-draw = %+v, want red kept", c)
	}
}

func TestDrawGrid(t *testing.T) {
	r, fb := newTestRasterizer()
	r.camera.SetPosition(math3d.V3(0, 5, 5))
	r.camera.SetTarget(math3d.Zero3())
	r.ClearDepth()
	fb.Clear(ColorBlack)

	r.DrawGrid(10, 10, ColorGray)

	touched := 0
	for _, p := range fb.Pixels {
		if p != ColorBlack {
			touched++
		}
	}
	if touched == 0 {
		t.Error("grid drew no pixels")
	}
}
