package render

import (
	"math"
	"testing"

	"github.com/plinth3d/plinth/pkg/math3d"
)

func TestCameraWorldToScreenCenter(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 5))
	c.SetTarget(math3d.Zero3())

	x, y, _, visible := c.WorldToScreen(math3d.Zero3(), 100, 100)
	if !visible {
		t.Fatal("target should be visible")
	}
	if math.Abs(x-50) > 0.5 || math.Abs(y-50) > 0.5 {
		t.Errorf("target projected to (%v, %v), want screen center", x, y)
	}
}

func TestCameraBehindNotVisible(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 5))
	c.SetTarget(math3d.Zero3())

	if _, _, _, visible := c.WorldToScreen(math3d.V3(0, 0, 10), 100, 100); visible {
		t.Error("point behind the camera should not be visible")
	}
}

func TestOrthoTogglePreservesApparentSize(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 10))
	c.SetTarget(math3d.Zero3())

	c.SetProjection(Orthographic)
	want := math.Tan(c.FOV/2) * 10
	if math.Abs(c.OrthoHalfHeight-want) > 1e-9 {
		t.Errorf("ortho half height = %v, want %v", c.OrthoHalfHeight, want)
	}

	// A point at the edge of the perspective frustum should sit at the
	// edge of the orthographic volume too.
	_, y, _, visible := c.WorldToScreen(math3d.V3(0, want*0.99, 0), 100, 100)
	if !visible {
		t.Fatal("edge point should remain visible after toggle")
	}
	if y > 2 {
		t.Errorf("edge point projected to y=%v, want near top of screen", y)
	}
}

func TestCameraRayThroughCenter(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 5))
	c.SetTarget(math3d.Zero3())

	origin, dir := c.Ray(0.5, 0.5)
	if origin != c.Position {
		t.Errorf("ray origin = %v, want camera position", origin)
	}
	if dir.Sub(math3d.V3(0, 0, -1)).Len() > 1e-6 {
		t.Errorf("center ray dir = %v, want -Z", dir)
	}
}

func TestProjectionString(t *testing.T) {
	if Perspective.String() != "perspective" || Orthographic.String() != "orthographic" {
		t.Error("unexpected projection names")
	}
}
