package presenter

import (
	"context"
	"math"
	"testing"
)

func TestPickHitsFramedModel(t *testing.T) {
	eng := newStubEngine()
	desc, fetch := singleModelScene()
	p := New(eng, WithFetcher(fetch))
	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}

	// The framed camera looks straight at the quad's center.
	hit, ok := p.Pick(50, 50, 100, 100)
	if !ok {
		t.Fatal("center pick missed the framed model")
	}
	if hit.ModelID != "m1" {
		t.Errorf("hit model = %q, want m1", hit.ModelID)
	}
	if math.Abs(hit.Point.Z) > 1e-6 {
		t.Errorf("hit point z = %v, want on the quad's plane", hit.Point.Z)
	}

	// A corner ray flies past the quad.
	if _, ok := p.Pick(0, 0, 100, 100); ok {
		t.Error("corner pick should miss")
	}

	// Hidden models are not pickable.
	p.SetModelVisibility("m1", false)
	if _, ok := p.Pick(50, 50, 100, 100); ok {
		t.Error("hidden model should not be pickable")
	}
}

func TestZoomClampsToBounds(t *testing.T) {
	eng := newStubEngine()
	desc, fetch := singleModelScene()
	p := New(eng, WithFetcher(fetch))
	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}

	c := p.Controls()
	c.Zoom(1000)
	if got := eng.cam.Distance(); math.Abs(got-c.MaxZoom) > 1e-9 {
		t.Errorf("distance = %v, want clamped to MaxZoom %v", got, c.MaxZoom)
	}
	c.Zoom(1e-6)
	if got := eng.cam.Distance(); math.Abs(got-c.MinZoom) > 1e-9 {
		t.Errorf("distance = %v, want clamped to MinZoom %v", got, c.MinZoom)
	}

	c.Enabled = false
	before := eng.cam.Position
	c.Zoom(2)
	c.Rotate(1, 1)
	if eng.cam.Position != before {
		t.Error("disabled controls moved the camera")
	}
}

func TestResetCameraSettlesAtHomePose(t *testing.T) {
	eng := newStubEngine()
	desc, fetch := singleModelScene()
	p := New(eng, WithFetcher(fetch))
	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}
	home := eng.cam.Position

	p.Controls().Rotate(1.2, 0.4)
	p.Controls().Zoom(3)
	if eng.cam.Position == home {
		t.Fatal("camera should have moved before the reset")
	}

	p.ResetCamera()
	for range 1200 {
		p.Tick()
		if eng.cam.Position == home {
			break
		}
	}
	if eng.cam.Position != home {
		t.Errorf("camera = %v after reset, want home pose %v", eng.cam.Position, home)
	}
	if eng.cam.Target != p.homePose.Target {
		t.Errorf("target = %v, want %v", eng.cam.Target, p.homePose.Target)
	}
}
