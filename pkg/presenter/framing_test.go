package presenter

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/scene"
)

// plyTriangle builds an ascii PLY with a single triangle.
func plyTriangle(a, b, c [3]float64) []byte {
	var sb strings.Builder
	sb.WriteString("ply\nformat ascii 1.0\n")
	sb.WriteString("element vertex 3\n")
	sb.WriteString("property float x\nproperty float y\nproperty float z\n")
	sb.WriteString("element face 1\nproperty list uchar int vertex_indices\nend_header\n")
	for _, v := range [][3]float64{a, b, c} {
		fmt.Fprintf(&sb, "%g %g %g\n", v[0], v[1], v[2])
	}
	sb.WriteString("3 0 1 2\n")
	return []byte(sb.String())
}

func TestFramingInvariant(t *testing.T) {
	eng := newStubEngine()
	// Combined bounding box before framing: min=(-1,1,-1), max=(2,3,3),
	// deliberately off-center and floating above the ground.
	fetch := mapFetcher(map[string][]byte{
		"https://files.test/a.ply": plyQuad(-1, 1, 1, 3, 1),
		"https://files.test/b.ply": plyTriangle(
			[3]float64{2, 1, -1}, [3]float64{2, 3, 3}, [3]float64{2, 1, 3}),
	})
	desc := &scene.Description{Models: []scene.ModelDefinition{
		{ID: "a", File: "https://files.test/a.ply"},
		{ID: "b", File: "https://files.test/b.ply"},
	}}
	p := New(eng, WithFetcher(fetch))

	res, err := p.LoadScene(context.Background(), desc, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	const tol = 1e-9
	if math.Abs(p.extents.Min.Y) > tol {
		t.Errorf("union min.y = %v, want 0 after grounding", p.extents.Min.Y)
	}
	center := p.extents.Center()
	if math.Abs(center.X) > tol || math.Abs(center.Z) > tol {
		t.Errorf("union center = %v, want x=z=0 after centering", center)
	}

	if len(res.ComputedPositions) != 2 {
		t.Errorf("computed positions = %v, want both unplaced models reported", res.ComputedPositions)
	}
	// Explicitly placed models must not be auto-placed.
	if desc.Models[0].Position != nil || desc.Models[1].Position != nil {
		t.Error("framing must not write positions back into the description")
	}
}

func TestFramingSkipsPlacedModels(t *testing.T) {
	eng := newStubEngine()
	pos := [3]float64{10, 5, 10}
	fetch := mapFetcher(map[string][]byte{
		"https://files.test/a.ply": plyQuad(-1, 0, 1, 2, 0),
	})
	desc := &scene.Description{Models: []scene.ModelDefinition{
		{ID: "a", File: "https://files.test/a.ply", Position: &pos},
	}}
	p := New(eng, WithFetcher(fetch))

	res, err := p.LoadScene(context.Background(), desc, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.ComputedPositions) != 0 {
		t.Errorf("computed positions = %v, want none for placed models", res.ComputedPositions)
	}
	if got := eng.attached["a"].Transform.Translation(); got.X != 10 || got.Y != 5 {
		t.Errorf("placed model moved to %v", got)
	}
}

func TestCameraDistanceFormula(t *testing.T) {
	eng := newStubEngine()
	desc, fetch := singleModelScene() // quad spanning 2x2 units, maxDim=2
	p := New(eng, WithFetcher(fetch))

	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}

	// fov=40°: unpadded (2/2)/tan(20°) ≈ 2.747, padded ×1.2 ≈ 3.30
	want := 1 / math.Tan(20*math.Pi/180) * 1.2
	got := eng.cam.Distance()
	if math.Abs(got-want) > 1e-2 {
		t.Errorf("camera distance = %v, want %v", got, want)
	}
	if math.Abs(got-3.30) > 1e-2 {
		t.Errorf("camera distance = %v, want ≈3.30", got)
	}
	if eng.cam.Target.Y != 1 {
		t.Errorf("camera target height = %v, want size.y/2", eng.cam.Target.Y)
	}
}

func TestPreserveCameraKeepsPose(t *testing.T) {
	eng := newStubEngine()
	desc, fetch := singleModelScene()
	p := New(eng, WithFetcher(fetch))
	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}

	eng.cam.SetPosition(eng.cam.Position.Scale(2))
	moved := eng.cam.Position

	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{PreserveCamera: true}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if eng.cam.Position != moved {
		t.Errorf("camera moved to %v during preserved reload", eng.cam.Position)
	}
	// extents still recomputed for ground sizing
	if eng.groundSize == 0 {
		t.Error("ground not re-sized on preserved reload")
	}
}

func TestZoomBoundsProportionalToScene(t *testing.T) {
	eng := newStubEngine()
	desc, fetch := singleModelScene() // maxDim = 2
	p := New(eng, WithFetcher(fetch))
	if _, err := p.LoadScene(context.Background(), desc, LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}

	c := p.Controls()
	if math.Abs(c.MinZoom-0.2) > 1e-9 || math.Abs(c.MaxZoom-20) > 1e-9 {
		t.Errorf("zoom bounds = [%v, %v], want [0.2, 20]", c.MinZoom, c.MaxZoom)
	}
}

func TestGroundDimensions(t *testing.T) {
	// tiny scene clamps up to 10 divisions
	size, div := groundDimensions(math3d.V3(1, 1, 1))
	if size != 2 || div != 10 {
		t.Errorf("tiny scene ground = (%v, %d), want (2, 10)", size, div)
	}
	// huge scene clamps down to 50
	_, div = groundDimensions(math3d.V3(100, 10, 100))
	if div != 50 {
		t.Errorf("huge scene divisions = %d, want 50", div)
	}
	// mid scene keeps cells near one unit
	size, div = groundDimensions(math3d.V3(15, 3, 10))
	if size != 30 || div != 30 {
		t.Errorf("mid scene ground = (%v, %d), want (30, 30)", size, div)
	}
}
