package math3d

import (
	"math"
	"testing"
)

func TestEmptyBox3(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Error("EmptyBox3 should be empty")
	}

	b = b.Expand(V3(1, 2, 3))
	if b.IsEmpty() {
		t.Error("Box should not be empty after Expand")
	}
	if b.Min != b.Max {
		t.Errorf("Single-point box should have Min == Max, got %v / %v", b.Min, b.Max)
	}
}

func TestBox3Join(t *testing.T) {
	a := NewBox3(V3(-1, 0, -2), V3(1, 2, 2))
	b := NewBox3(V3(0, -1, 0), V3(3, 1, 1))

	u := a.Join(b)
	if u.Min != V3(-1, -1, -2) {
		t.Errorf("Union min = %v", u.Min)
	}
	if u.Max != V3(3, 2, 2) {
		t.Errorf("Union max = %v", u.Max)
	}

	// Joining with an empty box is a no-op.
	if got := a.Join(EmptyBox3()); got != a {
		t.Errorf("Join with empty box = %v, want %v", got, a)
	}
	if got := EmptyBox3().Join(a); got != a {
		t.Errorf("Empty join with box = %v, want %v", got, a)
	}
}

func TestBox3CenterSize(t *testing.T) {
	b := NewBox3(V3(-1, 0, -2), V3(1, 2, 2))
	if c := b.Center(); c != V3(0, 1, 0) {
		t.Errorf("Center = %v", c)
	}
	if s := b.Size(); s != V3(2, 2, 4) {
		t.Errorf("Size = %v", s)
	}
}

func TestBox3Transform(t *testing.T) {
	b := NewBox3(V3(-1, -1, -1), V3(1, 1, 1))

	// 45 degree Y rotation widens the horizontal footprint to sqrt(2).
	r := b.Transform(RotateY(math.Pi / 4))
	want := math.Sqrt2
	if math.Abs(r.Max.X-want) > 1e-9 || math.Abs(r.Max.Z-want) > 1e-9 {
		t.Errorf("Rotated box max = %v, want ~%.4f in X/Z", r.Max, want)
	}
	if math.Abs(r.Max.Y-1) > 1e-9 {
		t.Errorf("Y extent should be unchanged, got %v", r.Max.Y)
	}

	tr := b.Transform(Translate(V3(5, 0, 0)))
	if tr.Min != V3(4, -1, -1) || tr.Max != V3(6, 1, 1) {
		t.Errorf("Translated box = %v", tr)
	}
}

func TestTRSOrder(t *testing.T) {
	// Scale applies before rotation, rotation before translation:
	// the unit X point scaled by 2 and rotated 90 degrees around Y
	// lands on -Z, then translates.
	m := TRS(V3(10, 0, 0), V3(0, math.Pi/2, 0), V3(2, 2, 2))
	p := m.MulVec3(V3(1, 0, 0))

	if math.Abs(p.X-10) > 1e-9 || math.Abs(p.Z+2) > 1e-9 {
		t.Errorf("TRS point = %v, want (10, 0, -2)", p)
	}
}

func TestMat4Inverse(t *testing.T) {
	m := TRS(V3(1, 2, 3), V3(0.3, -0.2, 0.7), V3(2, 1, 0.5))
	inv := m.Inverse()

	p := V3(4, -5, 6)
	back := inv.MulVec3(m.MulVec3(p))
	if back.Distance(p) > 1e-9 {
		t.Errorf("Inverse round trip = %v, want %v", back, p)
	}
}
