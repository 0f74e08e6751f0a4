package math3d

// Box3 is an axis-aligned bounding box. The zero value is not a valid
// box; use EmptyBox3 so that the first Expand sets both corners.
type Box3 struct {
	Min, Max Vec3
}

// EmptyBox3 returns a box that contains nothing: any Expand or Join
// replaces it entirely.
func EmptyBox3() Box3 {
	const huge = 1e30
	return Box3{
		Min: Vec3{huge, huge, huge},
		Max: Vec3{-huge, -huge, -huge},
	}
}

// NewBox3 creates a box from explicit corners.
func NewBox3(min, max Vec3) Box3 {
	return Box3{Min: min, Max: max}
}

// IsEmpty reports whether the box contains no volume (never expanded).
func (b Box3) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Expand grows the box to contain the point p.
func (b Box3) Expand(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Join returns the union of two boxes. Joining with an empty box
// returns the other box unchanged.
func (b Box3) Join(o Box3) Box3 {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return Box3{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Center returns the center point of the box.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Translate returns the box shifted by v.
func (b Box3) Translate(v Vec3) Box3 {
	return Box3{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

// Transform returns the axis-aligned box containing this box after
// applying the transform m to all eight corners.
func (b Box3) Transform(m Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox3()
	for _, x := range [2]float64{b.Min.X, b.Max.X} {
		for _, y := range [2]float64{b.Min.Y, b.Max.Y} {
			for _, z := range [2]float64{b.Min.Z, b.Max.Z} {
				out = out.Expand(m.MulVec3(Vec3{x, y, z}))
			}
		}
	}
	return out
}
