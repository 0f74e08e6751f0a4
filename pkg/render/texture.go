package render

import (
	"image"
	"math"
)

// Sampler samples an image with repeat wrapping and nearest filtering.
// UVs use a bottom-left origin; the loaders already flip V.
type Sampler struct {
	img    image.Image
	bounds image.Rectangle
}

// NewSampler wraps an image for UV sampling.
func NewSampler(img image.Image) *Sampler {
	if img == nil {
		return nil
	}
	return &Sampler{img: img, bounds: img.Bounds()}
}

// Sample returns the texel at (u, v).
func (s *Sampler) Sample(u, v float64) Color {
	u = u - math.Floor(u)
	v = v - math.Floor(v)
	// image Y runs top-down
	v = 1 - v

	w := s.bounds.Dx()
	h := s.bounds.Dy()
	x := int(u * float64(w))
	y := int(v * float64(h))
	if x >= w {
		x = w - 1
	}
	if y >= h {
		y = h - 1
	}

	r, g, b, a := s.img.At(s.bounds.Min.X+x, s.bounds.Min.Y+y).RGBA()
	return Color{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(a >> 8),
	}
}
