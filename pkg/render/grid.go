package render

import (
	"github.com/plinth3d/plinth/pkg/math3d"
)

// DrawGrid draws a square ground grid on the XZ plane at y=0, centered
// on the origin, with the given number of divisions per side.
func (r *Rasterizer) DrawGrid(size float64, divisions int, c Color) {
	if divisions < 1 {
		return
	}
	half := size / 2
	step := size / float64(divisions)
	for i := 0; i <= divisions; i++ {
		d := -half + float64(i)*step
		r.DrawLine3D(math3d.V3(d, 0, -half), math3d.V3(d, 0, half), c)
		r.DrawLine3D(math3d.V3(-half, 0, d), math3d.V3(half, 0, d), c)
	}
}

// DrawAxes draws the world axes at the origin: X red, Y green, Z blue.
func (r *Rasterizer) DrawAxes(length float64) {
	origin := math3d.Zero3()
	r.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)
	r.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen)
	r.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)
}
