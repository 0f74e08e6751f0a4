package presenter

import (
	"math"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/render"
)

// OrbitControls move one camera around its target on a sphere. Each
// presenter owns its own instance; the zoom bounds are set by the
// framing pass.
type OrbitControls struct {
	Enabled bool
	MinZoom float64
	MaxZoom float64

	camera *render.Camera
}

// NewOrbitControls binds controls to a camera.
func NewOrbitControls(cam *render.Camera) *OrbitControls {
	return &OrbitControls{
		Enabled: true,
		MinZoom: 0.1,
		MaxZoom: 1000,
		camera:  cam,
	}
}

// spherical returns the camera offset from target as (radius, yaw,
// pitch).
func (o *OrbitControls) spherical() (r, yaw, pitch float64) {
	d := o.camera.Position.Sub(o.camera.Target)
	r = d.Len()
	if r == 0 {
		return 0, 0, 0
	}
	yaw = math.Atan2(d.X, d.Z)
	pitch = math.Asin(d.Y / r)
	return r, yaw, pitch
}

func (o *OrbitControls) place(r, yaw, pitch float64) {
	// keep away from the poles
	const maxPitch = math.Pi/2 - 0.01
	pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))
	r = math.Max(o.MinZoom, math.Min(o.MaxZoom, r))

	offset := math3d.V3(
		r*math.Cos(pitch)*math.Sin(yaw),
		r*math.Sin(pitch),
		r*math.Cos(pitch)*math.Cos(yaw),
	)
	o.camera.SetPosition(o.camera.Target.Add(offset))
}

// Rotate orbits the camera by the given yaw and pitch deltas in
// radians.
func (o *OrbitControls) Rotate(dYaw, dPitch float64) {
	if !o.Enabled {
		return
	}
	r, yaw, pitch := o.spherical()
	o.place(r, yaw+dYaw, pitch+dPitch)
}

// Zoom scales the orbit distance; factors below 1 move in. The
// distance is clamped to [MinZoom, MaxZoom].
func (o *OrbitControls) Zoom(factor float64) {
	if !o.Enabled || factor <= 0 {
		return
	}
	r, yaw, pitch := o.spherical()
	o.place(r*factor, yaw, pitch)

	// orthographic cameras zoom by frustum height, not position
	if o.camera.Projection == render.Orthographic {
		o.camera.SetOrthoHalfHeight(math.Tan(o.camera.FOV/2) * o.camera.Distance())
	}
}

// Pan shifts camera and target together in the view plane.
func (o *OrbitControls) Pan(dx, dy float64) {
	if !o.Enabled {
		return
	}
	forward := o.camera.Forward()
	right := forward.Cross(math3d.Up()).Normalize()
	up := right.Cross(forward)

	shift := right.Scale(dx).Add(up.Scale(dy))
	o.camera.SetPosition(o.camera.Position.Add(shift))
	o.camera.SetTarget(o.camera.Target.Add(shift))
}
