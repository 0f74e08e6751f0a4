package render

import (
	"math"

	"github.com/plinth3d/plinth/pkg/math3d"
)

// Projection selects how the camera maps view space to clip space.
type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

func (p Projection) String() string {
	if p == Orthographic {
		return "orthographic"
	}
	return "perspective"
}

// DefaultFOV is the vertical field of view used when nothing asks for
// another one, in radians.
const DefaultFOV = 40 * math.Pi / 180

// Camera is an orbit camera: it sits at Position and looks at Target.
// Matrices are cached and recomputed lazily after a setter runs.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3

	FOV         float64 // vertical field of view in radians
	AspectRatio float64 // width / height
	Near        float64
	Far         float64

	Projection Projection
	// OrthoHalfHeight is half the view volume height when orthographic.
	OrthoHalfHeight float64

	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
}

// NewCamera creates a camera with viewer defaults, placed back on the
// +Z axis looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 1, 5),
		Target:      math3d.Zero3(),
		FOV:         DefaultFOV,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1000,
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetPosition moves the camera eye point.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetTarget moves the orbit target.
func (c *Camera) SetTarget(target math3d.Vec3) {
	c.Target = target
	c.viewDirty = true
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.projDirty = true
}

// SetAspectRatio sets the width/height ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// SetProjection switches the projection mode. Switching to
// orthographic derives the frustum height from the current distance so
// the subject keeps its apparent size.
func (c *Camera) SetProjection(p Projection) {
	if c.Projection == p {
		return
	}
	if p == Orthographic {
		c.OrthoHalfHeight = math.Tan(c.FOV/2) * c.Distance()
	}
	c.Projection = p
	c.projDirty = true
}

// SetOrthoHalfHeight sets the orthographic view volume half height.
func (c *Camera) SetOrthoHalfHeight(h float64) {
	c.OrthoHalfHeight = h
	c.projDirty = true
}

// Distance returns the eye-to-target distance.
func (c *Camera) Distance() float64 {
	return c.Position.Sub(c.Target).Len()
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Position, c.Target, math3d.Up())
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		if c.Projection == Orthographic {
			h := c.OrthoHalfHeight
			w := h * c.AspectRatio
			c.projMatrix = math3d.Orthographic(-w, w, -h, h, c.Near, c.Far)
		} else {
			c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		}
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.viewDirty || c.projDirty {
		_ = c.ViewMatrix()
		_ = c.ProjectionMatrix()
		c.viewProjMatrix = c.projMatrix.Mul(c.viewMatrix)
	}
	return c.viewProjMatrix
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}
	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y flipped
	depth = ndc.Z
	return x, y, depth, true
}

// Ray converts normalized viewport coordinates (0..1, origin top-left)
// into a world-space picking ray.
func (c *Camera) Ray(nx, ny float64) (origin, dir math3d.Vec3) {
	ndcX := nx*2 - 1
	ndcY := 1 - ny*2

	inv := c.ViewProjectionMatrix().Inverse()
	near := inv.MulVec4(math3d.V4(ndcX, ndcY, -1, 1)).PerspectiveDivide()
	far := inv.MulVec4(math3d.V4(ndcX, ndcY, 1, 1)).PerspectiveDivide()

	if c.Projection == Orthographic {
		return near, far.Sub(near).Normalize()
	}
	return c.Position, far.Sub(c.Position).Normalize()
}
