package presenter

import (
	"math"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/models"
)

// Hit is the result of a successful pick: the model that was hit and
// the world-space intersection point.
type Hit struct {
	ModelID  string
	Point    math3d.Vec3
	Distance float64
}

// Pick casts a ray through pixel (x, y) of a w×h viewport and
// intersects it with the triangles of every visible model. It runs
// synchronously and returns the nearest hit, or false when the ray
// misses everything.
func (p *Presenter) Pick(x, y, w, h int) (Hit, bool) {
	if p.disposed.Load() || w <= 0 || h <= 0 {
		return Hit{}, false
	}
	origin, dir := p.engine.Camera().Ray(
		(float64(x)+0.5)/float64(w),
		(float64(y)+0.5)/float64(h),
	)

	p.mu.Lock()
	defer p.mu.Unlock()

	best := Hit{Distance: math.Inf(1)}
	found := false
	for id, root := range p.nodes {
		if !root.Visible {
			continue
		}
		root.Walk(func(n *models.Node, world math3d.Mat4) bool {
			if !n.Visible {
				return false
			}
			if n.Mesh == nil {
				return true
			}
			for i := range n.Mesh.TriangleCount() {
				a, b, c := n.Mesh.Triangle(i)
				t, ok := rayTriangle(origin, dir,
					world.MulVec3(a.Position),
					world.MulVec3(b.Position),
					world.MulVec3(c.Position))
				if ok && t < best.Distance {
					best = Hit{
						ModelID:  id,
						Point:    origin.Add(dir.Scale(t)),
						Distance: t,
					}
					found = true
				}
			}
			return true
		})
	}
	if !found {
		return Hit{}, false
	}
	return best, true
}

// rayTriangle is the Möller–Trumbore intersection test. Returns the
// ray parameter t for a front- or back-face hit at positive distance.
func rayTriangle(origin, dir, v0, v1, v2 math3d.Vec3) (float64, bool) {
	const eps = 1e-9

	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < eps {
		return 0, false
	}
	invDet := 1 / det

	tvec := origin.Sub(v0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	qvec := tvec.Cross(e1)
	v := dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(qvec) * invDet
	if t <= eps {
		return 0, false
	}
	return t, true
}
