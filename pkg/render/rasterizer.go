package render

import (
	"math"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/models"
)

// Rasterizer draws node hierarchies into a framebuffer with z-buffered
// barycentric triangle filling.
type Rasterizer struct {
	camera  *Camera
	fb      *Framebuffer
	zbuffer []float64

	// LightDir is the world-space direction light rays travel towards
	// the scene from.
	LightDir math3d.Vec3
	// Ambient is the base light level below which no surface falls.
	Ambient float64
}

// NewRasterizer creates a rasterizer bound to a camera and framebuffer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:   camera,
		fb:       fb,
		LightDir: math3d.V3(0.4, 1, 0.6),
		Ambient:  0.3,
	}
	r.Resize()
	return r
}

// Resize re-allocates the z-buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// ClearDepth resets the z-buffer, call before each frame.
func (r *Rasterizer) ClearDepth() {
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	// copy-doubling clear
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// DrawNode renders every visible drawable under root.
func (r *Rasterizer) DrawNode(root *models.Node) {
	lightDir := r.LightDir.Normalize()
	root.Walk(func(n *models.Node, world math3d.Mat4) bool {
		if !n.Visible {
			return false
		}
		if n.Mesh != nil {
			r.drawMesh(n.Mesh, n.Material, world, lightDir)
		}
		return true
	})
}

func (r *Rasterizer) drawMesh(mesh *models.Mesh, mat *models.Material, world math3d.Mat4, lightDir math3d.Vec3) {
	base := ColorGray
	flat := false
	var sampler *Sampler
	if mat != nil {
		base = RGB(
			uint8(math.Min(255, mat.BaseColor[0]*255)),
			uint8(math.Min(255, mat.BaseColor[1]*255)),
			uint8(math.Min(255, mat.BaseColor[2]*255)),
		)
		flat = mat.FlatShading
		if mat.Texture != nil {
			sampler = NewSampler(mat.Texture.Image)
		}
	}

	for i := range mesh.TriangleCount() {
		a, b, c := mesh.Triangle(i)

		var tri triangle
		tri.pos[0] = world.MulVec3(a.Position)
		tri.pos[1] = world.MulVec3(b.Position)
		tri.pos[2] = world.MulVec3(c.Position)
		tri.uv = [3]math3d.Vec2{a.UV, b.UV, c.UV}

		if flat {
			n := tri.pos[1].Sub(tri.pos[0]).Cross(tri.pos[2].Sub(tri.pos[0])).Normalize()
			for j := range 3 {
				tri.intensity[j] = r.shade(n, lightDir)
			}
		} else {
			normals := [3]math3d.Vec3{a.Normal, b.Normal, c.Normal}
			for j := range 3 {
				wn := world.MulVec3Dir(normals[j]).Normalize()
				tri.intensity[j] = r.shade(wn, lightDir)
			}
		}

		r.drawTriangle(tri, base, sampler)
	}
}

// shade is ambient plus diffuse, two-sided so back faces stay legible.
func (r *Rasterizer) shade(normal, lightDir math3d.Vec3) float64 {
	return r.Ambient + (1-r.Ambient)*math.Abs(normal.Dot(lightDir))
}

type triangle struct {
	pos       [3]math3d.Vec3
	uv        [3]math3d.Vec2
	intensity [3]float64
}

type screenVertex struct {
	X, Y, Z, W float64
}

func (r *Rasterizer) drawTriangle(tri triangle, base Color, sampler *Sampler) {
	var sv [3]screenVertex
	allBehind := true

	viewProj := r.camera.ViewProjectionMatrix()
	for i := range 3 {
		clipPos := viewProj.MulVec4(math3d.V4FromV3(tri.pos[i], 1))
		if clipPos.W > 0 {
			allBehind = false
		}
		if clipPos.W != 0 {
			sv[i].X = clipPos.X / clipPos.W
			sv[i].Y = clipPos.Y / clipPos.W
			sv[i].Z = clipPos.Z / clipPos.W
		}
		sv[i].W = clipPos.W

		// NDC to screen, Y flipped
		sv[i].X = (sv[i].X + 1) * 0.5 * float64(r.fb.Width)
		sv[i].Y = (1 - sv[i].Y) * 0.5 * float64(r.fb.Height)
	}
	if allBehind {
		return
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.fb.Width-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.fb.Height-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	var invW [3]float64
	for i := range 3 {
		if sv[i].W != 0 {
			invW[i] = 1 / sv[i].W
		}
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			bc := barycentric(
				sv[0].X, sv[0].Y,
				sv[1].X, sv[1].Y,
				sv[2].X, sv[2].Y,
				px, py,
			)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			di := y*r.fb.Width + x
			if z >= r.zbuffer[di] {
				continue
			}

			intensity := bc.X*tri.intensity[0] + bc.Y*tri.intensity[1] + bc.Z*tri.intensity[2]
			c := base
			if sampler != nil {
				// perspective-correct UVs
				w0, w1, w2 := bc.X*invW[0], bc.Y*invW[1], bc.Z*invW[2]
				oneOverW := w0 + w1 + w2
				if oneOverW == 0 {
					continue
				}
				u := (w0*tri.uv[0].X + w1*tri.uv[1].X + w2*tri.uv[2].X) / oneOverW
				v := (w0*tri.uv[0].Y + w1*tri.uv[1].Y + w2*tri.uv[2].Y) / oneOverW
				c = sampler.Sample(u, v)
			}

			r.zbuffer[di] = z
			r.fb.SetPixel(x, y, multiplyColor(c, intensity))
		}
	}
}

// DrawLine3D projects a world-space segment and draws it, depth test
// skipped so overlays stay on top.
func (r *Rasterizer) DrawLine3D(a, b math3d.Vec3, c Color) {
	viewProj := r.camera.ViewProjectionMatrix()
	clipA := viewProj.MulVec4(math3d.V4FromV3(a, 1))
	clipB := viewProj.MulVec4(math3d.V4FromV3(b, 1))
	if clipA.W <= 0 && clipB.W <= 0 {
		return
	}
	if clipA.W > 0 {
		clipA.X /= clipA.W
		clipA.Y /= clipA.W
	}
	if clipB.W > 0 {
		clipB.X /= clipB.W
		clipB.Y /= clipB.W
	}
	x0 := int((clipA.X + 1) * 0.5 * float64(r.fb.Width))
	y0 := int((1 - clipA.Y) * 0.5 * float64(r.fb.Height))
	x1 := int((clipB.X + 1) * 0.5 * float64(r.fb.Width))
	y1 := int((1 - clipB.Y) * 0.5 * float64(r.fb.Height))
	r.fb.DrawLine(x0, y0, x1, y1, c)
}

// barycentric calculates barycentric coordinates for point (px, py).
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

func multiplyColor(c Color, intensity float64) Color {
	return Color{
		R: uint8(math.Min(255, float64(c.R)*intensity)),
		G: uint8(math.Min(255, float64(c.G)*intensity)),
		B: uint8(math.Min(255, float64(c.B)*intensity)),
		A: c.A,
	}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
