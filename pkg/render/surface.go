package render

import (
	"image"
	"math"
	"sort"
	"sync"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/models"
)

// Surface is the reference render engine: a camera, a framebuffer, and
// a rasterizer drawing the attached node set each frame.
type Surface struct {
	mu       sync.Mutex
	camera   *Camera
	fb       *Framebuffer
	ras      *Rasterizer
	nodes    map[string]*models.Node
	released bool

	background      Color
	groundSize      float64
	groundDivisions int
	groundVisible   bool

	headLight       bool
	headLightOffset [2]float64 // [thetaDeg, phiDeg]
	envLighting     bool
	envMap          *models.Texture
	envLuminance    float64
}

// NewSurface creates a surface with the given pixel dimensions. For
// terminal output pass 2x the terminal rows as height.
func NewSurface(width, height int) *Surface {
	cam := NewCamera()
	cam.SetAspectRatio(float64(width) / float64(height) / 2) // half-block pixels are 1x2
	fb := NewFramebuffer(width, height)
	return &Surface{
		camera:     cam,
		fb:         fb,
		ras:        NewRasterizer(cam, fb),
		nodes:      make(map[string]*models.Node),
		background: RGB(18, 18, 24),
		headLight:  true,
	}
}

// Resize swaps in a framebuffer with the new pixel dimensions and
// updates the camera aspect ratio.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.SetAspectRatio(float64(width) / float64(height) / 2)
	s.fb = NewFramebuffer(width, height)
	s.ras = NewRasterizer(s.camera, s.fb)
}

// Attach adds a node hierarchy under id, replacing any previous one.
func (s *Surface) Attach(id string, node *models.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = node
}

// Detach removes the node under id.
func (s *Surface) Detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
}

// Camera returns the surface's camera.
func (s *Surface) Camera() *Camera {
	return s.camera
}

// Framebuffer returns the surface's pixel buffer.
func (s *Surface) Framebuffer() *Framebuffer {
	return s.fb
}

// SetBackground sets the clear color.
func (s *Surface) SetBackground(c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = c
}

// SetGround configures the ground grid.
func (s *Surface) SetGround(size float64, divisions int, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groundSize = size
	s.groundDivisions = divisions
	s.groundVisible = visible
}

// SetHeadLight toggles the camera-attached light and sets its angular
// offset in degrees.
func (s *Surface) SetHeadLight(enabled bool, offset [2]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headLight = enabled
	s.headLightOffset = offset
}

// SetEnvLighting toggles image-based lighting.
func (s *Surface) SetEnvLighting(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envLighting = enabled
}

// SetEnvMap installs the decoded environment image. Its average
// luminance drives the ambient level when env lighting is on.
func (s *Surface) SetEnvMap(tex *models.Texture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envMap = tex
	s.envLuminance = 0
	if tex != nil && tex.Image != nil {
		s.envLuminance = averageLuminance(tex.Image)
	}
}

// averageLuminance samples the image on a coarse grid and returns the
// mean luminance in [0, 1].
func averageLuminance(img image.Image) float64 {
	const grid = 16
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0
	}
	var sum float64
	for gy := range grid {
		for gx := range grid {
			x := b.Min.X + gx*b.Dx()/grid
			y := b.Min.Y + gy*b.Dy()/grid
			r, g, bl, _ := img.At(x, y).RGBA()
			sum += (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(bl)) / 0xffff
		}
	}
	return sum / (grid * grid)
}

// Render draws one frame. Rendering after Release is a no-op.
func (s *Surface) Render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}

	s.fb.Clear(s.background)
	s.ras.ClearDepth()
	s.ras.LightDir = s.lightDir()
	s.ras.Ambient = s.ambient()

	if s.groundVisible && s.groundSize > 0 {
		s.ras.DrawGrid(s.groundSize, s.groundDivisions, RGB(70, 70, 80))
	}

	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.ras.DrawNode(s.nodes[id])
	}
}

// ambient returns the base light level. Env lighting raises it, scaled
// by the environment map's brightness when one is installed.
func (s *Surface) ambient() float64 {
	if !s.envLighting {
		return 0.3
	}
	if s.envMap != nil {
		return 0.3 + 0.4*s.envLuminance
	}
	return 0.45
}

// lightDir derives the light direction: the head light follows the
// camera with its spherical offset applied; with the head light off a
// fixed overhead light keeps the scene legible.
func (s *Surface) lightDir() math3d.Vec3 {
	if !s.headLight {
		return math3d.V3(0.4, 1, 0.6)
	}
	toCamera := s.camera.Forward().Negate()
	theta := s.headLightOffset[0] * math.Pi / 180
	phi := s.headLightOffset[1] * math.Pi / 180
	rot := math3d.RotateY(theta).Mul(math3d.RotateX(phi))
	return rot.MulVec3Dir(toCamera).Normalize()
}

// Release frees the node set. Idempotent.
func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.nodes = make(map[string]*models.Node)
}
