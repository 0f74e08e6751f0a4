package presenter

import (
	"math"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/scene"
)

// paddingFactor backs the camera off so the scene does not touch the
// viewport edges.
const paddingFactor = 1.2

// frameLocked runs the auto-framing pass over the freshly attached
// nodes: ground unplaced models, derive the home camera pose, size the
// ground grid, and bound the orbit zoom. Caller holds p.mu.
func (p *Presenter) frameLocked(desc *scene.Description, res *Result, preserveCamera bool) {
	bounds := math3d.EmptyBox3()
	for _, node := range p.nodes {
		bounds = bounds.Join(node.WorldBounds())
	}
	if bounds.IsEmpty() {
		return
	}

	// Unplaced models get centered in the horizontal plane with their
	// lowest point resting at height 0. Placed models stay put.
	center := bounds.Center()
	offset := math3d.V3(-center.X, -bounds.Min.Y, -center.Z)
	for i := range desc.Models {
		def := &desc.Models[i]
		if def.Position != nil {
			continue
		}
		node, ok := p.nodes[def.ID]
		if !ok {
			continue
		}
		pos := node.Transform.Translation().Add(offset).Round(3)
		node.Transform = node.Transform.WithTranslation(pos)
		res.ComputedPositions[def.ID] = pos
	}

	// Re-union after placement; this is what ground sizing and the
	// camera see.
	bounds = math3d.EmptyBox3()
	for _, node := range p.nodes {
		bounds = bounds.Join(node.WorldBounds())
	}
	p.extents = bounds

	size := bounds.Size()
	maxDim := size.MaxComponent()
	cam := p.engine.Camera()

	distance := (maxDim / 2) / math.Tan(cam.FOV/2) * paddingFactor
	p.homePose = cameraPose{
		Position: math3d.V3(0, size.Y/2, distance),
		Target:   math3d.V3(0, size.Y/2, 0),
	}

	controls := p.controlsLocked()
	controls.Enabled = desc.EnableControls
	controls.MinZoom = maxDim * 0.1
	controls.MaxZoom = maxDim * 10

	if !preserveCamera {
		p.anim.stop()
		cam.SetPosition(p.homePose.Position)
		cam.SetTarget(p.homePose.Target)
	}

	if p.widget == nil {
		p.widget = p.widgetFn(cam)
	}

	showGround := desc.Environment != nil && desc.Environment.ShowGround
	groundSize, divisions := groundDimensions(size)
	p.engine.SetGround(groundSize, divisions, showGround)
}

// groundDimensions sizes the ground plane at twice the horizontal
// footprint, with divisions clamped so grid cells stay near one unit
// regardless of scene scale.
func groundDimensions(size math3d.Vec3) (float64, int) {
	footprint := math.Max(size.X, size.Z)
	groundSize := 2 * footprint
	divisions := int(math.Round(groundSize))
	if divisions < 10 {
		divisions = 10
	}
	if divisions > 50 {
		divisions = 50
	}
	return groundSize, divisions
}
