package presenter

import (
	"github.com/charmbracelet/harmonica"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/render"
)

const animFPS = 60

// cameraAnimator eases the camera toward a goal pose with critically
// damped springs, one per axis, so transitions land without overshoot.
type cameraAnimator struct {
	spring harmonica.Spring
	active bool
	goal   cameraPose

	posVel    math3d.Vec3
	targetVel math3d.Vec3
}

func (a *cameraAnimator) init() {
	// frequency 4.0, damping 1.0: moderate speed, no overshoot
	a.spring = harmonica.NewSpring(harmonica.FPS(animFPS), 4.0, 1.0)
}

// animateTo starts easing the camera toward pose.
func (a *cameraAnimator) animateTo(pose cameraPose) {
	a.goal = pose
	a.active = true
}

func (a *cameraAnimator) stop() {
	a.active = false
	a.posVel = math3d.Zero3()
	a.targetVel = math3d.Zero3()
}

// update advances the springs one frame and writes the new pose to the
// camera. It settles (and deactivates) once position and velocity are
// both negligible.
func (a *cameraAnimator) update(cam *render.Camera) {
	if !a.active {
		return
	}

	pos, posVel := springVec(a.spring, cam.Position, a.posVel, a.goal.Position)
	target, targetVel := springVec(a.spring, cam.Target, a.targetVel, a.goal.Target)
	a.posVel, a.targetVel = posVel, targetVel

	cam.SetPosition(pos)
	cam.SetTarget(target)

	const eps = 1e-4
	if pos.Distance(a.goal.Position) < eps && target.Distance(a.goal.Target) < eps &&
		posVel.Len() < eps && targetVel.Len() < eps {
		cam.SetPosition(a.goal.Position)
		cam.SetTarget(a.goal.Target)
		a.stop()
	}
}

func springVec(s harmonica.Spring, pos, vel, goal math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	x, vx := s.Update(pos.X, vel.X, goal.X)
	y, vy := s.Update(pos.Y, vel.Y, goal.Y)
	z, vz := s.Update(pos.Z, vel.Z, goal.Z)
	return math3d.V3(x, y, z), math3d.V3(vx, vy, vz)
}
