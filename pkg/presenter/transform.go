package presenter

import (
	"math"

	"github.com/plinth3d/plinth/pkg/math3d"
	"github.com/plinth3d/plinth/pkg/scene"
)

// resolveRotationUnits picks the unit for a model's rotation values:
// model-level wins, then scene-level, then the magnitude heuristic —
// any axis beyond 2π cannot plausibly be radians.
func resolveRotationUnits(rot [3]float64, model, sc scene.RotationUnits) scene.RotationUnits {
	if model != "" {
		return model
	}
	if sc != "" {
		return sc
	}
	largest := math.Max(math.Abs(rot[0]), math.Max(math.Abs(rot[1]), math.Abs(rot[2])))
	if largest > 2*math.Pi {
		return scene.UnitsDegrees
	}
	return scene.UnitsRadians
}

// resolveRotation converts a rotation triple to radians.
func resolveRotation(rot [3]float64, model, sc scene.RotationUnits) math3d.Vec3 {
	v := math3d.V3(rot[0], rot[1], rot[2])
	if resolveRotationUnits(rot, model, sc) == scene.UnitsDegrees {
		v = v.Scale(math.Pi / 180)
	}
	return v
}

// resolvePose resolves a definition's transform components. Absent
// fields contribute nothing: no position, no rotation, unit scale.
func resolvePose(def *scene.ModelDefinition, sceneUnits scene.RotationUnits) (pos, rot, scale math3d.Vec3) {
	pos = math3d.Zero3()
	if def.Position != nil {
		pos = math3d.V3(def.Position[0], def.Position[1], def.Position[2])
	}
	rot = math3d.Zero3()
	if def.Rotation != nil {
		rot = resolveRotation(*def.Rotation, def.RotationUnits, sceneUnits)
	}
	return pos, rot, def.Scale.Vec3()
}

// modelTransform builds the local transform a definition asks for.
func modelTransform(def *scene.ModelDefinition, sceneUnits scene.RotationUnits) math3d.Mat4 {
	return math3d.TRS(resolvePose(def, sceneUnits))
}
