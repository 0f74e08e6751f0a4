package presenter

import (
	"encoding/json"

	"github.com/plinth3d/plinth/pkg/math3d"
)

// CameraState is the serializable camera pose.
type CameraState struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	FOV      float64    `json:"fov"` // radians
}

// RenderingState holds the lighting toggles.
type RenderingState struct {
	HeadLightEnabled   bool `json:"headLightEnabled"`
	EnvLightingEnabled bool `json:"envLightingEnabled"`
}

// State is the serializable snapshot of one presentation session. It
// round-trips through GetState/SetState and encoding/json.
type State struct {
	Camera          CameraState     `json:"camera"`
	Rendering       RenderingState  `json:"rendering"`
	ModelVisibility map[string]bool `json:"modelVisibility"`
}

// Marshal encodes the state as indented JSON.
func (s State) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ParseState decodes a state snapshot from JSON.
func ParseState(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, err
	}
	return s, nil
}

// GetState captures the camera pose, lighting toggles, and visibility
// of every loaded model.
func (p *Presenter) GetState() State {
	cam := p.engine.Camera()

	p.mu.Lock()
	defer p.mu.Unlock()

	vis := make(map[string]bool, len(p.visibility))
	for id, v := range p.visibility {
		vis[id] = v
	}
	return State{
		Camera: CameraState{
			Position: [3]float64{cam.Position.X, cam.Position.Y, cam.Position.Z},
			Target:   [3]float64{cam.Target.X, cam.Target.Y, cam.Target.Z},
			FOV:      cam.FOV,
		},
		Rendering: RenderingState{
			HeadLightEnabled:   p.headLight,
			EnvLightingEnabled: p.envLighting,
		},
		ModelVisibility: vis,
	}
}

// SetState applies a snapshot: camera first, then lighting, then
// visibility. Applying the same state twice is a no-op the second
// time; ids that are not currently loaded are skipped.
func (p *Presenter) SetState(s State) {
	cam := p.engine.Camera()
	p.anim.stop()
	cam.SetPosition(math3d.V3(s.Camera.Position[0], s.Camera.Position[1], s.Camera.Position[2]))
	cam.SetTarget(math3d.V3(s.Camera.Target[0], s.Camera.Target[1], s.Camera.Target[2]))
	if s.Camera.FOV > 0 {
		cam.SetFOV(s.Camera.FOV)
	}

	p.mu.Lock()
	p.headLight = s.Rendering.HeadLightEnabled
	p.envLighting = s.Rendering.EnvLightingEnabled
	offset := p.headLightOffset

	for id, visible := range s.ModelVisibility {
		if node, ok := p.nodes[id]; ok {
			node.Visible = visible
			p.visibility[id] = visible
		}
	}
	p.mu.Unlock()

	p.engine.SetHeadLight(s.Rendering.HeadLightEnabled, offset)
	p.engine.SetEnvLighting(s.Rendering.EnvLightingEnabled)
}
