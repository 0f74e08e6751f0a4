// Package scene defines the declarative scene description consumed by
// the presenter: a list of model entries plus environment and control
// settings. Descriptions are plain data owned by the caller and
// typically arrive as JSON documents.
package scene

import (
	"encoding/json"
	"fmt"
	"image/color"

	"github.com/plinth3d/plinth/pkg/math3d"
)

// RotationUnits selects how rotation values are interpreted.
type RotationUnits string

const (
	// UnitsUnspecified leaves unit resolution to the scene-level
	// setting or, failing that, the magnitude heuristic.
	UnitsUnspecified RotationUnits = ""
	UnitsDegrees     RotationUnits = "deg"
	UnitsRadians     RotationUnits = "rad"
)

// Description is the declarative input for one viewing session.
type Description struct {
	ProjectID      string            `json:"projectId,omitempty"`
	Models         []ModelDefinition `json:"models"`
	Environment    *Environment      `json:"environment,omitempty"`
	EnableControls bool              `json:"enableControls,omitempty"`
	RotationUnits  RotationUnits     `json:"rotationUnits,omitempty"`
}

// ModelDefinition describes one model entry. ID is the stable key into
// the presenter's node, stats, and visibility maps.
type ModelDefinition struct {
	ID            string            `json:"id"`
	File          string            `json:"file"`
	Title         string            `json:"title,omitempty"`
	Position      *[3]float64       `json:"position,omitempty"`
	Rotation      *[3]float64       `json:"rotation,omitempty"`
	RotationUnits RotationUnits     `json:"rotationUnits,omitempty"`
	Scale         *ScaleSpec        `json:"scale,omitempty"`
	Visible       *bool             `json:"visible,omitempty"`
	Material      *MaterialOverride `json:"material,omitempty"`
}

// IsVisible returns the effective visibility (default true).
func (m *ModelDefinition) IsVisible() bool {
	return m.Visible == nil || *m.Visible
}

// MaterialOverride carries per-model material settings layered over
// loader defaults. Nil pointer fields mean "keep the default".
type MaterialOverride struct {
	Color       string   `json:"color,omitempty"`
	Metalness   *float64 `json:"metalness,omitempty"`
	Roughness   *float64 `json:"roughness,omitempty"`
	FlatShading *bool    `json:"flatShading,omitempty"`
}

// Environment holds scene-wide presentation settings.
type Environment struct {
	ShowGround      bool        `json:"showGround,omitempty"`
	Background      string      `json:"background,omitempty"`
	HeadLightOffset *[2]float64 `json:"headLightOffset,omitempty"` // [thetaDeg, phiDeg]
	EnvMap          string      `json:"envMap,omitempty"`
}

// ScaleSpec accepts either a uniform scalar or a 3-component vector.
type ScaleSpec struct {
	Uniform *float64
	Vector  *[3]float64
}

// Vec3 returns the scale as a vector, defaulting to (1,1,1).
func (s *ScaleSpec) Vec3() math3d.Vec3 {
	switch {
	case s == nil:
		return math3d.Splat3(1)
	case s.Uniform != nil:
		return math3d.Splat3(*s.Uniform)
	case s.Vector != nil:
		return math3d.V3(s.Vector[0], s.Vector[1], s.Vector[2])
	}
	return math3d.Splat3(1)
}

// UnmarshalJSON accepts both `2.5` and `[1, 2, 3]`.
func (s *ScaleSpec) UnmarshalJSON(data []byte) error {
	var u float64
	if err := json.Unmarshal(data, &u); err == nil {
		s.Uniform = &u
		s.Vector = nil
		return nil
	}
	var v [3]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("scale must be a number or a 3-element array: %w", err)
	}
	s.Vector = &v
	s.Uniform = nil
	return nil
}

// MarshalJSON writes back the same shape that was read.
func (s ScaleSpec) MarshalJSON() ([]byte, error) {
	if s.Uniform != nil {
		return json.Marshal(*s.Uniform)
	}
	if s.Vector != nil {
		return json.Marshal(*s.Vector)
	}
	return json.Marshal(1.0)
}

// Parse decodes a JSON scene description and validates it. Unknown
// fields are ignored.
func Parse(data []byte) (*Description, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse scene description: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the structural invariants: every model has an id and
// a file, and ids are unique within the scene.
func (d *Description) Validate() error {
	seen := make(map[string]struct{}, len(d.Models))
	for i := range d.Models {
		m := &d.Models[i]
		if m.ID == "" {
			return fmt.Errorf("model at index %d has no id", i)
		}
		if m.File == "" {
			return fmt.Errorf("model %q has no file", m.ID)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// ParseColor parses "#rgb" and "#rrggbb" hex colors.
func ParseColor(s string) (color.RGBA, error) {
	hex := func(c byte) (uint8, bool) {
		switch {
		case c >= '0' && c <= '9':
			return c - '0', true
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10, true
		case c >= 'A' && c <= 'F':
			return c - 'A' + 10, true
		}
		return 0, false
	}

	if len(s) == 0 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	digits := s[1:]
	var vals []uint8
	for i := 0; i < len(digits); i++ {
		v, ok := hex(digits[i])
		if !ok {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 3:
		return color.RGBA{vals[0] * 17, vals[1] * 17, vals[2] * 17, 255}, nil
	case 6:
		return color.RGBA{vals[0]<<4 | vals[1], vals[2]<<4 | vals[3], vals[4]<<4 | vals[5], 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("invalid color %q", s)
}
