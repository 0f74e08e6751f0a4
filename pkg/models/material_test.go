package models

import (
	"testing"

	"github.com/plinth3d/plinth/pkg/scene"
)

func TestApplyOverride(t *testing.T) {
	m := DefaultMaterial("part")
	metal := 0.5
	flat := false
	err := m.ApplyOverride(&scene.MaterialOverride{
		Color:       "#ff0000",
		Metalness:   &metal,
		FlatShading: &flat,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if m.BaseColor != [4]float64{1, 0, 0, 1} {
		t.Errorf("base color = %v", m.BaseColor)
	}
	if m.Metallic != 0.5 {
		t.Errorf("metallic = %v", m.Metallic)
	}
	if m.FlatShading {
		t.Error("flat shading should be overridden off")
	}
	if m.Roughness != 1 {
		t.Errorf("roughness = %v, want loader default kept", m.Roughness)
	}
}

func TestApplyOverrideNil(t *testing.T) {
	m := DefaultMaterial("part")
	before := m
	if err := m.ApplyOverride(nil); err != nil {
		t.Fatalf("override: %v", err)
	}
	if m != before {
		t.Error("nil override must not change the material")
	}
}

func TestApplyOverrideBadColor(t *testing.T) {
	m := DefaultMaterial("part")
	if err := m.ApplyOverride(&scene.MaterialOverride{Color: "red"}); err == nil {
		t.Error("expected error for non-hex color")
	}
}
