package scene

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const sampleScene = `{
	"projectId": "proj-42",
	"rotationUnits": "deg",
	"enableControls": true,
	"environment": {
		"showGround": true,
		"background": "#202028",
		"headLightOffset": [30, -15]
	},
	"models": [
		{
			"id": "chassis",
			"file": "chassis.glb",
			"position": [0, 0.5, 0],
			"rotation": [0, 90, 0],
			"scale": 2.5,
			"material": {"color": "#ff8800", "flatShading": false}
		},
		{
			"id": "scan",
			"file": "https://assets.example.com/scan.ply",
			"visible": false,
			"scale": [1, 2, 1]
		}
	],
	"someUnknownField": 7
}`

func TestParseScene(t *testing.T) {
	d, err := Parse([]byte(sampleScene))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if d.ProjectID != "proj-42" {
		t.Errorf("ProjectID = %q", d.ProjectID)
	}
	if d.RotationUnits != UnitsDegrees {
		t.Errorf("RotationUnits = %q", d.RotationUnits)
	}
	if len(d.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(d.Models))
	}

	chassis := &d.Models[0]
	if chassis.Scale == nil || chassis.Scale.Uniform == nil || *chassis.Scale.Uniform != 2.5 {
		t.Errorf("chassis scale should be uniform 2.5")
	}
	if chassis.Scale.Vec3().X != 2.5 {
		t.Errorf("chassis scale Vec3 = %v", chassis.Scale.Vec3())
	}
	if !chassis.IsVisible() {
		t.Error("visibility should default to true")
	}
	if chassis.Material == nil || chassis.Material.FlatShading == nil || *chassis.Material.FlatShading {
		t.Error("chassis flatShading override should be false")
	}

	scan := &d.Models[1]
	if scan.IsVisible() {
		t.Error("scan should be explicitly hidden")
	}
	if scan.Scale == nil || scan.Scale.Vector == nil || scan.Scale.Vec3().Y != 2 {
		t.Errorf("scan scale = %v", scan.Scale)
	}

	if d.Environment == nil || !d.Environment.ShowGround {
		t.Error("environment showGround should be set")
	}
	if d.Environment.HeadLightOffset == nil || d.Environment.HeadLightOffset[1] != -15 {
		t.Errorf("headLightOffset = %v", d.Environment.HeadLightOffset)
	}
}

func TestValidateDuplicateID(t *testing.T) {
	_, err := Parse([]byte(`{"models": [
		{"id": "m1", "file": "a.ply"},
		{"id": "m1", "file": "b.ply"}
	]}`))
	if err == nil || !strings.Contains(err.Error(), "duplicate model id") {
		t.Errorf("expected duplicate id error, got %v", err)
	}
}

func TestValidateMissingFields(t *testing.T) {
	if _, err := Parse([]byte(`{"models": [{"file": "a.ply"}]}`)); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := Parse([]byte(`{"models": [{"id": "m1"}]}`)); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScaleSpecRoundTrip(t *testing.T) {
	var s ScaleSpec
	if err := json.Unmarshal([]byte(`3`), &s); err != nil {
		t.Fatal(err)
	}
	out, _ := json.Marshal(s)
	if string(out) != "3" {
		t.Errorf("uniform round trip = %s", out)
	}

	if err := json.Unmarshal([]byte(`[1,2,3]`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Uniform != nil {
		t.Error("vector unmarshal should clear uniform")
	}
	out, _ = json.Marshal(s)
	if string(out) != "[1,2,3]" {
		t.Errorf("vector round trip = %s", out)
	}

	if err := json.Unmarshal([]byte(`"big"`), &s); err == nil {
		t.Error("expected error for non-numeric scale")
	}
}

func TestFormatForFile(t *testing.T) {
	cases := []struct {
		file string
		want ModelFormat
	}{
		{"model.ply", FormatPointCloudMesh},
		{"Model.PLY", FormatPointCloudMesh},
		{"model.glb", FormatCompressedScene},
		{"model.gltf", FormatCompressedScene},
		{"https://cdn.example.com/a/model.glb?sig=abc", FormatCompressedScene},
	}
	for _, c := range cases {
		got, err := FormatForFile(c.file)
		if err != nil {
			t.Errorf("FormatForFile(%q): %v", c.file, err)
			continue
		}
		if got != c.want {
			t.Errorf("FormatForFile(%q) = %v, want %v", c.file, got, c.want)
		}
	}

	_, err := FormatForFile("points.xyz")
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if ufe.Ext != ".xyz" {
		t.Errorf("Ext = %q", ufe.Ext)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8800")
	if err != nil || c.R != 0xff || c.G != 0x88 || c.B != 0 {
		t.Errorf("ParseColor(#ff8800) = %v, %v", c, err)
	}
	c, err = ParseColor("#fff")
	if err != nil || c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("ParseColor(#fff) = %v, %v", c, err)
	}
	if _, err := ParseColor("red"); err == nil {
		t.Error("expected error for named color")
	}
	if _, err := ParseColor("#12345"); err == nil {
		t.Error("expected error for 5-digit color")
	}
}
