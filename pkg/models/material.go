package models

import (
	"image"

	"github.com/plinth3d/plinth/pkg/scene"
)

// Material holds PBR shading parameters for one node. Loaders build a
// fresh Material per drawable node so overrides never alias across the
// hierarchy.
type Material struct {
	Name        string
	BaseColor   [4]float64 // RGBA in 0-1 range
	Metallic    float64    // 0 = dielectric, 1 = metal
	Roughness   float64    // 0 = smooth, 1 = rough
	FlatShading bool
	Texture     *Texture // optional base color texture, shared by identity
}

// Texture is a decoded texture resource. Textures referenced by several
// materials share one Texture value; statistics deduplicate by pointer
// identity.
type Texture struct {
	Name  string
	Image image.Image
}

// Dimensions returns the pixel width and height.
func (t *Texture) Dimensions() (w, h int) {
	if t == nil || t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// DefaultMaterial returns the loader default: light gray, flat shaded,
// fully rough.
func DefaultMaterial(name string) Material {
	return Material{
		Name:        name,
		BaseColor:   [4]float64{0.8, 0.8, 0.8, 1},
		Metallic:    0,
		Roughness:   1,
		FlatShading: true,
	}
}

// ApplyOverride layers scene-level material settings over m. Nil
// override fields keep the existing value.
func (m *Material) ApplyOverride(ov *scene.MaterialOverride) error {
	if ov == nil {
		return nil
	}
	if ov.Color != "" {
		c, err := scene.ParseColor(ov.Color)
		if err != nil {
			return err
		}
		m.BaseColor = [4]float64{
			float64(c.R) / 255,
			float64(c.G) / 255,
			float64(c.B) / 255,
			1,
		}
	}
	if ov.Metalness != nil {
		m.Metallic = *ov.Metalness
	}
	if ov.Roughness != nil {
		m.Roughness = *ov.Roughness
	}
	if ov.FlatShading != nil {
		m.FlatShading = *ov.FlatShading
	}
	return nil
}
