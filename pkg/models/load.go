package models

import (
	"fmt"

	"github.com/plinth3d/plinth/pkg/scene"
)

// LoadOptions carries the per-model settings a loader needs beyond the
// raw buffer. Loaders are transport-agnostic: the caller fetches the
// buffer and hands it over.
type LoadOptions struct {
	// Name labels the produced root node (model id or title).
	Name string
	// Material layers scene-level overrides over loader defaults.
	Material *scene.MaterialOverride
	// Decoder handles compressed geometry inside scene interchange
	// files. Only consulted by the compressed scene loader.
	Decoder GeometryDecoder
}

// Load decodes a pre-fetched model buffer into a single renderable
// node. The format has already been resolved by scene.FormatForFile;
// dispatch is on the enum, never on the file name.
func Load(format scene.ModelFormat, data []byte, opts LoadOptions) (*Node, error) {
	switch format {
	case scene.FormatPointCloudMesh:
		return LoadPointCloudMesh(data, opts)
	case scene.FormatCompressedScene:
		return LoadCompressedScene(data, opts)
	default:
		return nil, fmt.Errorf("no loader for format %v", format)
	}
}
