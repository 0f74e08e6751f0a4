package scene

import (
	"fmt"
	"path"
	"strings"
)

// ModelFormat identifies which loader handles a model file. The format
// is resolved once per model at load time and passed to the loader
// explicitly; nothing downstream re-inspects file suffixes.
type ModelFormat int

const (
	// FormatUnknown is the zero value for unrecognized extensions.
	FormatUnknown ModelFormat = iota
	// FormatPointCloudMesh is a flat triangle mesh with per-vertex
	// data (PLY).
	FormatPointCloudMesh
	// FormatCompressedScene is hierarchical scene interchange data
	// (glTF/GLB), possibly with compressed geometry.
	FormatCompressedScene
)

// String implements fmt.Stringer.
func (f ModelFormat) String() string {
	switch f {
	case FormatPointCloudMesh:
		return "point-cloud mesh"
	case FormatCompressedScene:
		return "compressed scene"
	}
	return "unknown"
}

// UnsupportedFormatError reports a model file whose extension maps to
// no loader.
type UnsupportedFormatError struct {
	File string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported model format %q in %q (supported: .ply, .gltf, .glb)", e.Ext, e.File)
}

// FormatForFile resolves a model file name (possibly a full URL) to its
// format, or an UnsupportedFormatError.
func FormatForFile(file string) (ModelFormat, error) {
	name := file
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".ply":
		return FormatPointCloudMesh, nil
	case ".gltf", ".glb":
		return FormatCompressedScene, nil
	default:
		return FormatUnknown, &UnsupportedFormatError{File: file, Ext: strings.ToLower(path.Ext(name))}
	}
}
