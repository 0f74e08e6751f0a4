package models

// DecodedGeometry is the output of an external geometry decoder:
// parallel attribute slices plus an optional index list.
type DecodedGeometry struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32
}

// GeometryDecoder decompresses encoded geometry found inside scene
// interchange files (KHR_draco_mesh_compression buffer views). The
// decompression itself lives outside this module; the loader only
// calls this documented entry point. A nil decoder makes compressed
// primitives fail with a ParseError.
type GeometryDecoder interface {
	// DecodeGeometry decodes one compressed primitive.
	DecodeGeometry(compressed []byte) (*DecodedGeometry, error)
}

// dracoExtension mirrors the KHR_draco_mesh_compression extension
// payload on a primitive.
type dracoExtension struct {
	BufferView int            `json:"bufferView"`
	Attributes map[string]int `json:"attributes"`
}

const dracoExtensionName = "KHR_draco_mesh_compression"
