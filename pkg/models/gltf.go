package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/plinth3d/plinth/pkg/math3d"
)

// LoadCompressedScene decodes a glTF/GLB buffer into a node hierarchy.
// Every triangle primitive becomes one drawable child under a single
// root group, carrying its accumulated world transform. Primitives
// compressed with KHR_draco_mesh_compression go through opts.Decoder;
// with no decoder configured they fail with a ParseError.
func LoadCompressedScene(data []byte, opts LoadOptions) (*Node, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, &ParseError{Format: "gltf", Err: err}
	}

	b := &gltfBuilder{
		doc:      doc,
		opts:     opts,
		root:     NewGroup(opts.Name),
		textures: make(map[int]*Texture),
	}
	for _, idx := range b.sceneRoots() {
		if err := b.visit(idx, math3d.Identity()); err != nil {
			return nil, err
		}
	}
	if len(b.root.Children) == 0 {
		return nil, parseErrorf("gltf", "no triangle geometry")
	}
	return b.root, nil
}

type gltfBuilder struct {
	doc      *gltf.Document
	opts     LoadOptions
	root     *Node
	textures map[int]*Texture // keyed by image index
}

// sceneRoots returns the node indices of the default scene, falling
// back to the first scene, then to every node when none is declared.
func (b *gltfBuilder) sceneRoots() []int {
	doc := b.doc
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	all := make([]int, len(doc.Nodes))
	for i := range doc.Nodes {
		all[i] = i
	}
	return all
}

// visit flattens the document node tree: drawables are attached to the
// root with their accumulated transform baked in, so the presenter can
// treat every loaded model as one group of leaf drawables.
func (b *gltfBuilder) visit(nodeIdx int, parent math3d.Mat4) error {
	if nodeIdx < 0 || nodeIdx >= len(b.doc.Nodes) {
		return parseErrorf("gltf", "node index %d out of range", nodeIdx)
	}
	node := b.doc.Nodes[nodeIdx]
	world := parent.Mul(localTransform(node))

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(b.doc.Meshes) {
			return parseErrorf("gltf", "mesh index %d out of range", *node.Mesh)
		}
		m := b.doc.Meshes[*node.Mesh]
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			mesh, err := b.primitiveMesh(prim)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", m.Name, pi, err)
			}
			mat, err := b.primitiveMaterial(prim)
			if err != nil {
				return err
			}
			child := NewGroup(node.Name)
			child.Mesh = mesh
			child.Material = mat
			child.Transform = world
			b.root.Add(child)
		}
	}

	for _, c := range node.Children {
		if err := b.visit(c, world); err != nil {
			return err
		}
	}
	return nil
}

// localTransform builds a node's local matrix: an explicit matrix wins,
// otherwise T*R*S from the components with glTF defaults filled in for
// zero values.
func localTransform(n *gltf.Node) math3d.Mat4 {
	if n.Matrix != ([16]float64{}) {
		return math3d.Mat4(n.Matrix)
	}
	t := math3d.V3(n.Translation[0], n.Translation[1], n.Translation[2])
	rot := n.Rotation
	if rot == ([4]float64{}) {
		rot[3] = 1
	}
	s := math3d.V3(n.Scale[0], n.Scale[1], n.Scale[2])
	if s == math3d.Zero3() {
		s = math3d.Splat3(1)
	}
	return math3d.Translate(t).
		Mul(math3d.RotateQuat(rot[0], rot[1], rot[2], rot[3])).
		Mul(math3d.Scale(s))
}

func (b *gltfBuilder) primitiveMesh(prim *gltf.Primitive) (*Mesh, error) {
	if _, compressed := prim.Extensions[dracoExtensionName]; compressed {
		return b.compressedMesh(prim)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, parseErrorf("gltf", "primitive has no positions")
	}
	positions, err := b.readVec3Accessor(posIdx)
	if err != nil {
		return nil, err
	}

	var normals []math3d.Vec3
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = b.readVec3Accessor(normIdx); err != nil {
			return nil, err
		}
	}
	var uvs []math3d.Vec2
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = b.readVec2Accessor(uvIdx); err != nil {
			return nil, err
		}
	}

	mesh := &Mesh{Vertices: make([]Vertex, len(positions))}
	for i, p := range positions {
		v := Vertex{Position: p}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			// glTF puts V=0 at the top of the image; samplers here
			// use a bottom-left origin.
			v.UV = math3d.V2(uvs[i].X, 1-uvs[i].Y)
		}
		mesh.Vertices[i] = v
	}

	if prim.Indices != nil {
		if mesh.Indices, err = b.readIndices(*prim.Indices); err != nil {
			return nil, err
		}
	}
	if !mesh.HasNormals() {
		mesh.ComputeSmoothNormals()
	}
	return mesh, nil
}

// compressedMesh routes a Draco-compressed primitive through the
// configured decoder.
func (b *gltfBuilder) compressedMesh(prim *gltf.Primitive) (*Mesh, error) {
	if b.opts.Decoder == nil {
		return nil, parseErrorf("gltf", "compressed primitive but no geometry decoder configured")
	}

	var ext dracoExtension
	switch raw := prim.Extensions[dracoExtensionName].(type) {
	case json.RawMessage:
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, parseErrorf("gltf", "bad %s payload: %v", dracoExtensionName, err)
		}
	case []byte:
		if err := json.Unmarshal(raw, &ext); err != nil {
			return nil, parseErrorf("gltf", "bad %s payload: %v", dracoExtensionName, err)
		}
	case dracoExtension:
		ext = raw
	default:
		return nil, parseErrorf("gltf", "unexpected %s payload type %T", dracoExtensionName, raw)
	}

	blob, err := b.bufferViewData(ext.BufferView)
	if err != nil {
		return nil, err
	}
	geom, err := b.opts.Decoder.DecodeGeometry(blob)
	if err != nil {
		return nil, &ParseError{Format: "gltf", Err: err}
	}

	mesh := &Mesh{Vertices: make([]Vertex, len(geom.Positions))}
	for i, p := range geom.Positions {
		v := Vertex{Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))}
		if i < len(geom.Normals) {
			n := geom.Normals[i]
			v.Normal = math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))
		}
		if i < len(geom.UVs) {
			uv := geom.UVs[i]
			v.UV = math3d.V2(float64(uv[0]), 1-float64(uv[1]))
		}
		mesh.Vertices[i] = v
	}
	mesh.Indices = geom.Indices
	if !mesh.HasNormals() {
		mesh.ComputeSmoothNormals()
	}
	return mesh, nil
}

// primitiveMaterial resolves a primitive's PBR material, defaults
// applied, scene override layered on top. Unlike the point-cloud
// loader, scene files default to smooth shading.
func (b *gltfBuilder) primitiveMaterial(prim *gltf.Primitive) (*Material, error) {
	mat := DefaultMaterial(b.opts.Name)
	mat.FlatShading = false

	if prim.Material != nil && *prim.Material < len(b.doc.Materials) {
		src := b.doc.Materials[*prim.Material]
		if src.Name != "" {
			mat.Name = src.Name
		}
		if pbr := src.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				mat.BaseColor = *pbr.BaseColorFactor
			}
			if pbr.MetallicFactor != nil {
				mat.Metallic = *pbr.MetallicFactor
			}
			if pbr.RoughnessFactor != nil {
				mat.Roughness = *pbr.RoughnessFactor
			}
			if pbr.BaseColorTexture != nil {
				tex, err := b.texture(pbr.BaseColorTexture.Index)
				if err != nil {
					return nil, err
				}
				mat.Texture = tex
			}
		}
	}
	if err := mat.ApplyOverride(b.opts.Material); err != nil {
		return nil, &ParseError{Format: "gltf", Err: err}
	}
	return &mat, nil
}

// texture decodes and caches the image behind texture index ti.
// Materials referencing the same image share one *Texture, which keeps
// statistics honest about distinct textures.
func (b *gltfBuilder) texture(ti int) (*Texture, error) {
	if ti < 0 || ti >= len(b.doc.Textures) {
		return nil, parseErrorf("gltf", "texture index %d out of range", ti)
	}
	src := b.doc.Textures[ti].Source
	if src == nil || *src < 0 || *src >= len(b.doc.Images) {
		return nil, parseErrorf("gltf", "texture %d has no image", ti)
	}
	if tex, ok := b.textures[*src]; ok {
		return tex, nil
	}

	img := b.doc.Images[*src]
	if img.BufferView == nil {
		// External image URIs need a second fetch; the loader works on
		// a single buffer, so these render untextured.
		return nil, nil
	}
	raw, err := b.bufferViewData(*img.BufferView)
	if err != nil {
		return nil, err
	}
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, parseErrorf("gltf", "decode image %q: %v", img.Name, err)
	}
	tex := &Texture{Name: img.Name, Image: decoded}
	b.textures[*src] = tex
	return tex, nil
}

func (b *gltfBuilder) bufferViewData(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(b.doc.BufferViews) {
		return nil, parseErrorf("gltf", "buffer view %d out of range", idx)
	}
	bv := b.doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(b.doc.Buffers) {
		return nil, parseErrorf("gltf", "buffer %d out of range", bv.Buffer)
	}
	buf := b.doc.Buffers[bv.Buffer]
	if buf.Data == nil {
		return nil, parseErrorf("gltf", "buffer %d has no embedded data", bv.Buffer)
	}
	end := bv.ByteOffset + bv.ByteLength
	if end > len(buf.Data) {
		return nil, parseErrorf("gltf", "buffer view %d overruns buffer", idx)
	}
	return buf.Data[bv.ByteOffset:end], nil
}

func (b *gltfBuilder) readVec3Accessor(idx int) ([]math3d.Vec3, error) {
	acc, data, err := b.accessor(idx, gltf.AccessorVec3, 12)
	if err != nil {
		return nil, err
	}
	out := make([]math3d.Vec3, acc.count)
	for i := range acc.count {
		off := i * acc.stride
		out[i] = math3d.V3(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
			float64(readFloat32(data[off+8:])),
		)
	}
	return out, nil
}

func (b *gltfBuilder) readVec2Accessor(idx int) ([]math3d.Vec2, error) {
	acc, data, err := b.accessor(idx, gltf.AccessorVec2, 8)
	if err != nil {
		return nil, err
	}
	out := make([]math3d.Vec2, acc.count)
	for i := range acc.count {
		off := i * acc.stride
		out[i] = math3d.V2(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
		)
	}
	return out, nil
}

func (b *gltfBuilder) readIndices(idx int) ([]uint32, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, parseErrorf("gltf", "accessor %d out of range", idx)
	}
	a := b.doc.Accessors[idx]
	if a.Type != gltf.AccessorScalar {
		return nil, parseErrorf("gltf", "index accessor is %v, want SCALAR", a.Type)
	}

	var size int
	switch a.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, parseErrorf("gltf", "unsupported index component type %v", a.ComponentType)
	}

	acc, data, err := b.accessor(idx, gltf.AccessorScalar, size)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.count)
	for i := range acc.count {
		off := i * acc.stride
		switch size {
		case 1:
			out[i] = uint32(data[off])
		case 2:
			out[i] = uint32(data[off]) | uint32(data[off+1])<<8
		case 4:
			out[i] = uint32(data[off]) | uint32(data[off+1])<<8 |
				uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		}
	}
	return out, nil
}

type accessorView struct {
	count  int
	stride int
}

// accessor validates an accessor against the expected element type and
// returns its backing bytes starting at the accessor's offset, plus the
// effective stride.
func (b *gltfBuilder) accessor(idx int, want gltf.AccessorType, elemSize int) (accessorView, []byte, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return accessorView{}, nil, parseErrorf("gltf", "accessor %d out of range", idx)
	}
	a := b.doc.Accessors[idx]
	if a.Type != want {
		return accessorView{}, nil, parseErrorf("gltf", "accessor %d is %v, want %v", idx, a.Type, want)
	}
	if a.BufferView == nil {
		return accessorView{}, nil, parseErrorf("gltf", "accessor %d has no buffer view", idx)
	}
	data, err := b.bufferViewData(*a.BufferView)
	if err != nil {
		return accessorView{}, nil, err
	}

	stride := b.doc.BufferViews[*a.BufferView].ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if a.ByteOffset > len(data) {
		return accessorView{}, nil, parseErrorf("gltf", "accessor %d offset overruns view", idx)
	}
	data = data[a.ByteOffset:]
	if a.Count > 0 && (a.Count-1)*stride+elemSize > len(data) {
		return accessorView{}, nil, parseErrorf("gltf", "accessor %d overruns view", idx)
	}
	return accessorView{count: a.Count, stride: stride}, data, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
