package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/plinth3d/plinth/pkg/math3d"
)

// LoadPointCloudMesh decodes a PLY buffer (ascii or binary
// little-endian) into a single drawable node. Vertex normals are
// computed when the file carries none; the node's material starts from
// the loader default and applies the scene override on top.
func LoadPointCloudMesh(data []byte, opts LoadOptions) (*Node, error) {
	hdr, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	var mesh *Mesh
	if hdr.ascii {
		mesh, err = parsePLYASCII(hdr, body)
	} else {
		mesh, err = parsePLYBinary(hdr, body)
	}
	if err != nil {
		return nil, err
	}
	if mesh.TriangleCount() == 0 {
		return nil, parseErrorf("ply", "no triangles")
	}

	mat := DefaultMaterial(opts.Name)
	if err := mat.ApplyOverride(opts.Material); err != nil {
		return nil, &ParseError{Format: "ply", Err: err}
	}
	if !mesh.HasNormals() {
		if mat.FlatShading {
			mesh.ComputeFlatNormals()
		} else {
			mesh.ComputeSmoothNormals()
		}
	}

	node := NewGroup(opts.Name)
	node.Mesh = mesh
	node.Material = &mat
	return node, nil
}

type plyProperty struct {
	name      string
	typ       string // scalar type, or item type for lists
	isList    bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	ascii    bool
	elements []plyElement
}

var plyTypeSizes = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

func parsePLYHeader(data []byte) (*plyHeader, []byte, error) {
	end := bytes.Index(data, []byte("end_header\n"))
	if end < 0 {
		return nil, nil, parseErrorf("ply", "missing end_header")
	}
	body := data[end+len("end_header\n"):]

	hdr := &plyHeader{}
	sc := bufio.NewScanner(bytes.NewReader(data[:end]))
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			if line != "ply" {
				return nil, nil, parseErrorf("ply", "missing magic")
			}
			first = false
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
			// ignored
		case "format":
			if len(fields) < 2 {
				return nil, nil, parseErrorf("ply", "malformed format line")
			}
			switch fields[1] {
			case "ascii":
				hdr.ascii = true
			case "binary_little_endian":
				hdr.ascii = false
			default:
				return nil, nil, parseErrorf("ply", "unsupported encoding %q", fields[1])
			}
		case "element":
			if len(fields) != 3 {
				return nil, nil, parseErrorf("ply", "malformed element line")
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, nil, parseErrorf("ply", "bad element count %q", fields[2])
			}
			hdr.elements = append(hdr.elements, plyElement{name: fields[1], count: n})
		case "property":
			if len(hdr.elements) == 0 {
				return nil, nil, parseErrorf("ply", "property before element")
			}
			el := &hdr.elements[len(hdr.elements)-1]
			if len(fields) == 5 && fields[1] == "list" {
				el.props = append(el.props, plyProperty{
					name: fields[4], typ: fields[3], isList: true, countType: fields[2],
				})
			} else if len(fields) == 3 {
				el.props = append(el.props, plyProperty{name: fields[2], typ: fields[1]})
			} else {
				return nil, nil, parseErrorf("ply", "malformed property line")
			}
		}
	}
	return hdr, body, nil
}

// vertexLayout records which property indexes feed which attribute.
type vertexLayout struct {
	x, y, z    int
	nx, ny, nz int
	u, v       int
}

func layoutFor(el *plyElement) vertexLayout {
	l := vertexLayout{x: -1, y: -1, z: -1, nx: -1, ny: -1, nz: -1, u: -1, v: -1}
	for i, p := range el.props {
		switch p.name {
		case "x":
			l.x = i
		case "y":
			l.y = i
		case "z":
			l.z = i
		case "nx":
			l.nx = i
		case "ny":
			l.ny = i
		case "nz":
			l.nz = i
		case "s", "u":
			l.u = i
		case "t", "v":
			l.v = i
		}
	}
	return l
}

func buildVertex(vals []float64, l vertexLayout) Vertex {
	at := func(i int) float64 {
		if i < 0 {
			return 0
		}
		return vals[i]
	}
	return Vertex{
		Position: math3d.V3(at(l.x), at(l.y), at(l.z)),
		Normal:   math3d.V3(at(l.nx), at(l.ny), at(l.nz)),
		UV:       math3d.V2(at(l.u), at(l.v)),
	}
}

// appendFace fan-triangulates a polygon into the index list.
func appendFace(indices []uint32, poly []uint32) []uint32 {
	for i := 1; i+1 < len(poly); i++ {
		indices = append(indices, poly[0], poly[i], poly[i+1])
	}
	return indices
}

func parsePLYASCII(hdr *plyHeader, body []byte) (*Mesh, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	nextLine := func() ([]string, error) {
		for sc.Scan() {
			fields := strings.Fields(sc.Text())
			if len(fields) > 0 {
				return fields, nil
			}
		}
		return nil, parseErrorf("ply", "unexpected end of data")
	}

	mesh := &Mesh{}
	for ei := range hdr.elements {
		el := &hdr.elements[ei]
		switch el.name {
		case "vertex":
			l := layoutFor(el)
			if l.x < 0 || l.y < 0 || l.z < 0 {
				return nil, parseErrorf("ply", "vertex element lacks x/y/z")
			}
			vals := make([]float64, len(el.props))
			for range el.count {
				fields, err := nextLine()
				if err != nil {
					return nil, err
				}
				if len(fields) < len(el.props) {
					return nil, parseErrorf("ply", "short vertex line")
				}
				for i := range el.props {
					f, err := strconv.ParseFloat(fields[i], 64)
					if err != nil {
						return nil, parseErrorf("ply", "bad vertex value %q", fields[i])
					}
					vals[i] = f
				}
				mesh.Vertices = append(mesh.Vertices, buildVertex(vals, l))
			}
		case "face":
			for range el.count {
				fields, err := nextLine()
				if err != nil {
					return nil, err
				}
				n, err := strconv.Atoi(fields[0])
				if err != nil || n < 0 {
					return nil, parseErrorf("ply", "bad face vertex count %q", fields[0])
				}
				if len(fields) < 1+n {
					return nil, parseErrorf("ply", "malformed face line")
				}
				poly := make([]uint32, n)
				for i := range n {
					idx, err := strconv.Atoi(fields[1+i])
					if err != nil || idx < 0 || idx >= len(mesh.Vertices) {
						return nil, parseErrorf("ply", "face index out of range")
					}
					poly[i] = uint32(idx)
				}
				mesh.Indices = appendFace(mesh.Indices, poly)
			}
		default:
			// Skip unknown elements line by line.
			for range el.count {
				if _, err := nextLine(); err != nil {
					return nil, err
				}
			}
		}
	}
	return mesh, nil
}

func parsePLYBinary(hdr *plyHeader, body []byte) (*Mesh, error) {
	r := bytes.NewReader(body)

	readScalar := func(typ string) (float64, error) {
		size, ok := plyTypeSizes[typ]
		if !ok {
			return 0, parseErrorf("ply", "unknown property type %q", typ)
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, parseErrorf("ply", "unexpected end of binary data")
		}
		switch typ {
		case "char", "int8":
			return float64(int8(buf[0])), nil
		case "uchar", "uint8":
			return float64(buf[0]), nil
		case "short", "int16":
			return float64(int16(binary.LittleEndian.Uint16(buf))), nil
		case "ushort", "uint16":
			return float64(binary.LittleEndian.Uint16(buf)), nil
		case "int", "int32":
			return float64(int32(binary.LittleEndian.Uint32(buf))), nil
		case "uint", "uint32":
			return float64(binary.LittleEndian.Uint32(buf)), nil
		case "float", "float32":
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
		case "double", "float64":
			return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
		}
		return 0, parseErrorf("ply", "unknown property type %q", typ)
	}

	mesh := &Mesh{}
	for ei := range hdr.elements {
		el := &hdr.elements[ei]
		switch el.name {
		case "vertex":
			l := layoutFor(el)
			if l.x < 0 || l.y < 0 || l.z < 0 {
				return nil, parseErrorf("ply", "vertex element lacks x/y/z")
			}
			vals := make([]float64, len(el.props))
			for range el.count {
				for i, p := range el.props {
					if p.isList {
						return nil, parseErrorf("ply", "list property on vertex element")
					}
					f, err := readScalar(p.typ)
					if err != nil {
						return nil, err
					}
					vals[i] = f
				}
				mesh.Vertices = append(mesh.Vertices, buildVertex(vals, l))
			}
		case "face":
			for range el.count {
				for _, p := range el.props {
					if !p.isList {
						if _, err := readScalar(p.typ); err != nil {
							return nil, err
						}
						continue
					}
					nf, err := readScalar(p.countType)
					if err != nil {
						return nil, err
					}
					n := int(nf)
					// each index takes at least one byte, so a count
					// beyond the remaining input is malformed too
					if n < 0 || n > r.Len() {
						return nil, parseErrorf("ply", "bad face vertex count %d", n)
					}
					poly := make([]uint32, 0, n)
					for range n {
						f, err := readScalar(p.typ)
						if err != nil {
							return nil, err
						}
						idx := int(f)
						if idx < 0 || idx >= len(mesh.Vertices) {
							return nil, parseErrorf("ply", "face index out of range")
						}
						poly = append(poly, uint32(idx))
					}
					if p.name == "vertex_indices" || p.name == "vertex_index" {
						mesh.Indices = appendFace(mesh.Indices, poly)
					}
				}
			}
		default:
			for range el.count {
				for _, p := range el.props {
					if p.isList {
						nf, err := readScalar(p.countType)
						if err != nil {
							return nil, err
						}
						for range int(nf) {
							if _, err := readScalar(p.typ); err != nil {
								return nil, err
							}
						}
					} else if _, err := readScalar(p.typ); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return mesh, nil
}
