// Package models provides the renderable node graph produced by the
// model loaders, and the loaders themselves: a point-cloud triangle
// loader (PLY) and a compressed scene loader (glTF/GLB).
package models

import (
	"github.com/plinth3d/plinth/pkg/math3d"
)

// Vertex holds all per-vertex attributes.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Mesh is flat triangle geometry. When Indices is nil the vertices
// form sequential triangles; otherwise every three indices form one.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32

	bounds      math3d.Box3
	boundsValid bool
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if m.Indices != nil {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c Vertex) {
	if m.Indices != nil {
		return m.Vertices[m.Indices[i*3]],
			m.Vertices[m.Indices[i*3+1]],
			m.Vertices[m.Indices[i*3+2]]
	}
	return m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]
}

// Bounds returns the local-space axis-aligned bounding box, cached
// after the first call.
func (m *Mesh) Bounds() math3d.Box3 {
	if !m.boundsValid {
		b := math3d.EmptyBox3()
		for i := range m.Vertices {
			b = b.Expand(m.Vertices[i].Position)
		}
		m.bounds = b
		m.boundsValid = true
	}
	return m.bounds
}

// HasNormals reports whether any vertex carries a meaningful normal.
func (m *Mesh) HasNormals() bool {
	for i := range m.Vertices {
		if m.Vertices[i].Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// ComputeFlatNormals assigns each face's normal to its vertices.
func (m *Mesh) ComputeFlatNormals() {
	for i := range m.TriangleCount() {
		i0, i1, i2 := m.triangleIndices(i)
		v0 := m.Vertices[i0].Position
		v1 := m.Vertices[i1].Position
		v2 := m.Vertices[i2].Position

		n := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
		m.Vertices[i0].Normal = n
		m.Vertices[i1].Normal = n
		m.Vertices[i2].Normal = n
	}
}

// ComputeSmoothNormals averages face normals per vertex, weighting by
// face area (unnormalized cross products accumulate).
func (m *Mesh) ComputeSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}
	for i := range m.TriangleCount() {
		i0, i1, i2 := m.triangleIndices(i)
		v0 := m.Vertices[i0].Position
		v1 := m.Vertices[i1].Position
		v2 := m.Vertices[i2].Position

		n := v1.Sub(v0).Cross(v2.Sub(v0))
		m.Vertices[i0].Normal = m.Vertices[i0].Normal.Add(n)
		m.Vertices[i1].Normal = m.Vertices[i1].Normal.Add(n)
		m.Vertices[i2].Normal = m.Vertices[i2].Normal.Add(n)
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

func (m *Mesh) triangleIndices(i int) (int, int, int) {
	if m.Indices != nil {
		return int(m.Indices[i*3]), int(m.Indices[i*3+1]), int(m.Indices[i*3+2])
	}
	return i * 3, i*3 + 1, i*3 + 2
}
