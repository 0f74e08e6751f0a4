package models

import "github.com/plinth3d/plinth/pkg/math3d"

// TextureStats summarizes the distinct textures under a node.
type TextureStats struct {
	Count      int
	Dimensions [][2]int // width, height per distinct texture
}

// Stats are the renderable statistics for one loaded model.
type Stats struct {
	Triangles int
	Vertices  int
	BBox      math3d.Box3
	Textures  TextureStats
}

// ComputeStats walks the hierarchy under root and aggregates geometry
// counts, world-space bounds, and texture usage. Textures shared by
// several materials count once, by pointer identity.
func ComputeStats(root *Node) Stats {
	var s Stats
	s.BBox = math3d.EmptyBox3()
	seen := make(map[*Texture]bool)

	root.Walk(func(n *Node, world math3d.Mat4) bool {
		if n.Mesh != nil {
			s.Triangles += n.Mesh.TriangleCount()
			s.Vertices += n.Mesh.VertexCount()
			s.BBox = s.BBox.Join(n.Mesh.Bounds().Transform(world))
		}
		if n.Material != nil && n.Material.Texture != nil && !seen[n.Material.Texture] {
			seen[n.Material.Texture] = true
			w, h := n.Material.Texture.Dimensions()
			s.Textures.Count++
			s.Textures.Dimensions = append(s.Textures.Dimensions, [2]int{w, h})
		}
		return true
	})
	return s
}
