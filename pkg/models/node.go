package models

import (
	"github.com/plinth3d/plinth/pkg/math3d"
)

// Node is an instantiated object in the live scene graph. A node with
// a Mesh is a drawable; a node without one is a pure group. Transform
// is local to the parent.
type Node struct {
	Name      string
	Mesh      *Mesh
	Material  *Material
	Transform math3d.Mat4
	Visible   bool
	Children  []*Node
}

// NewGroup creates an empty, visible group node with an identity
// transform.
func NewGroup(name string) *Node {
	return &Node{
		Name:      name,
		Transform: math3d.Identity(),
		Visible:   true,
	}
}

// Add appends a child node.
func (n *Node) Add(child *Node) {
	n.Children = append(n.Children, child)
}

// Walk visits n and all descendants depth-first, passing each node's
// accumulated world transform. Returning false stops descent into that
// node's children.
func (n *Node) Walk(fn func(node *Node, world math3d.Mat4) bool) {
	n.walk(math3d.Identity(), fn)
}

func (n *Node) walk(parent math3d.Mat4, fn func(*Node, math3d.Mat4) bool) {
	world := parent.Mul(n.Transform)
	if !fn(n, world) {
		return
	}
	for _, c := range n.Children {
		c.walk(world, fn)
	}
}

// WorldBounds returns the bounding box of all drawable geometry under
// n, in n's parent space (i.e. with n's own transform applied).
func (n *Node) WorldBounds() math3d.Box3 {
	out := math3d.EmptyBox3()
	n.Walk(func(node *Node, world math3d.Mat4) bool {
		if node.Mesh != nil {
			out = out.Join(node.Mesh.Bounds().Transform(world))
		}
		return true
	})
	return out
}
