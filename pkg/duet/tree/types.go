// Package tree builds the hierarchical, status-aggregated comparison tree
// from a flat scan report for display.
package tree

import (
	"github.com/duetcmp/duet/pkg/duet/types"
)

// Node represents a directory or file in the comparison tree.
type Node struct {
	// Name is the single path segment; empty for the synthetic root.
	Name string `json:"name"`

	// Path is the full engine-relative path; empty for the root.
	Path string `json:"path"`

	// Status is the entry status for leaves, or the aggregate of the
	// descendants for directories.
	Status types.Status `json:"status"`

	// IsDir is true for intermediate segments and for leaf entries
	// that report a directory on either side.
	IsDir bool `json:"is_dir"`

	// Side metadata, present only on leaf entries.
	LeftSize      *int64 `json:"left_size,omitempty"`
	LeftModified  *int64 `json:"left_modified,omitempty"`
	RightSize     *int64 `json:"right_size,omitempty"`
	RightModified *int64 `json:"right_modified,omitempty"`

	// Tree structure. Children are owned by this node; Parent is a
	// non-owning back-reference used only for position lookup.
	Children []*Node `json:"children,omitempty"`
	Parent   *Node   `json:"-"`

	// UI state
	Expanded bool `json:"expanded,omitempty"`
}

// AddChild appends a child and sets its parent back-reference.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Child returns the direct child with the given segment name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IsLeaf returns true if the node is a file or a childless directory.
func (n *Node) IsLeaf() bool {
	return !n.IsDir || len(n.Children) == 0
}

// Row returns this node's index within its parent's children.
// The root reports 0.
func (n *Node) Row() int {
	if n.Parent == nil {
		return 0
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return 0
}

// Depth returns the distance from the root (root = 0).
func (n *Node) Depth() int {
	depth := 0
	for current := n.Parent; current != nil; current = current.Parent {
		depth++
	}
	return depth
}

// Find walks the tree for the node with the given engine-relative path.
// Returns nil if no such node exists. An empty path returns the node itself.
func (n *Node) Find(path string) *Node {
	if path == n.Path {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits the node and all descendants in depth-first order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Flatten returns the visible nodes in display order. Collapsed
// directories hide their children. The synthetic root is excluded.
func (n *Node) Flatten() []*Node {
	var result []*Node
	for _, child := range n.Children {
		result = append(result, child.flatten()...)
	}
	return result
}

func (n *Node) flatten() []*Node {
	result := []*Node{n}
	if n.IsDir && n.Expanded {
		for _, child := range n.Children {
			result = append(result, child.flatten()...)
		}
	}
	return result
}

// Toggle expands or collapses a directory node. No effect on files.
func (n *Node) Toggle() {
	if !n.IsDir {
		return
	}
	n.Expanded = !n.Expanded
}

// ExpandAll expands this node and all descendant directories.
func (n *Node) ExpandAll() {
	if n.IsDir {
		n.Expanded = true
		for _, child := range n.Children {
			child.ExpandAll()
		}
	}
}

// CollapseAll collapses this node and all descendant directories.
func (n *Node) CollapseAll() {
	if n.IsDir {
		n.Expanded = false
		for _, child := range n.Children {
			child.CollapseAll()
		}
	}
}
