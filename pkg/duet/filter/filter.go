// Package filter decides which comparison tree nodes are visible given
// status visibility flags, a name search, and optional path patterns.
//
// The predicate is stateless and never mutates the tree: the rendering
// layer re-evaluates it whenever a flag or the search text changes.
package filter

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/duetcmp/duet/pkg/duet/tree"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// Flags holds the visibility toggles and search text driving the filter.
type Flags struct {
	// Status visibility. Unchecked entries always pass the status gate
	// and are constrained only by the search.
	ShowIdentical bool
	ShowDifferent bool
	ShowLeftOnly  bool
	ShowRightOnly bool

	// ShowFilesOnly suppresses directory rows entirely at render time.
	// It is orthogonal to the status/search predicate and is consulted
	// through HidesDir, never inside Accepts.
	ShowFilesOnly bool

	// Search is a case-insensitive substring match on node names.
	// Leading and trailing whitespace is ignored.
	Search string

	// Patterns restricts visible leaves to paths matching at least one
	// glob pattern. Invalid patterns are skipped.
	Patterns []string
}

// Default returns the flags used for a fresh comparison: everything
// visible, no search.
func Default() Flags {
	return Flags{
		ShowIdentical: true,
		ShowDifferent: true,
		ShowLeftOnly:  true,
		ShowRightOnly: true,
	}
}

// IsDefault reports whether the flags match Default(): all statuses
// visible, no search, no patterns.
func (f Flags) IsDefault() bool {
	return f.ShowIdentical && f.ShowDifferent && f.ShowLeftOnly && f.ShowRightOnly &&
		!f.ShowFilesOnly && strings.TrimSpace(f.Search) == "" && len(f.Patterns) == 0
}

// Accepts reports whether the node should be displayed. A directory with
// children is accepted if it passes the check itself or if any descendant
// leaf does, so a folder stays visible while anything inside it would be.
func (f Flags) Accepts(node *tree.Node) bool {
	if node.IsDir && len(node.Children) > 0 {
		if f.accepts(node) {
			return true
		}
		return f.anyDescendantAccepted(node)
	}
	return f.accepts(node)
}

// HidesDir reports whether the files-only mode removes this node from the
// visible set regardless of descendant matches.
func (f Flags) HidesDir(node *tree.Node) bool {
	return f.ShowFilesOnly && node.IsDir
}

// accepts checks a single node against the status gate, the search text,
// and the path patterns.
func (f Flags) accepts(node *tree.Node) bool {
	switch node.Status {
	case types.StatusSame:
		if !f.ShowIdentical {
			return false
		}
	case types.StatusDifferent:
		if !f.ShowDifferent {
			return false
		}
	case types.StatusOrphanLeft:
		if !f.ShowLeftOnly {
			return false
		}
	case types.StatusOrphanRight:
		if !f.ShowRightOnly {
			return false
		}
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search != "" && !strings.Contains(strings.ToLower(node.Name), search) {
		return false
	}

	if len(f.Patterns) > 0 && !f.matchesAnyPattern(node.Path) {
		return false
	}

	return true
}

func (f Flags) anyDescendantAccepted(node *tree.Node) bool {
	for _, child := range node.Children {
		if f.accepts(child) {
			return true
		}
		if child.IsDir && len(child.Children) > 0 && f.anyDescendantAccepted(child) {
			return true
		}
	}
	return false
}

// matchesAnyPattern returns true if the path matches any of the glob
// patterns, with '/' as the only separator.
func (f Flags) matchesAnyPattern(path string) bool {
	for _, pattern := range f.Patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			continue // Skip invalid patterns
		}
		if g.Match(path) {
			return true
		}
	}
	return false
}

// VisibleLeaves collects the leaf nodes under root that pass the filter,
// in tree order. Directory gating through HidesDir does not affect which
// leaves are visible.
func (f Flags) VisibleLeaves(root *tree.Node) []*tree.Node {
	var leaves []*tree.Node
	root.Walk(func(n *tree.Node) {
		if n == root {
			return
		}
		if n.IsLeaf() && f.accepts(n) {
			leaves = append(leaves, n)
		}
	})
	return leaves
}
