package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// Build constructs the comparison tree from a report's flat entry list.
// The resulting tree is deterministic regardless of entry order:
// directory statuses are aggregated bottom-up and children are sorted
// directories-first, then case-insensitively by name.
//
// Empty or duplicate entry paths violate the engine's report contract and
// are rejected rather than silently dropped.
func Build(report *types.ScanReport) (*Node, error) {
	root := &Node{Status: types.StatusSame, IsDir: true}

	seen := make(map[string]struct{}, len(report.Entries))
	for _, entry := range report.Entries {
		if entry.Path == "" {
			return nil, fmt.Errorf("report entry with empty path")
		}
		if _, dup := seen[entry.Path]; dup {
			return nil, fmt.Errorf("duplicate report entry %q", entry.Path)
		}
		seen[entry.Path] = struct{}{}

		if err := insert(root, entry); err != nil {
			return nil, err
		}
	}

	aggregate(root)
	sortChildren(root)
	return root, nil
}

// insert walks the path segments from the root, reusing existing children
// and creating intermediate directory nodes as needed. The final segment
// receives the entry's status and side metadata.
func insert(root *Node, entry types.DiffEntry) error {
	segments := strings.Split(strings.Trim(entry.Path, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		return fmt.Errorf("report entry %q has no path segments", entry.Path)
	}

	current := root
	for i, segment := range segments {
		if segment == "" {
			return fmt.Errorf("report entry %q has an empty path segment", entry.Path)
		}
		last := i == len(segments)-1

		child := current.Child(segment)
		if child == nil {
			child = &Node{
				Name:   segment,
				Path:   strings.Join(segments[:i+1], "/"),
				Status: types.StatusSame,
				IsDir:  !last,
			}
			current.AddChild(child)
		}

		if last {
			child.Status = entry.Status
			child.IsDir = leafIsDir(entry) || len(child.Children) > 0
			if entry.Left != nil {
				size := entry.Left.Size
				child.LeftSize = &size
				child.LeftModified = entry.Left.ModifiedUnix
			}
			if entry.Right != nil {
				size := entry.Right.Size
				child.RightSize = &size
				child.RightModified = entry.Right.ModifiedUnix
			}
		}
		current = child
	}
	return nil
}

// leafIsDir reports whether the entry describes a directory on whichever
// side is present.
func leafIsDir(entry types.DiffEntry) bool {
	if entry.Left != nil && entry.Left.IsDir {
		return true
	}
	if entry.Right != nil && entry.Right.IsDir {
		return true
	}
	return false
}

// aggregate recomputes directory statuses bottom-up. Any descendant that
// is Different or an orphan makes the directory Different; otherwise any
// Unchecked descendant makes it Unchecked; otherwise it stays Same.
// Leaf nodes keep their entry-assigned status.
func aggregate(node *Node) {
	if len(node.Children) == 0 {
		return
	}
	for _, child := range node.Children {
		aggregate(child)
	}

	status := types.StatusSame
	for _, child := range node.Children {
		switch child.Status {
		case types.StatusDifferent, types.StatusOrphanLeft, types.StatusOrphanRight:
			status = types.StatusDifferent
		case types.StatusUnchecked:
			if status == types.StatusSame {
				status = types.StatusUnchecked
			}
		}
	}
	node.Status = status
}

// sortChildren orders children directories-first, then case-insensitive
// lexicographic by name, at every level.
func sortChildren(node *Node) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	for _, child := range node.Children {
		sortChildren(child)
	}
}
