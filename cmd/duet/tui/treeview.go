package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/duetcmp/duet/pkg/duet/filter"
	"github.com/duetcmp/duet/pkg/duet/output"
	"github.com/duetcmp/duet/pkg/duet/tree"
)

// Tree view icons using Unicode symbols.
const (
	iconExpanded   = "▼" // Black down-pointing triangle
	iconCollapsed  = "▶" // Black right-pointing triangle
	iconSelected   = "●" // Black circle (filled)
	iconUnselected = "○" // White circle (outline)
)

// TreeView displays the comparison tree with expand/collapse, selection,
// filtering, and scrolling support.
type TreeView struct {
	root     *tree.Node
	flags    filter.Flags
	flat     []*tree.Node    // Flattened visible nodes
	cursor   int             // Index in flat slice
	offset   int             // Scroll offset
	selected map[string]bool // Selected leaf paths
}

// NewTreeView creates a new TreeView over the given comparison tree.
func NewTreeView(root *tree.Node, flags filter.Flags) *TreeView {
	tv := &TreeView{
		root:     root,
		flags:    flags,
		selected: make(map[string]bool),
	}
	tv.refresh()
	return tv
}

// SetFilter replaces the filter flags and rebuilds the visible rows.
func (tv *TreeView) SetFilter(flags filter.Flags) {
	tv.flags = flags
	tv.refresh()
}

// Filter returns the active filter flags.
func (tv *TreeView) Filter() filter.Flags {
	return tv.flags
}

// SetRoot replaces the tree, keeping selections for paths that survive.
func (tv *TreeView) SetRoot(root *tree.Node) {
	tv.root = root
	kept := make(map[string]bool)
	if root != nil {
		for path := range tv.selected {
			if root.Find(path) != nil {
				kept[path] = true
			}
		}
	}
	tv.selected = kept
	tv.refresh()
}

// refresh rebuilds the flat list from the current tree and filter state.
func (tv *TreeView) refresh() {
	tv.flat = nil
	if tv.root == nil {
		return
	}
	for _, child := range tv.root.Children {
		tv.appendVisible(child)
	}

	if tv.cursor >= len(tv.flat) {
		tv.cursor = len(tv.flat) - 1
	}
	if tv.cursor < 0 {
		tv.cursor = 0
	}
}

// appendVisible collects node and its expanded descendants, honoring the
// filter predicate. Hidden directories still surface matching children.
func (tv *TreeView) appendVisible(node *tree.Node) {
	if !tv.flags.Accepts(node) {
		return
	}
	hidden := tv.flags.HidesDir(node)
	if !hidden {
		tv.flat = append(tv.flat, node)
	}
	if node.IsDir && (node.Expanded || hidden) {
		for _, child := range node.Children {
			tv.appendVisible(child)
		}
	}
}

// MoveUp moves the cursor up one position.
func (tv *TreeView) MoveUp() {
	if len(tv.flat) == 0 {
		return
	}
	if tv.cursor > 0 {
		tv.cursor--
	}
}

// MoveDown moves the cursor down one position.
func (tv *TreeView) MoveDown() {
	if len(tv.flat) == 0 {
		return
	}
	if tv.cursor < len(tv.flat)-1 {
		tv.cursor++
	}
}

// MoveTop moves the cursor to the first row.
func (tv *TreeView) MoveTop() {
	tv.cursor = 0
	tv.offset = 0
}

// MoveBottom moves the cursor to the last row.
func (tv *TreeView) MoveBottom() {
	if len(tv.flat) > 0 {
		tv.cursor = len(tv.flat) - 1
	}
}

// Page moves the cursor by n rows, clamping at the edges.
func (tv *TreeView) Page(n int) {
	tv.cursor += n
	if tv.cursor < 0 {
		tv.cursor = 0
	}
	if tv.cursor >= len(tv.flat) {
		tv.cursor = len(tv.flat) - 1
	}
}

// Toggle expands/collapses a directory or toggles leaf selection.
func (tv *TreeView) Toggle() {
	node := tv.Current()
	if node == nil {
		return
	}

	if node.IsDir && len(node.Children) > 0 {
		node.Toggle()
		tv.refresh()
	} else {
		tv.ToggleSelect()
	}
}

// ToggleSelect toggles selection of the current leaf. Directories with
// children cannot be selected directly.
func (tv *TreeView) ToggleSelect() {
	node := tv.Current()
	if node == nil || !node.IsLeaf() {
		return
	}

	if tv.selected[node.Path] {
		delete(tv.selected, node.Path)
	} else {
		tv.selected[node.Path] = true
	}
}

// ExpandAll expands every directory in the tree.
func (tv *TreeView) ExpandAll() {
	if tv.root == nil {
		return
	}
	tv.root.ExpandAll()
	tv.refresh()
}

// CollapseAll collapses every directory in the tree.
func (tv *TreeView) CollapseAll() {
	if tv.root == nil {
		return
	}
	tv.root.CollapseAll()
	tv.refresh()
}

// Current returns the node under the cursor.
func (tv *TreeView) Current() *tree.Node {
	if len(tv.flat) == 0 || tv.cursor < 0 || tv.cursor >= len(tv.flat) {
		return nil
	}
	return tv.flat[tv.cursor]
}

// SelectedPaths returns the selected leaf paths in tree order.
func (tv *TreeView) SelectedPaths() []string {
	var result []string
	if tv.root == nil {
		return result
	}
	tv.root.Walk(func(n *tree.Node) {
		if n.IsLeaf() && tv.selected[n.Path] {
			result = append(result, n.Path)
		}
	})
	return result
}

// SelectedCount returns the number of selected leaves.
func (tv *TreeView) SelectedCount() int {
	return len(tv.selected)
}

// ClearSelection removes all selections.
func (tv *TreeView) ClearSelection() {
	tv.selected = make(map[string]bool)
}

// VisibleCount returns the number of visible rows.
func (tv *TreeView) VisibleCount() int {
	return len(tv.flat)
}

// View renders the tree view within the given dimensions.
func (tv *TreeView) View(width, height int) string {
	if len(tv.flat) == 0 {
		return tv.renderEmpty(width)
	}

	var b strings.Builder

	visibleRows := height
	if visibleRows < 1 {
		visibleRows = 1
	}

	tv.ensureVisible(visibleRows)

	for i := tv.offset; i < tv.offset+visibleRows && i < len(tv.flat); i++ {
		node := tv.flat[i]
		row := tv.renderNode(node, width, i == tv.cursor, tv.selected[node.Path])
		b.WriteString(row)
		b.WriteString("\n")
	}

	// Pad remaining rows
	rendered := tv.offset + visibleRows
	if rendered > len(tv.flat) {
		rendered = len(tv.flat)
	}
	for i := rendered - tv.offset; i < visibleRows; i++ {
		b.WriteString("\n")
	}

	return b.String()
}

// ensureVisible adjusts offset to keep the cursor on screen.
func (tv *TreeView) ensureVisible(visible int) {
	if tv.cursor < tv.offset {
		tv.offset = tv.cursor
	} else if tv.cursor >= tv.offset+visible {
		tv.offset = tv.cursor - visible + 1
	}
	if tv.offset < 0 {
		tv.offset = 0
	}
}

// renderEmpty renders the empty tree state.
func (tv *TreeView) renderEmpty(width int) string {
	msg := mutedTextStyle.Render("No entries match the current filter")
	return center(msg, width) + "\n"
}

// renderNode renders a single node row.
func (tv *TreeView) renderNode(node *tree.Node, width int, isCursor, isSelected bool) string {
	indent := strings.Repeat("  ", node.Depth()-1)

	var content strings.Builder
	content.WriteString(indent)

	// Expand icon for populated dirs, selection indicator for leaves
	switch {
	case node.IsDir && len(node.Children) > 0:
		if node.Expanded {
			content.WriteString(iconExpanded)
		} else {
			content.WriteString(iconCollapsed)
		}
	case isSelected:
		content.WriteString(iconSelected)
	default:
		content.WriteString(iconUnselected)
	}
	content.WriteString(" ")

	// Status glyph
	glyph := output.StatusGlyph(node.Status)
	content.WriteString(glyph)
	content.WriteString(" ")

	// Name
	name := node.Name
	if node.IsDir {
		name += "/"
	}
	content.WriteString(name)

	// Size pair (right-aligned, leaves only)
	sizeStr := sizePair(node)

	contentLen := lipgloss.Width(content.String())
	sizeLen := lipgloss.Width(sizeStr)
	padding := width - contentLen - sizeLen - 1
	if padding < 1 {
		padding = 1
	}

	if isCursor {
		return cursorRowStyle.Width(width).Render(content.String() + strings.Repeat(" ", padding) + sizeStr)
	}

	// Re-render with per-part styling for normal rows
	var styled strings.Builder
	styled.WriteString(indent)
	switch {
	case node.IsDir && len(node.Children) > 0:
		if node.Expanded {
			styled.WriteString(mutedTextStyle.Render(iconExpanded))
		} else {
			styled.WriteString(mutedTextStyle.Render(iconCollapsed))
		}
	case isSelected:
		styled.WriteString(checkedStyle.Render(iconSelected))
	default:
		styled.WriteString(uncheckedStyle.Render(iconUnselected))
	}
	styled.WriteString(" ")
	styled.WriteString(output.StatusStyle(node.Status).Render(glyph))
	styled.WriteString(" ")
	if node.IsDir {
		styled.WriteString(dirNameStyle.Render(name))
	} else {
		styled.WriteString(name)
	}
	styled.WriteString(strings.Repeat(" ", padding))
	styled.WriteString(sizeTextStyle.Render(sizeStr))

	return normalRowStyle.Width(width).Render(styled.String())
}

// sizePair formats the left/right sizes of a leaf entry.
func sizePair(node *tree.Node) string {
	if node.IsDir {
		return ""
	}
	left, right := "-", "-"
	if node.LeftSize != nil {
		left = humanize.Bytes(uint64(*node.LeftSize))
	}
	if node.RightSize != nil {
		right = humanize.Bytes(uint64(*node.RightSize))
	}
	return fmt.Sprintf("%s | %s", left, right)
}
