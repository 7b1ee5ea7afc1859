package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duetcmp/duet/pkg/duet/filter"
	"github.com/duetcmp/duet/pkg/duet/tree"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// ResultModel represents the results phase of the TUI: the filtered
// comparison tree with navigation, selection, and search.
type ResultModel struct {
	tree      *TreeView
	search    textinput.Model
	searching bool

	summary types.ScanSummary
	left    string
	right   string
	stale   bool
	notice  string

	width  int
	height int
}

// NewResultModel creates a result model over the comparison tree.
func NewResultModel(root *tree.Node, summary types.ScanSummary, flags filter.Flags, left, right string) ResultModel {
	ti := textinput.New()
	ti.Placeholder = "search names..."
	ti.Prompt = "/ "
	ti.CharLimit = 128

	return ResultModel{
		tree:    NewTreeView(root, flags),
		search:  ti,
		summary: summary,
		left:    left,
		right:   right,
		width:   80,
		height:  24,
	}
}

// SetDimensions updates the width and height.
func (m *ResultModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// SetStale marks the header with the live-change indicator.
func (m *ResultModel) SetStale(stale bool) {
	m.stale = stale
}

// SetNotice sets a transient status line shown in the footer.
func (m *ResultModel) SetNotice(notice string) {
	m.notice = notice
}

// Searching reports whether the search input has focus.
func (m ResultModel) Searching() bool {
	return m.searching
}

// Tree exposes the tree view for selection queries.
func (m *ResultModel) Tree() *TreeView {
	return m.tree
}

// Update forwards messages to the focused search input.
func (m ResultModel) Update(msg tea.Msg) (ResultModel, tea.Cmd) {
	if !m.searching {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "esc":
			if key.String() == "esc" {
				m.search.SetValue("")
			}
			m.searching = false
			m.search.Blur()
			m.applySearch()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applySearch()
	return m, cmd
}

// applySearch pushes the live search text into the filter.
func (m *ResultModel) applySearch() {
	flags := m.tree.Filter()
	flags.Search = m.search.Value()
	m.tree.SetFilter(flags)
}

// HandleKey handles navigation and filter keys. Returns a command for
// keys that need follow-up work.
func (m *ResultModel) HandleKey(key string) tea.Cmd {
	m.notice = ""

	switch key {
	case "up", "k":
		m.tree.MoveUp()
	case "down", "j":
		m.tree.MoveDown()
	case "home", "g":
		m.tree.MoveTop()
	case "end", "G":
		m.tree.MoveBottom()
	case "pgup":
		m.tree.Page(-m.treeHeight())
	case "pgdown":
		m.tree.Page(m.treeHeight())

	case " ":
		m.tree.ToggleSelect()
	case "enter":
		m.tree.Toggle()
	case "a":
		m.tree.ExpandAll()
	case "z":
		m.tree.CollapseAll()
	case "n":
		m.tree.ClearSelection()

	// Status visibility toggles
	case "i":
		m.toggleFlag(func(f *filter.Flags) { f.ShowIdentical = !f.ShowIdentical })
	case "d":
		m.toggleFlag(func(f *filter.Flags) { f.ShowDifferent = !f.ShowDifferent })
	case "l":
		m.toggleFlag(func(f *filter.Flags) { f.ShowLeftOnly = !f.ShowLeftOnly })
	case "r":
		m.toggleFlag(func(f *filter.Flags) { f.ShowRightOnly = !f.ShowRightOnly })
	case "f":
		m.toggleFlag(func(f *filter.Flags) { f.ShowFilesOnly = !f.ShowFilesOnly })

	case "/":
		m.searching = true
		return m.search.Focus()

	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.applySearch()
		}
	}

	return nil
}

func (m *ResultModel) toggleFlag(mutate func(*filter.Flags)) {
	flags := m.tree.Filter()
	mutate(&flags)
	m.tree.SetFilter(flags)
}

// Filter returns the active filter flags.
func (m ResultModel) Filter() filter.Flags {
	return m.tree.Filter()
}

// View renders the result model.
func (m ResultModel) View() string {
	var b strings.Builder

	contentWidth := m.width - 4
	if contentWidth < 60 {
		contentWidth = 60
	}

	b.WriteString(renderAppHeader(m.left, m.right, m.summary, m.stale))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	b.WriteString(m.renderHelpBar())
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString("  " + m.search.View())
		b.WriteString("\n")
	}

	b.WriteString(m.tree.View(contentWidth, m.treeHeight()))

	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(contentWidth))

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// treeHeight returns the rows available for the tree.
func (m ResultModel) treeHeight() int {
	// Header, help bar, dividers, optional search line, footer.
	available := m.height - 9
	if m.searching || m.search.Value() != "" {
		available--
	}
	if available < 5 {
		available = 5
	}
	return available
}

// renderHelpBar renders the key hints.
func (m ResultModel) renderHelpBar() string {
	hints := []struct {
		key  string
		desc string
	}{
		{"Space", "Select"},
		{"Enter", "Expand"},
		{"i/d/l/r", "Filter"},
		{"/", "Search"},
		{"s", "Sync"},
		{"c/C", "Copy"},
		{"x/X", "Delete"},
		{"q", "Quit"},
	}

	var parts []string
	for _, h := range hints {
		parts = append(parts, keyStyle.Render("["+h.key+"]")+" "+keyDescStyle.Render(h.desc))
	}

	return "  " + strings.Join(parts, "  ")
}

// renderFooter renders the summary counts, filter state, and selection.
func (m ResultModel) renderFooter(width int) string {
	flags := m.tree.Filter()

	counts := fmt.Sprintf("  =%s ≠%s ◀%s ▶%s",
		formatCount(m.summary.Same),
		formatCount(m.summary.Different),
		formatCount(m.summary.OrphanLeft),
		formatCount(m.summary.OrphanRight))

	var extras []string
	if !flags.IsDefault() {
		extras = append(extras, fmt.Sprintf("%d shown", m.tree.VisibleCount()))
	}
	if n := m.tree.SelectedCount(); n > 0 {
		extras = append(extras, fmt.Sprintf("%d selected", n))
	}
	if m.notice != "" {
		extras = append(extras, m.notice)
	}
	left := counts
	if len(extras) > 0 {
		left += mutedTextStyle.Render("  (" + strings.Join(extras, ", ") + ")")
	}

	right := mutedTextStyle.Render("[↑↓] Navigate")
	spacing := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if spacing < 1 {
		spacing = 1
	}

	return left + strings.Repeat(" ", spacing) + right
}
