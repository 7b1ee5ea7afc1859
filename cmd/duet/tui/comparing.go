package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// progressTail is how many engine progress lines stay on screen.
const progressTail = 6

// CompareModel represents the comparing phase of the TUI.
type CompareModel struct {
	spinner   spinner.Model
	lines     []string
	startTime time.Time
	width     int
	height    int
	left      string
	right     string
	done      bool
	err       error
}

// ProgressMsg carries one engine progress line.
type ProgressMsg string

// CompareCompleteMsg is sent when the comparison finishes.
type CompareCompleteMsg struct {
	Err     error
	Elapsed time.Duration
}

// NewCompareModel creates a new comparing model.
func NewCompareModel(left, right string) CompareModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return CompareModel{
		spinner:   s,
		startTime: time.Now(),
		width:     80,
		height:    24,
		left:      left,
		right:     right,
	}
}

// Init initializes the comparing model.
func (m CompareModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the comparing model.
func (m CompareModel) Update(msg tea.Msg) (CompareModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ProgressMsg:
		m.AddLine(string(msg))
		return m, nil

	case CompareCompleteMsg:
		m.done = true
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// AddLine appends an engine progress line, keeping only the tail.
func (m *CompareModel) AddLine(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	m.lines = append(m.lines, line)
	if len(m.lines) > progressTail {
		m.lines = m.lines[len(m.lines)-progressTail:]
	}
}

// SetDone marks the comparison as complete.
func (m *CompareModel) SetDone(err error) {
	m.done = true
	m.err = err
}

// View renders the comparing model.
func (m CompareModel) View() string {
	var b strings.Builder

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	b.WriteString("\n")
	b.WriteString(m.renderHeader(contentWidth))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	if m.done {
		if m.err != nil {
			b.WriteString(errorTextStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		} else {
			b.WriteString(successTextStyle.Render("  Comparison complete!"))
		}
	} else {
		b.WriteString(fmt.Sprintf("  %s Comparing folders...", m.spinner.View()))
	}
	b.WriteString("\n\n")

	// Roots
	b.WriteString(mutedTextStyle.Render("  Left:  ") + truncatePath(m.left, contentWidth-10))
	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render("  Right: ") + truncatePath(m.right, contentWidth-10))
	b.WriteString("\n\n")

	b.WriteString(m.renderProgressBar(contentWidth))
	b.WriteString("\n\n")

	// Last engine progress lines
	for _, line := range m.lines {
		b.WriteString(mutedTextStyle.Render("  " + truncatePath(line, contentWidth-4)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  Elapsed: %s", formatElapsed(time.Since(m.startTime)))))
	b.WriteString("\n")

	content := b.String()
	contentLines := strings.Count(content, "\n") + 1

	availableLines := m.height - 2
	if availableLines > contentLines {
		content += strings.Repeat("\n", availableLines-contentLines)
	}

	return outerBoxStyle.Width(m.width - 2).Height(m.height - 2).Render(content)
}

// renderHeader renders the header section.
func (m CompareModel) renderHeader(width int) string {
	title := titleStyle.Render("  duet")
	hint := mutedTextStyle.Render("[Ctrl+C to stop]")

	spacing := width - lipgloss.Width(title) - lipgloss.Width(hint)
	if spacing < 1 {
		spacing = 1
	}

	return title + strings.Repeat(" ", spacing) + hint
}

// renderProgressBar renders an indeterminate progress animation; the
// engine does not report completion percentages.
func (m CompareModel) renderProgressBar(width int) string {
	barWidth := width - 4
	if barWidth < 10 {
		barWidth = 10
	}

	elapsed := time.Since(m.startTime)
	position := int(elapsed.Seconds()*2) % (barWidth * 2)
	if position > barWidth {
		position = barWidth*2 - position
	}

	var bar strings.Builder
	bar.WriteString("  ")

	pulseWidth := barWidth / 5
	if pulseWidth < 3 {
		pulseWidth = 3
	}

	for i := range barWidth {
		dist := i - position
		if dist < 0 {
			dist = -dist
		}
		if dist < pulseWidth {
			bar.WriteString(progressFillStyle.Render("█"))
		} else {
			bar.WriteString(progressEmptyStyle.Render("░"))
		}
	}

	return bar.String()
}

// formatElapsed formats a duration as M:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	min := d / time.Minute
	sec := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", min, sec)
}

// formatCount renders an integer with thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}
