package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTree(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}

	return nil
}

// formatHeader builds the header box with the compared roots.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	leftLabel := LabelStyle.Render("Left: ")
	lines = append(lines, leftLabel+ValueStyle.Render(r.Left))
	rightLabel := LabelStyle.Render("Right:")
	lines = append(lines, rightLabel+" "+ValueStyle.Render(r.Right))

	var infoParts []string
	comparedLabel := LabelStyle.Render("Compared:")
	comparedValue := ValueStyle.Render(fmt.Sprintf("%d entries in %s",
		r.Summary.Total, formatDuration(r.Duration)))
	infoParts = append(infoParts, fmt.Sprintf("%s %s", comparedLabel, comparedValue))

	engineLabel := LabelStyle.Render("Engine:")
	infoParts = append(infoParts, fmt.Sprintf("%s %s", engineLabel, MutedStyle.Render(r.Engine)))

	lines = append(lines, strings.Join(infoParts, "  "))

	if r.Canceled {
		canceledStyle := WarningStyle.Bold(true)
		lines = append(lines, canceledStyle.Render("Comparison interrupted by user"))
	}

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatTree builds the indented entry listing with status markers.
func (f *PrettyFormatter) formatTree(r *Result) string {
	if len(r.Entries) == 0 {
		if r.Filtered {
			return MutedStyle.Render("  No entries match the active filter\n")
		}
		return MutedStyle.Render("  No differences found\n")
	}

	var sb strings.Builder

	// Column headers
	statusHeader := MutedStyle.Render("ST")
	nameHeader := MutedStyle.Render("NAME")
	sizeHeader := MutedStyle.Render("LEFT / RIGHT")
	sb.WriteString(fmt.Sprintf("  %s  %-40s %s\n", statusHeader, nameHeader, sizeHeader))

	for _, entry := range r.Entries {
		style := StatusStyle(entry.Status)
		glyph := style.Render(StatusGlyph(entry.Status))

		indent := strings.Repeat("  ", entry.Depth)
		name := entry.Name
		if entry.IsDir {
			name = DirStyle.Render(name + "/")
		} else {
			name = style.Render(name)
		}

		sizes := ""
		if !entry.IsDir {
			sizes = SizeStyle.Render(entry.LeftSizeHuman) +
				MutedStyle.Render(" / ") +
				SizeStyle.Render(entry.RightSizeHuman)
		}

		plainWidth := len(indent) + len(entry.Name)
		if entry.IsDir {
			plainWidth++
		}
		pad := 40 - plainWidth
		if pad < 1 {
			pad = 1
		}
		sb.WriteString(fmt.Sprintf("  %s  %s%s%s%s\n",
			glyph, indent, name, strings.Repeat(" ", pad), sizes))
	}

	return sb.String()
}

// formatFooter builds the footer box with summary counts.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	sameLabel := LabelStyle.Render("Same:")
	parts = append(parts, fmt.Sprintf("%s %s", sameLabel,
		SuccessStyle.Render(fmt.Sprintf("%d", r.Summary.Same))))

	diffLabel := LabelStyle.Render("Different:")
	parts = append(parts, fmt.Sprintf("%s %s", diffLabel,
		ErrorStyle.Render(fmt.Sprintf("%d", r.Summary.Different))))

	leftLabel := LabelStyle.Render("Left only:")
	parts = append(parts, fmt.Sprintf("%s %s", leftLabel,
		ValueStyle.Render(fmt.Sprintf("%d", r.Summary.OrphanLeft))))

	rightLabel := LabelStyle.Render("Right only:")
	parts = append(parts, fmt.Sprintf("%s %s", rightLabel,
		ValueStyle.Render(fmt.Sprintf("%d", r.Summary.OrphanRight))))

	if r.Filtered {
		shown := MutedStyle.Render(fmt.Sprintf("(%d shown)", r.VisibleCount()))
		parts = append(parts, shown)
	}

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	titleStyle := WarningStyle.Bold(true)
	sb.WriteString(titleStyle.Render("Warnings:"))
	sb.WriteString("\n")

	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
