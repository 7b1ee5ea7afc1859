package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// Color constants using ANSI 256-color palette.
// These provide a consistent color scheme across all formatters.
const (
	// ColorPrimary is used for primary elements like headers (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for identical entries and positive status (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for warnings and conflicts (orange/yellow).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for differing entries and errors (red).
	ColorDanger = lipgloss.Color("196")

	// ColorOrphanLeft is used for left-only entries (cyan).
	ColorOrphanLeft = lipgloss.Color("51")

	// ColorOrphanRight is used for right-only entries (magenta).
	ColorOrphanRight = lipgloss.Color("213")

	// ColorMuted is used for less important or secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Box styles for containing grouped content.
var (
	// HeaderBox is the style for the header section with the compared roots.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox is the style for the footer section containing summary info.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)

	// ErrorBox is the style for error messages.
	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Padding(0, 1)
)

// Text styles for various content types.
var (
	// TitleStyle is used for major section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is used for field labels (e.g., "Left:", "Entries:").
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ValueStyle is used for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// SuccessStyle is used for positive status text.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// WarningStyle is used for warning text.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// ErrorStyle is used for error text.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// MutedStyle is used for less important text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// DirStyle is used for directory names.
	DirStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// SizeStyle is used for file sizes.
	SizeStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)
)

// Status styles keyed by comparison status.
var statusStyles = map[types.Status]lipgloss.Style{
	types.StatusSame:        SuccessStyle,
	types.StatusDifferent:   ErrorStyle,
	types.StatusOrphanLeft:  lipgloss.NewStyle().Foreground(ColorOrphanLeft),
	types.StatusOrphanRight: lipgloss.NewStyle().Foreground(ColorOrphanRight),
	types.StatusUnchecked:   MutedStyle,
}

// StatusStyle returns the display style for a comparison status.
func StatusStyle(s types.Status) lipgloss.Style {
	if style, ok := statusStyles[s]; ok {
		return style
	}
	return MutedStyle
}

// StatusGlyph returns a one-character marker for a comparison status.
func StatusGlyph(s types.Status) string {
	switch s {
	case types.StatusSame:
		return "="
	case types.StatusDifferent:
		return "≠"
	case types.StatusOrphanLeft:
		return "◀"
	case types.StatusOrphanRight:
		return "▶"
	default:
		return "?"
	}
}
