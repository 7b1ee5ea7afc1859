package tui

import (
	"fmt"
	"path/filepath"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// renderAppHeader renders the shared application header: app name, the
// compared roots, entry counts, and the live-change indicator.
func renderAppHeader(left, right string, summary types.ScanSummary, stale bool) string {
	appName := titleStyle.Render("DUET")

	pair := mutedTextStyle.Render(fmt.Sprintf("  %s ⇄ %s",
		filepath.Base(left), filepath.Base(right)))

	stats := mutedTextStyle.Render(fmt.Sprintf("  •  %s entries", formatCount(summary.Total)))

	header := fmt.Sprintf(" %s%s%s", appName, pair, stats)

	if stale {
		header += warningTextStyle.Render("  ● CHANGED")
	}

	return header
}
