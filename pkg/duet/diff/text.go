// Package diff produces per-file difference reports used by the viewers:
// line-based text diffs, byte-level hex diffs, and image pixel statistics.
// These back the local engine fallback; an external engine ships the same
// shapes in its scan report.
package diff

import (
	"os"
	"strings"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// TextOptions adjusts line comparison.
type TextOptions struct {
	// IgnoreWhitespace collapses runs of spaces and tabs before comparing.
	IgnoreWhitespace bool

	// IgnoreCase compares lines case-insensitively.
	IgnoreCase bool
}

// TextFile diffs two text files and returns a report keyed by relPath.
func TextFile(relPath, leftPath, rightPath string, opts TextOptions) (*types.TextDiffReport, error) {
	leftData, err := os.ReadFile(leftPath)
	if err != nil {
		return nil, err
	}
	rightData, err := os.ReadFile(rightPath)
	if err != nil {
		return nil, err
	}
	report := Text(string(leftData), string(rightData), opts)
	report.Path = relPath
	return report, nil
}

// Text diffs two text bodies line by line. Equal lines carry both line
// numbers; inserted lines only the right number, deleted lines only the
// left.
func Text(left, right string, opts TextOptions) *types.TextDiffReport {
	leftLines := splitLines(left)
	rightLines := splitLines(right)

	report := &types.TextDiffReport{}
	emit := func(changeType string, leftNum, rightNum int, content string) {
		line := types.TextDiffLine{ChangeType: changeType, Content: content}
		if leftNum > 0 {
			n := leftNum
			line.LineNumberLeft = &n
		}
		if rightNum > 0 {
			n := rightNum
			line.LineNumberRight = &n
		}
		report.Lines = append(report.Lines, line)
		report.TotalLines++
		switch changeType {
		case "Equal":
			report.EqualLines++
		case "Insert":
			report.InsertedLines++
		case "Delete":
			report.DeletedLines++
		}
	}

	keyOf := func(s string) string { return normalizeLine(s, opts) }

	// Trim the common prefix and suffix so the quadratic matcher only
	// sees the changed middle.
	prefix := 0
	for prefix < len(leftLines) && prefix < len(rightLines) &&
		keyOf(leftLines[prefix]) == keyOf(rightLines[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(leftLines)-prefix && suffix < len(rightLines)-prefix &&
		keyOf(leftLines[len(leftLines)-1-suffix]) == keyOf(rightLines[len(rightLines)-1-suffix]) {
		suffix++
	}

	for i := 0; i < prefix; i++ {
		emit("Equal", i+1, i+1, leftLines[i])
	}

	midLeft := leftLines[prefix : len(leftLines)-suffix]
	midRight := rightLines[prefix : len(rightLines)-suffix]
	matchLines(midLeft, midRight, prefix, opts, emit)

	for i := 0; i < suffix; i++ {
		leftIdx := len(leftLines) - suffix + i
		rightIdx := len(rightLines) - suffix + i
		emit("Equal", leftIdx+1, rightIdx+1, leftLines[leftIdx])
	}

	return report
}

// matchLines runs a longest-common-subsequence alignment over the changed
// middle section and emits Equal/Delete/Insert lines.
func matchLines(left, right []string, offset int, opts TextOptions, emit func(string, int, int, string)) {
	n, m := len(left), len(right)
	if n == 0 && m == 0 {
		return
	}

	// LCS length table.
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if normalizeLine(left[i], opts) == normalizeLine(right[j], opts) {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	i, j := 0, 0
	for i < n && j < m {
		if normalizeLine(left[i], opts) == normalizeLine(right[j], opts) {
			emit("Equal", offset+i+1, offset+j+1, left[i])
			i++
			j++
		} else if lcs[i+1][j] >= lcs[i][j+1] {
			emit("Delete", offset+i+1, 0, left[i])
			i++
		} else {
			emit("Insert", 0, offset+j+1, right[j])
			j++
		}
	}
	for ; i < n; i++ {
		emit("Delete", offset+i+1, 0, left[i])
	}
	for ; j < m; j++ {
		emit("Insert", 0, offset+j+1, right[j])
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func normalizeLine(s string, opts TextOptions) string {
	if opts.IgnoreWhitespace {
		s = strings.Join(strings.Fields(s), " ")
	}
	if opts.IgnoreCase {
		s = strings.ToLower(s)
	}
	return s
}
