// Package types provides the core data model for the duet comparison
// front-end: per-path diff entries as reported by the external comparison
// engine, aggregate scan reports, and formatting helpers for sizes and
// timestamps.
package types

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Status is the comparison outcome for a single path.
type Status string

// The closed set of statuses emitted by the engine.
const (
	// StatusSame indicates the path is identical on both sides.
	StatusSame Status = "Same"

	// StatusDifferent indicates the path exists on both sides with
	// differing content or metadata.
	StatusDifferent Status = "Different"

	// StatusOrphanLeft indicates the path exists only on the left side.
	StatusOrphanLeft Status = "OrphanLeft"

	// StatusOrphanRight indicates the path exists only on the right side.
	StatusOrphanRight Status = "OrphanRight"

	// StatusUnchecked indicates the comparison was skipped or could not
	// be determined.
	StatusUnchecked Status = "Unchecked"
)

// ParseStatus validates a status label from engine output.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSame, StatusDifferent, StatusOrphanLeft, StatusOrphanRight, StatusUnchecked:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown diff status %q", s)
	}
}

// IsOrphan returns true for the two single-sided statuses.
func (s Status) IsOrphan() bool {
	return s == StatusOrphanLeft || s == StatusOrphanRight
}

// FileSide holds one side's metadata for a path. Immutable once parsed;
// owned by the DiffEntry that contains it.
type FileSide struct {
	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModifiedUnix is the modification time as Unix seconds.
	// Nil when the engine could not determine a timestamp.
	ModifiedUnix *int64 `json:"modified_unix,omitempty"`

	// IsDir indicates the path is a directory on this side.
	IsDir bool `json:"is_dir"`
}

// DiffEntry is one row of comparison output. Path is engine-relative,
// POSIX-style and unique within a report.
type DiffEntry struct {
	Path   string    `json:"path"`
	Status Status    `json:"status"`
	Left   *FileSide `json:"left,omitempty"`
	Right  *FileSide `json:"right,omitempty"`
}

// ScanSummary carries the engine's aggregate counts. The counts must equal
// what Tally derives from the entry list.
type ScanSummary struct {
	Total       int `json:"total"`
	Same        int `json:"same"`
	Different   int `json:"different"`
	OrphanLeft  int `json:"orphan_left"`
	OrphanRight int `json:"orphan_right"`
	Unchecked   int `json:"unchecked"`
}

// TextDiffLine is a single line of a per-file text diff sub-report.
type TextDiffLine struct {
	LineNumberLeft  *int   `json:"line_number_left,omitempty"`
	LineNumberRight *int   `json:"line_number_right,omitempty"`
	Content         string `json:"content"`

	// ChangeType is one of "Equal", "Insert", "Delete".
	ChangeType string `json:"change_type"`

	// HighlightedSegments is an opaque intra-line highlight payload,
	// passed through for display only.
	HighlightedSegments []map[string]any `json:"highlighted_segments,omitempty"`
}

// TextDiffReport is the engine's text diff result for one file pair.
type TextDiffReport struct {
	Path          string         `json:"path"`
	TotalLines    int            `json:"total_lines"`
	EqualLines    int            `json:"equal_lines"`
	InsertedLines int            `json:"inserted_lines"`
	DeletedLines  int            `json:"deleted_lines"`
	Lines         []TextDiffLine `json:"lines,omitempty"`
}

// ImageDiffReport is the engine's image diff result for one file pair.
// The result payload is opaque and rendered as-is.
type ImageDiffReport struct {
	Path   string         `json:"path"`
	Result map[string]any `json:"result,omitempty"`
}

// ScanReport is the complete result of one engine scan invocation.
// The per-format diff slices are opaque payloads consumed for display only.
type ScanReport struct {
	Left    string      `json:"left"`
	Right   string      `json:"right"`
	Summary ScanSummary `json:"summary"`
	Entries []DiffEntry `json:"entries"`

	TextDiffs    []TextDiffReport  `json:"text_diffs,omitempty"`
	ImageDiffs   []ImageDiffReport `json:"image_diffs,omitempty"`
	CSVDiffs     []map[string]any  `json:"csv_diffs,omitempty"`
	ExcelDiffs   []map[string]any  `json:"excel_diffs,omitempty"`
	JSONDiffs    []map[string]any  `json:"json_diffs,omitempty"`
	YAMLDiffs    []map[string]any  `json:"yaml_diffs,omitempty"`
	ParquetDiffs []map[string]any  `json:"parquet_diffs,omitempty"`
}

// FormatSize converts a byte count to a human-readable string using
// binary (IEC) units, consistent with common filesystem tools.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatOptionalSize formats a possibly-absent size. Absent sizes render
// as an empty string so directory rows stay blank in the size columns.
func FormatOptionalSize(bytes *int64) string {
	if bytes == nil {
		return ""
	}
	return FormatSize(*bytes)
}

// FormatModified formats a Unix-seconds timestamp in local time.
// Absent timestamps render as an empty string.
func FormatModified(unix *int64) string {
	if unix == nil {
		return ""
	}
	return time.Unix(*unix, 0).Local().Format("2006-01-02 15:04")
}
