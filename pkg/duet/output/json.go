package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Entries []Entry  `json:"entries"`
	Summary jsonMeta `json:"summary"`
}

// jsonMeta represents summary metadata in JSON output.
type jsonMeta struct {
	Left        string            `json:"left"`
	Right       string            `json:"right"`
	Totals      types.ScanSummary `json:"totals"`
	Duration    string            `json:"duration,omitempty"`
	Engine      string            `json:"engine"`
	Filtered    bool              `json:"filtered"`
	VisibleRows int               `json:"visible_rows"`
	Warnings    []string          `json:"warnings,omitempty"`
	Canceled    bool              `json:"canceled"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with entries and summary sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := buildJSONOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func buildJSONOutput(r *Result) jsonOutput {
	entries := r.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return jsonOutput{
		Entries: entries,
		Summary: jsonMeta{
			Left:        r.Left,
			Right:       r.Right,
			Totals:      r.Summary,
			Duration:    formatDurationString(r.Duration),
			Engine:      r.Engine,
			Filtered:    r.Filtered,
			VisibleRows: r.VisibleCount(),
			Warnings:    r.Warnings,
			Canceled:    r.Canceled,
		},
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per line).
// Each entry is written as a compact JSON object on its own line.
// This format is suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, entry := range r.Entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
