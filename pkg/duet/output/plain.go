package output

import (
	"bytes"
	"strings"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Use tabwriter for aligned columns
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("STATUS\tPATH\tLEFT\tRIGHT\n")); err != nil {
		return err
	}

	for _, entry := range r.Entries {
		path := entry.Path
		if entry.IsDir {
			path += "/"
		}
		row := strings.Join([]string{
			string(entry.Status), path, entry.LeftSizeHuman, entry.RightSizeHuman,
		}, "\t")
		if _, err := tw.Write([]byte(row + "\n")); err != nil {
			return err
		}
	}

	// Flush tabwriter to buffer
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
