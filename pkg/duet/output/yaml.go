package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Entries []Entry  `yaml:"entries"`
	Summary yamlMeta `yaml:"summary"`
}

// yamlTotals represents scan totals in YAML output.
type yamlTotals struct {
	Total       int `yaml:"total"`
	Same        int `yaml:"same"`
	Different   int `yaml:"different"`
	OrphanLeft  int `yaml:"orphan_left"`
	OrphanRight int `yaml:"orphan_right"`
	Unchecked   int `yaml:"unchecked"`
}

// yamlMeta represents summary metadata in YAML output.
type yamlMeta struct {
	Left        string     `yaml:"left"`
	Right       string     `yaml:"right"`
	Totals      yamlTotals `yaml:"totals"`
	Duration    string     `yaml:"duration,omitempty"`
	Engine      string     `yaml:"engine"`
	Filtered    bool       `yaml:"filtered"`
	VisibleRows int        `yaml:"visible_rows"`
	Warnings    []string   `yaml:"warnings,omitempty"`
	Canceled    bool       `yaml:"canceled"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts Result to the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *Result) yamlOutput {
	entries := r.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return yamlOutput{
		Entries: entries,
		Summary: yamlMeta{
			Left:  r.Left,
			Right: r.Right,
			Totals: yamlTotals{
				Total:       r.Summary.Total,
				Same:        r.Summary.Same,
				Different:   r.Summary.Different,
				OrphanLeft:  r.Summary.OrphanLeft,
				OrphanRight: r.Summary.OrphanRight,
				Unchecked:   r.Summary.Unchecked,
			},
			Duration:    formatDurationString(r.Duration),
			Engine:      r.Engine,
			Filtered:    r.Filtered,
			VisibleRows: r.VisibleCount(),
			Warnings:    r.Warnings,
			Canceled:    r.Canceled,
		},
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
