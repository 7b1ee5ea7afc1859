package types

import (
	"encoding/json"
	"fmt"
)

// ParseReport decodes the engine's scan JSON into a ScanReport.
// Status labels are validated strictly; unknown top-level fields are
// ignored and absent optional diff arrays stay empty.
func ParseReport(data []byte) (*ScanReport, error) {
	var report ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse scan report: %w", err)
	}

	for _, entry := range report.Entries {
		if _, err := ParseStatus(string(entry.Status)); err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Path, err)
		}
	}

	return &report, nil
}

// Tally recomputes summary counts from an entry list.
func Tally(entries []DiffEntry) ScanSummary {
	var s ScanSummary
	s.Total = len(entries)
	for _, entry := range entries {
		switch entry.Status {
		case StatusSame:
			s.Same++
		case StatusDifferent:
			s.Different++
		case StatusOrphanLeft:
			s.OrphanLeft++
		case StatusOrphanRight:
			s.OrphanRight++
		case StatusUnchecked:
			s.Unchecked++
		}
	}
	return s
}

// Validate checks the report's summary against the counts derivable from
// its entries. The engine owns both, so a mismatch means a corrupted or
// truncated report.
func (r *ScanReport) Validate() error {
	got := Tally(r.Entries)
	if got != r.Summary {
		return fmt.Errorf("scan summary %+v does not match entry tally %+v", r.Summary, got)
	}
	return nil
}
