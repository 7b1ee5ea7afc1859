// Package history provides an on-disk log of comparison and sync
// operations, one JSON file per operation.
package history

import (
	"time"

	"github.com/duetcmp/duet/pkg/duet/sync"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// OperationType represents the type of operation.
type OperationType string

const (
	// OpCompare represents a comparison of two roots.
	OpCompare OperationType = "compare"
	// OpSync represents a synchronization run.
	OpSync OperationType = "sync"
	// OpCopy represents a one-directional copy of selected paths.
	OpCopy OperationType = "copy"
)

// ActionRecord represents one planned or executed action in the history.
type ActionRecord struct {
	Code   sync.ActionCode `json:"code"`
	Path   string          `json:"path"`
	Failed bool            `json:"failed,omitempty"`
}

// Entry represents a single history entry.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`

	// Left and Right are the compared roots.
	Left  string `json:"left"`
	Right string `json:"right"`

	// Direction is set for sync operations.
	Direction string `json:"direction,omitempty"`

	// DryRun marks sync entries that were only previewed.
	DryRun bool `json:"dry_run,omitempty"`

	// Engine names the comparison engine used ("local" for the built-in
	// fallback).
	Engine string `json:"engine,omitempty"`

	// Scan holds the comparison totals for compare operations.
	Scan *types.ScanSummary `json:"scan,omitempty"`

	// Sync holds the execution counters for sync and copy operations.
	Sync *sync.Summary `json:"sync,omitempty"`

	// Actions lists the actions of a sync or copy operation.
	Actions []ActionRecord `json:"actions,omitempty"`

	// Duration is the wall time of the operation.
	Duration time.Duration `json:"duration,omitempty"`
}
