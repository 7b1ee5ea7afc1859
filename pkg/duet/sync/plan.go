// Package sync plans and executes folder synchronization from a scan
// report. Planning is a pure function of (report, direction); execution
// applies the planned actions to the filesystem, continuing past
// individual failures and reporting aggregate counts.
package sync

import (
	"fmt"
	"sort"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// Direction selects which side is treated as source of truth.
type Direction string

const (
	// LeftToRight makes the left root authoritative.
	LeftToRight Direction = "left_to_right"

	// RightToLeft makes the right root authoritative.
	RightToLeft Direction = "right_to_left"

	// Bidirectional merges both sides, newest modification wins.
	Bidirectional Direction = "bidirectional"
)

// ParseDirection validates a direction string as used on the engine CLI.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case LeftToRight, RightToLeft, Bidirectional:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown sync direction %q", s)
	}
}

// ActionCode is one planned operation kind.
type ActionCode string

// The closed set of planned operations.
const (
	CopyLR   ActionCode = "COPY_LR"  // copy left -> right (new on right)
	CopyRL   ActionCode = "COPY_RL"  // copy right -> left (new on left)
	UpdateL  ActionCode = "UPDATE_L" // overwrite left with right
	UpdateR  ActionCode = "UPDATE_R" // overwrite right with left
	DeleteL  ActionCode = "DELETE_L" // remove from left
	DeleteR  ActionCode = "DELETE_R" // remove from right
	Conflict ActionCode = "CONFLICT" // requires manual resolution
	Skip     ActionCode = "SKIP"     // recorded but never acted on
)

// PlannedAction pairs an action code with the engine-relative path it
// applies to.
type PlannedAction struct {
	Code ActionCode `json:"code"`
	Path string     `json:"path"`
}

// Plan computes the ordered action list for a report and direction.
// Entries are visited sorted by path ascending so repeated calls yield
// the identical, human-reviewable list. Same entries emit nothing;
// Unchecked entries emit SKIP.
//
// In bidirectional mode a Different entry is resolved newest-wins by
// modification time; equal or missing timestamps are never auto-resolved
// and surface as CONFLICT.
func Plan(report *types.ScanReport, direction Direction) []PlannedAction {
	entries := make([]types.DiffEntry, len(report.Entries))
	copy(entries, report.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	var actions []PlannedAction
	emit := func(code ActionCode, path string) {
		actions = append(actions, PlannedAction{Code: code, Path: path})
	}

	for _, entry := range entries {
		switch entry.Status {
		case types.StatusSame:
			continue
		case types.StatusUnchecked:
			emit(Skip, entry.Path)
			continue
		}

		switch direction {
		case LeftToRight:
			switch entry.Status {
			case types.StatusOrphanLeft:
				emit(CopyLR, entry.Path)
			case types.StatusOrphanRight:
				emit(DeleteR, entry.Path)
			case types.StatusDifferent:
				emit(UpdateR, entry.Path)
			}

		case RightToLeft:
			switch entry.Status {
			case types.StatusOrphanRight:
				emit(CopyRL, entry.Path)
			case types.StatusOrphanLeft:
				emit(DeleteL, entry.Path)
			case types.StatusDifferent:
				emit(UpdateL, entry.Path)
			}

		case Bidirectional:
			switch entry.Status {
			case types.StatusOrphanLeft:
				emit(CopyLR, entry.Path)
			case types.StatusOrphanRight:
				emit(CopyRL, entry.Path)
			case types.StatusDifferent:
				emit(resolveNewest(entry), entry.Path)
			}
		}
	}

	return actions
}

// resolveNewest applies the newest-wins policy for a Different entry.
func resolveNewest(entry types.DiffEntry) ActionCode {
	var leftMod, rightMod *int64
	if entry.Left != nil {
		leftMod = entry.Left.ModifiedUnix
	}
	if entry.Right != nil {
		rightMod = entry.Right.ModifiedUnix
	}
	if leftMod == nil || rightMod == nil {
		return Conflict
	}
	switch {
	case *leftMod > *rightMod:
		return CopyLR
	case *rightMod > *leftMod:
		return CopyRL
	default:
		return Conflict
	}
}
