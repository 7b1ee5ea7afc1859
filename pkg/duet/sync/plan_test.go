package sync_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/sync"
	"github.com/duetcmp/duet/pkg/duet/types"
)

func report(entries ...types.DiffEntry) *types.ScanReport {
	return &types.ScanReport{
		Entries: entries,
		Summary: types.Tally(entries),
	}
}

func entry(path string, status types.Status) types.DiffEntry {
	return types.DiffEntry{Path: path, Status: status}
}

func timedEntry(path string, leftMod, rightMod *int64) types.DiffEntry {
	e := types.DiffEntry{Path: path, Status: types.StatusDifferent}
	if leftMod != nil {
		e.Left = &types.FileSide{ModifiedUnix: leftMod}
	}
	if rightMod != nil {
		e.Right = &types.FileSide{ModifiedUnix: rightMod}
	}
	return e
}

func unix(v int64) *int64 { return &v }

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"left_to_right", "right_to_left", "bidirectional"} {
		d, err := sync.ParseDirection(s)
		require.NoError(t, err)
		assert.Equal(t, sync.Direction(s), d)
	}

	_, err := sync.ParseDirection("both")
	assert.Error(t, err)
}

func TestPlanRules(t *testing.T) {
	rep := report(
		entry("diff.txt", types.StatusDifferent),
		entry("left.txt", types.StatusOrphanLeft),
		entry("right.txt", types.StatusOrphanRight),
		entry("same.txt", types.StatusSame),
		entry("unchecked.txt", types.StatusUnchecked),
	)

	tests := []struct {
		direction sync.Direction
		want      []sync.PlannedAction
	}{
		{
			direction: sync.LeftToRight,
			want: []sync.PlannedAction{
				{Code: sync.UpdateR, Path: "diff.txt"},
				{Code: sync.CopyLR, Path: "left.txt"},
				{Code: sync.DeleteR, Path: "right.txt"},
				{Code: sync.Skip, Path: "unchecked.txt"},
			},
		},
		{
			direction: sync.RightToLeft,
			want: []sync.PlannedAction{
				{Code: sync.UpdateL, Path: "diff.txt"},
				{Code: sync.DeleteL, Path: "left.txt"},
				{Code: sync.CopyRL, Path: "right.txt"},
				{Code: sync.Skip, Path: "unchecked.txt"},
			},
		},
		{
			direction: sync.Bidirectional,
			want: []sync.PlannedAction{
				{Code: sync.Conflict, Path: "diff.txt"},
				{Code: sync.CopyLR, Path: "left.txt"},
				{Code: sync.CopyRL, Path: "right.txt"},
				{Code: sync.Skip, Path: "unchecked.txt"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			assert.Equal(t, tt.want, sync.Plan(rep, tt.direction))
		})
	}
}

func TestPlanNewestWins(t *testing.T) {
	tests := []struct {
		name  string
		entry types.DiffEntry
		want  sync.ActionCode
	}{
		{"left newer", timedEntry("f", unix(200), unix(100)), sync.CopyLR},
		{"right newer", timedEntry("f", unix(100), unix(200)), sync.CopyRL},
		{"equal timestamps", timedEntry("f", unix(100), unix(100)), sync.Conflict},
		{"missing left timestamp", timedEntry("f", nil, unix(100)), sync.Conflict},
		{"missing right timestamp", timedEntry("f", unix(100), nil), sync.Conflict},
		{"no metadata at all", entry("f", types.StatusDifferent), sync.Conflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := sync.Plan(report(tt.entry), sync.Bidirectional)
			require.Len(t, actions, 1)
			assert.Equal(t, tt.want, actions[0].Code)
		})
	}
}

func TestPlanDeterministicOrder(t *testing.T) {
	rep := report(
		entry("zeta.txt", types.StatusOrphanLeft),
		entry("alpha.txt", types.StatusOrphanLeft),
		entry("mid/nested.txt", types.StatusOrphanLeft),
	)

	first := sync.Plan(rep, sync.LeftToRight)
	second := sync.Plan(rep, sync.LeftToRight)

	var paths []string
	for _, a := range first {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{"alpha.txt", "mid/nested.txt", "zeta.txt"}, paths)
	assert.Equal(t, first, second)
	assert.Equal(t, []types.DiffEntry{
		entry("zeta.txt", types.StatusOrphanLeft),
		entry("alpha.txt", types.StatusOrphanLeft),
		entry("mid/nested.txt", types.StatusOrphanLeft),
	}, rep.Entries, "planning must not reorder the report")
}

func TestPlanEmptyReport(t *testing.T) {
	assert.Empty(t, sync.Plan(report(), sync.LeftToRight))
	assert.Empty(t, sync.Plan(report(entry("a", types.StatusSame)), sync.Bidirectional))
}
