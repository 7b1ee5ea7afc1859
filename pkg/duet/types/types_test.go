package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/types"
)

func TestParseStatus(t *testing.T) {
	t.Run("accepts all known statuses", func(t *testing.T) {
		for _, s := range []string{"Same", "Different", "OrphanLeft", "OrphanRight", "Unchecked"} {
			got, err := types.ParseStatus(s)
			require.NoError(t, err)
			assert.Equal(t, types.Status(s), got)
		}
	})

	t.Run("rejects unknown labels", func(t *testing.T) {
		_, err := types.ParseStatus("Equal")
		assert.Error(t, err)

		_, err = types.ParseStatus("same")
		assert.Error(t, err, "status labels are case-sensitive")
	})
}

func TestStatusIsOrphan(t *testing.T) {
	assert.True(t, types.StatusOrphanLeft.IsOrphan())
	assert.True(t, types.StatusOrphanRight.IsOrphan())
	assert.False(t, types.StatusSame.IsOrphan())
	assert.False(t, types.StatusDifferent.IsOrphan())
	assert.False(t, types.StatusUnchecked.IsOrphan())
}

func TestTally(t *testing.T) {
	entries := []types.DiffEntry{
		{Path: "a", Status: types.StatusSame},
		{Path: "b", Status: types.StatusSame},
		{Path: "c", Status: types.StatusDifferent},
		{Path: "d", Status: types.StatusOrphanLeft},
		{Path: "e", Status: types.StatusOrphanRight},
		{Path: "f", Status: types.StatusUnchecked},
	}

	got := types.Tally(entries)

	assert.Equal(t, types.ScanSummary{
		Total:       6,
		Same:        2,
		Different:   1,
		OrphanLeft:  1,
		OrphanRight: 1,
		Unchecked:   1,
	}, got)
}

func TestValidate(t *testing.T) {
	t.Run("accepts matching summary", func(t *testing.T) {
		report := &types.ScanReport{
			Entries: []types.DiffEntry{
				{Path: "a", Status: types.StatusSame},
				{Path: "b", Status: types.StatusDifferent},
			},
			Summary: types.ScanSummary{Total: 2, Same: 1, Different: 1},
		}
		assert.NoError(t, report.Validate())
	})

	t.Run("rejects mismatched summary", func(t *testing.T) {
		report := &types.ScanReport{
			Entries: []types.DiffEntry{
				{Path: "a", Status: types.StatusSame},
			},
			Summary: types.ScanSummary{Total: 2, Same: 2},
		}
		assert.Error(t, report.Validate())
	})
}

func TestParseReport(t *testing.T) {
	t.Run("parses a full report", func(t *testing.T) {
		data := []byte(`{
			"left": "/a",
			"right": "/b",
			"summary": {"total": 2, "same": 1, "different": 1},
			"entries": [
				{"path": "same.txt", "status": "Same",
				 "left": {"size": 10, "modified_unix": 1700000000},
				 "right": {"size": 10, "modified_unix": 1700000000}},
				{"path": "dir/other.txt", "status": "Different",
				 "left": {"size": 5}, "right": {"size": 7}}
			]
		}`)

		report, err := types.ParseReport(data)
		require.NoError(t, err)

		assert.Equal(t, "/a", report.Left)
		assert.Equal(t, "/b", report.Right)
		require.Len(t, report.Entries, 2)
		assert.Equal(t, types.StatusSame, report.Entries[0].Status)
		require.NotNil(t, report.Entries[0].Left)
		assert.Equal(t, int64(10), report.Entries[0].Left.Size)
		require.NotNil(t, report.Entries[0].Left.ModifiedUnix)
		assert.Equal(t, int64(1700000000), *report.Entries[0].Left.ModifiedUnix)
		assert.Nil(t, report.Entries[1].Left.ModifiedUnix)
		assert.NoError(t, report.Validate())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		data := []byte(`{"entries": [{"path": "x", "status": "Bogus"}]}`)
		_, err := types.ParseReport(data)
		assert.ErrorContains(t, err, "Bogus")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := types.ParseReport([]byte("not json"))
		assert.Error(t, err)
	})

	t.Run("tolerates absent optional sections", func(t *testing.T) {
		report, err := types.ParseReport([]byte(`{"entries": []}`))
		require.NoError(t, err)
		assert.Empty(t, report.TextDiffs)
		assert.Empty(t, report.ImageDiffs)
	})
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "1.0 KiB", types.FormatSize(1024))
	assert.Equal(t, "-", types.FormatSize(-1))
}

func TestFormatOptionalSize(t *testing.T) {
	assert.Equal(t, "", types.FormatOptionalSize(nil))
	size := int64(2048)
	assert.Equal(t, "2.0 KiB", types.FormatOptionalSize(&size))
}

func TestFormatModified(t *testing.T) {
	assert.Equal(t, "", types.FormatModified(nil))
	unix := int64(1700000000)
	assert.NotEmpty(t, types.FormatModified(&unix))
}
