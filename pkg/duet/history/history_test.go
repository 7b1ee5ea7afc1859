package history_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/history"
	"github.com/duetcmp/duet/pkg/duet/sync"
	"github.com/duetcmp/duet/pkg/duet/types"
)

func newLog(t *testing.T) (*history.Log, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "history")
	l, err := history.New(dir)
	require.NoError(t, err)
	return l, dir
}

// entryFile locates the JSON file holding the entry with the given ID.
func entryFile(t *testing.T, dir, id string) string {
	t.Helper()
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, f := range files {
		if strings.Contains(f.Name(), id) {
			return filepath.Join(dir, f.Name())
		}
	}
	t.Fatalf("no history file for entry %s", id)
	return ""
}

func TestNew(t *testing.T) {
	_, err := history.New("")
	assert.Error(t, err)
}

func TestRecordCompare(t *testing.T) {
	l, _ := newLog(t)

	summary := types.ScanSummary{Total: 3, Same: 2, Different: 1}
	entry, err := l.RecordCompare("/l", "/r", "rcompare", summary, 2*time.Second)
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, history.OpCompare, entry.Operation)
	require.NotNil(t, entry.Scan)
	assert.Equal(t, summary, *entry.Scan)
	assert.Nil(t, entry.Sync)

	got, err := l.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, "/l", got.Left)
	assert.Equal(t, "rcompare", got.Engine)
	assert.Equal(t, 2*time.Second, got.Duration)
}

func TestRecordSync(t *testing.T) {
	l, _ := newLog(t)

	summary := sync.Summary{Copied: 2, Failed: 1}
	actions := []history.ActionRecord{
		{Code: sync.CopyLR, Path: "a.txt"},
		{Code: sync.CopyLR, Path: "b.txt"},
		{Code: sync.UpdateR, Path: "c.txt", Failed: true},
	}
	entry, err := l.RecordSync("/l", "/r", sync.Bidirectional, true, summary, actions, time.Second)
	require.NoError(t, err)

	got, err := l.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, history.OpSync, got.Operation)
	assert.Equal(t, string(sync.Bidirectional), got.Direction)
	assert.True(t, got.DryRun)
	require.NotNil(t, got.Sync)
	assert.Equal(t, summary, *got.Sync)
	assert.Equal(t, actions, got.Actions)
}

func TestRecordCopy(t *testing.T) {
	l, _ := newLog(t)

	entry, err := l.RecordCopy("/l", "/r", true, sync.Summary{Copied: 1}, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, history.OpCopy, entry.Operation)
	assert.Equal(t, string(sync.LeftToRight), entry.Direction)

	entry, err = l.RecordCopy("/l", "/r", false, sync.Summary{Copied: 1}, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, string(sync.RightToLeft), entry.Direction)
}

func TestList(t *testing.T) {
	l, dir := newLog(t)

	t.Run("empty when directory does not exist", func(t *testing.T) {
		entries, err := l.List(0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	var ids []string
	for range 3 {
		entry, err := l.RecordCompare("/l", "/r", "rcompare", types.ScanSummary{}, 0)
		require.NoError(t, err)
		ids = append(ids, entry.ID)
		time.Sleep(5 * time.Millisecond) // distinct timestamps
	}

	t.Run("newest first", func(t *testing.T) {
		entries, err := l.List(0)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, ids[2], entries[0].ID)
		assert.Equal(t, ids[0], entries[2].ID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		entries, err := l.List(2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ids[2], entries[0].ID)
	})

	t.Run("unparsable files are skipped", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("nope"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

		entries, err := l.List(0)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}

func TestGet(t *testing.T) {
	l, _ := newLog(t)

	_, err := l.Get("")
	assert.Error(t, err)

	entry, err := l.RecordCompare("/l", "/r", "rcompare", types.ScanSummary{}, 0)
	require.NoError(t, err)

	got, err := l.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	_, err = l.Get("no-such-id")
	assert.ErrorContains(t, err, "not found")
}

func TestCleanup(t *testing.T) {
	l, dir := newLog(t)

	old, err := l.RecordCompare("/l", "/r", "rcompare", types.ScanSummary{}, 0)
	require.NoError(t, err)
	fresh, err := l.RecordCompare("/l", "/r", "rcompare", types.ScanSummary{}, 0)
	require.NoError(t, err)

	// Age the first entry's file past the retention window.
	aged := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(entryFile(t, dir, old.ID), aged, aged))

	require.NoError(t, l.Cleanup(7))

	entries, err := l.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].ID)
}
