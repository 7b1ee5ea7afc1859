package sync_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/sync"
	"github.com/duetcmp/duet/pkg/duet/trash"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestExecuteCopyAndUpdate(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()

	writeFile(t, left, "new/file.txt", "fresh")
	writeFile(t, left, "changed.txt", "left version")
	writeFile(t, right, "changed.txt", "right version")

	actions := []sync.PlannedAction{
		{Code: sync.CopyLR, Path: "new/file.txt"},
		{Code: sync.UpdateR, Path: "changed.txt"},
	}

	s, err := sync.Execute(context.Background(), actions, left, right, sync.Options{})
	require.NoError(t, err)

	assert.Equal(t, sync.Summary{Copied: 1, Updated: 1}, s)
	assert.Equal(t, "fresh", readFile(t, right, "new/file.txt"))
	assert.Equal(t, "left version", readFile(t, right, "changed.txt"))
}

func TestExecuteCopyPreservesModTime(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()

	writeFile(t, left, "file.txt", "content")
	source := filepath.Join(left, "file.txt")
	info, err := os.Stat(source)
	require.NoError(t, err)

	_, err = sync.Execute(context.Background(),
		[]sync.PlannedAction{{Code: sync.CopyLR, Path: "file.txt"}},
		left, right, sync.Options{})
	require.NoError(t, err)

	copied, err := os.Stat(filepath.Join(right, "file.txt"))
	require.NoError(t, err)
	assert.True(t, copied.ModTime().Equal(info.ModTime()))
}

func TestExecuteCopyDirectory(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()

	writeFile(t, left, "dir/a.txt", "a")
	writeFile(t, left, "dir/sub/b.txt", "b")
	writeFile(t, right, "dir/a.txt", "stale") // merged into, then overwritten

	s, err := sync.Execute(context.Background(),
		[]sync.PlannedAction{{Code: sync.CopyLR, Path: "dir"}},
		left, right, sync.Options{})
	require.NoError(t, err)

	assert.Equal(t, sync.Summary{Copied: 1}, s)
	assert.Equal(t, "a", readFile(t, right, "dir/a.txt"))
	assert.Equal(t, "b", readFile(t, right, "dir/sub/b.txt"))
}

func TestExecuteDelete(t *testing.T) {
	t.Run("permanent", func(t *testing.T) {
		left := t.TempDir()
		right := t.TempDir()
		writeFile(t, right, "gone.txt", "x")

		s, err := sync.Execute(context.Background(),
			[]sync.PlannedAction{{Code: sync.DeleteR, Path: "gone.txt"}},
			left, right, sync.Options{})
		require.NoError(t, err)

		assert.Equal(t, sync.Summary{Deleted: 1}, s)
		assert.NoFileExists(t, filepath.Join(right, "gone.txt"))
	})

	t.Run("to trash on the modified side", func(t *testing.T) {
		left := t.TempDir()
		right := t.TempDir()
		writeFile(t, right, "gone.txt", "keep me")

		s, err := sync.Execute(context.Background(),
			[]sync.PlannedAction{{Code: sync.DeleteR, Path: "gone.txt"}},
			left, right, sync.Options{UseTrash: true})
		require.NoError(t, err)

		assert.Equal(t, sync.Summary{Deleted: 1}, s)
		assert.NoFileExists(t, filepath.Join(right, "gone.txt"))
		assert.Equal(t, "keep me", readFile(t, right, trash.DirName+"/gone.txt"))
		assert.NoDirExists(t, filepath.Join(left, trash.DirName))
	})

	t.Run("already gone is a success", func(t *testing.T) {
		left := t.TempDir()
		right := t.TempDir()

		s, err := sync.Execute(context.Background(),
			[]sync.PlannedAction{{Code: sync.DeleteL, Path: "never-existed.txt"}},
			left, right, sync.Options{})
		require.NoError(t, err)
		assert.Equal(t, sync.Summary{Deleted: 1}, s)
	})
}

func TestExecuteContinuesPastFailures(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()

	writeFile(t, left, "ok.txt", "ok")
	// vanished.txt was planned but never existed; the batch keeps going.
	actions := []sync.PlannedAction{
		{Code: sync.CopyLR, Path: "vanished.txt"},
		{Code: sync.CopyLR, Path: "ok.txt"},
	}

	var seen []sync.PlannedAction
	var failures []bool
	s, err := sync.Execute(context.Background(), actions, left, right, sync.Options{
		Progress: func(action sync.PlannedAction, failed bool) {
			seen = append(seen, action)
			failures = append(failures, failed)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, sync.Summary{Copied: 1, Failed: 1}, s)
	assert.Equal(t, "ok", readFile(t, right, "ok.txt"))
	assert.Equal(t, actions, seen)
	assert.Equal(t, []bool{true, false}, failures)
}

func TestExecuteConflictAndSkipCounted(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()

	s, err := sync.Execute(context.Background(),
		[]sync.PlannedAction{
			{Code: sync.Conflict, Path: "clash.txt"},
			{Code: sync.Skip, Path: "unchecked.txt"},
		},
		left, right, sync.Options{})
	require.NoError(t, err)
	assert.Equal(t, sync.Summary{Skipped: 2}, s)
}

func TestExecuteRootValidation(t *testing.T) {
	left := t.TempDir()
	notDir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o644))

	_, err := sync.Execute(context.Background(), nil, left, notDir, sync.Options{})
	assert.ErrorContains(t, err, "not a directory")

	_, err = sync.Execute(context.Background(), nil, filepath.Join(left, "missing"), left, sync.Options{})
	assert.Error(t, err)
}

func TestExecuteCancellation(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFile(t, left, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := sync.Execute(ctx,
		[]sync.PlannedAction{{Code: sync.CopyLR, Path: "a.txt"}},
		left, right, sync.Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, sync.Summary{}, s)
	assert.NoFileExists(t, filepath.Join(right, "a.txt"))
}

func TestDryRun(t *testing.T) {
	s := sync.DryRun([]sync.PlannedAction{
		{Code: sync.CopyLR, Path: "a"},
		{Code: sync.CopyRL, Path: "b"},
		{Code: sync.UpdateR, Path: "c"},
		{Code: sync.DeleteL, Path: "d"},
		{Code: sync.Conflict, Path: "e"},
		{Code: sync.Skip, Path: "f"},
	})
	assert.Equal(t, sync.Summary{Copied: 2, Updated: 1, Deleted: 1, Skipped: 2}, s)
}

func TestCopyPaths(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()

	writeFile(t, source, "keep/a.txt", "a")
	writeFile(t, source, "b.txt", "b")

	t.Run("copies selected paths", func(t *testing.T) {
		r := sync.CopyPaths(context.Background(), []string{"keep", "b.txt", "phantom.txt"}, source, target)
		assert.Equal(t, sync.CopyResult{Copied: 2, Missing: 1}, r)
		assert.Equal(t, "a", readFile(t, target, "keep/a.txt"))
		assert.Equal(t, "b", readFile(t, target, "b.txt"))
	})

	t.Run("cancellation skips the remainder", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := sync.CopyPaths(ctx, []string{"keep", "b.txt"}, source, target)
		assert.Equal(t, sync.CopyResult{Skipped: 2}, r)
	})
}
