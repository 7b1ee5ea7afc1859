package session_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/cache"
	"github.com/duetcmp/duet/pkg/duet/engine"
	"github.com/duetcmp/duet/pkg/duet/filter"
	"github.com/duetcmp/duet/pkg/duet/history"
	"github.com/duetcmp/duet/pkg/duet/session"
	"github.com/duetcmp/duet/pkg/duet/sync"
)

// fakeEngine writes an executable shell script standing in for the real
// comparison binary. Every invocation appends its subcommand to countFile.
func fakeEngine(t *testing.T, script string) (path, countFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine scripts require a POSIX shell")
	}
	dir := t.TempDir()
	path = filepath.Join(dir, "fake-engine")
	countFile = filepath.Join(dir, "calls")
	body := fmt.Sprintf("#!/bin/sh\necho \"$1\" >> %q\n%s", countFile, script)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path, countFile
}

func calls(t *testing.T, countFile string) []string {
	t.Helper()
	data, err := os.ReadFile(countFile)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Fields(string(data))
}

// sampleJSON is a three-entry report driving the sync rule coverage.
const sampleJSON = `{"left":"/l","right":"/r",` +
	`"summary":{"total":3,"same":0,"different":1,"orphan_left":1,"orphan_right":1,"unchecked":0},` +
	`"entries":[` +
	`{"path":"changed.txt","status":"Different"},` +
	`{"path":"gone.txt","status":"OrphanRight"},` +
	`{"path":"new.txt","status":"OrphanLeft"}]}`

// scanOnly is a fake engine that answers scans and rejects everything
// else, forcing the local fallback for sync and copy.
func scanOnly(t *testing.T) (*engine.Engine, string) {
	t.Helper()
	script := fmt.Sprintf(`case "$1" in
scan) printf '%%s' '%s'; exit 1 ;;
*) echo "unsupported" >&2; exit 2 ;;
esac
`, sampleJSON)
	path, countFile := fakeEngine(t, script)
	return engine.New(path, 1), countFile
}

// seededRoots creates left/right roots matching sampleJSON.
func seededRoots(t *testing.T) (left, right string) {
	t.Helper()
	left = t.TempDir()
	right = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(left, "changed.txt"), []byte("left"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(right, "changed.txt"), []byte("right"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(left, "new.txt"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(right, "gone.txt"), []byte("old"), 0o644))
	return left, right
}

func compared(t *testing.T, s *session.Session) {
	t.Helper()
	run, err := s.Compare(context.Background(), false)
	require.NoError(t, err)
	select {
	case err := <-run.Done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("comparison did not finish")
	}
}

func TestNew(t *testing.T) {
	_, err := session.New("/l", "/r", session.Config{})
	assert.ErrorContains(t, err, "engine")

	eng, _ := scanOnly(t)
	s, err := session.New("/l", "/r", session.Config{Engine: eng})
	require.NoError(t, err)
	assert.Equal(t, "/l", s.Left())
	assert.Equal(t, "/r", s.Right())
	assert.True(t, s.Filter().IsDefault(), "zero filter falls back to defaults")
}

func TestCompare(t *testing.T) {
	eng, countFile := scanOnly(t)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: eng})
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Report())
	assert.Nil(t, s.Root())

	compared(t, s)

	report := s.Report()
	require.NotNil(t, report)
	assert.Equal(t, 3, report.Summary.Total)

	root := s.Root()
	require.NotNil(t, root)
	assert.NotNil(t, root.Find("changed.txt"))
	assert.False(t, s.Stale())
	assert.Equal(t, []string{"scan"}, calls(t, countFile))
}

func TestCompareFailure(t *testing.T) {
	path, _ := fakeEngine(t, "echo 'boom' >&2\nexit 3\n")
	s, err := session.New("/l", "/r", session.Config{Engine: engine.New(path, 1)})
	require.NoError(t, err)

	run, err := s.Compare(context.Background(), false)
	require.NoError(t, err)

	select {
	case err := <-run.Done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(5 * time.Second):
		t.Fatal("comparison did not finish")
	}
	assert.Nil(t, s.Report(), "failed comparison installs nothing")
}

func TestCompareUsesCache(t *testing.T) {
	eng, countFile := scanOnly(t)
	left, right := seededRoots(t)

	c, err := cache.Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	defer c.Close()

	s, err := session.New(left, right, session.Config{Engine: eng, Cache: c})
	require.NoError(t, err)
	defer s.Close()

	compared(t, s)
	require.Equal(t, []string{"scan"}, calls(t, countFile))

	t.Run("cached report skips the engine", func(t *testing.T) {
		run, err := s.Compare(context.Background(), true)
		require.NoError(t, err)
		require.NoError(t, <-run.Done)

		assert.Equal(t, []string{"scan"}, calls(t, countFile), "no second scan")
		assert.NotNil(t, s.Report())
	})

	t.Run("bypassing the cache re-scans", func(t *testing.T) {
		run, err := s.Compare(context.Background(), false)
		require.NoError(t, err)
		require.NoError(t, <-run.Done)

		assert.Equal(t, []string{"scan", "scan"}, calls(t, countFile))
	})
}

func TestSyncLocal(t *testing.T) {
	eng, countFile := scanOnly(t)
	left, right := seededRoots(t)

	hist, err := history.New(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)

	s, err := session.New(left, right, session.Config{Engine: eng, History: hist})
	require.NoError(t, err)
	defer s.Close()

	t.Run("requires a comparison", func(t *testing.T) {
		_, err := s.Sync(context.Background(), session.SyncRequest{Direction: sync.LeftToRight, Local: true})
		assert.ErrorIs(t, err, session.ErrNoComparison)
	})

	compared(t, s)

	t.Run("dry run previews without touching disk", func(t *testing.T) {
		result, err := s.Sync(context.Background(), session.SyncRequest{
			Direction: sync.LeftToRight,
			DryRun:    true,
			Local:     true,
		})
		require.NoError(t, err)

		assert.True(t, result.DryRun)
		assert.False(t, result.Delegated)
		assert.Equal(t, sync.Summary{Copied: 1, Updated: 1, Deleted: 1}, result.Summary)
		assert.FileExists(t, filepath.Join(right, "gone.txt"))
		assert.False(t, s.Stale(), "dry run keeps the report fresh")
	})

	t.Run("executes left to right", func(t *testing.T) {
		var progressed int
		result, err := s.Sync(context.Background(), session.SyncRequest{
			Direction: sync.LeftToRight,
			UseTrash:  false,
			Local:     true,
			Progress:  func(sync.PlannedAction, bool) { progressed++ },
		})
		require.NoError(t, err)

		assert.Equal(t, sync.Summary{Copied: 1, Updated: 1, Deleted: 1}, result.Summary)
		assert.Equal(t, 3, progressed)
		assert.FileExists(t, filepath.Join(right, "new.txt"))
		assert.NoFileExists(t, filepath.Join(right, "gone.txt"))

		data, err := os.ReadFile(filepath.Join(right, "changed.txt"))
		require.NoError(t, err)
		assert.Equal(t, "left", string(data))

		assert.True(t, s.Stale())
	})

	t.Run("runs are recorded to history", func(t *testing.T) {
		entries, err := hist.List(0)
		require.NoError(t, err)

		var ops []history.OperationType
		for _, e := range entries {
			ops = append(ops, e.Operation)
		}
		assert.Contains(t, ops, history.OpCompare)
		assert.Contains(t, ops, history.OpSync)
	})

	// The scan-only engine rejects sync, so no sync subcommand may have
	// succeeded silently.
	assert.NotContains(t, calls(t, countFile), "copy")
}

func TestSyncDelegated(t *testing.T) {
	script := fmt.Sprintf(`case "$1" in
scan) printf '%%s' '%s'; exit 1 ;;
sync) printf '%%s' '{"summary":{"copied":5,"deleted":2}}'; exit 0 ;;
*) exit 2 ;;
esac
`, sampleJSON)
	path, countFile := fakeEngine(t, script)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: engine.New(path, 1)})
	require.NoError(t, err)
	defer s.Close()

	compared(t, s)

	result, err := s.Sync(context.Background(), session.SyncRequest{Direction: sync.LeftToRight})
	require.NoError(t, err)

	assert.True(t, result.Delegated)
	assert.Equal(t, sync.Summary{Copied: 5, Deleted: 2}, result.Summary)
	assert.Contains(t, calls(t, countFile), "sync")
	assert.FileExists(t, filepath.Join(right, "gone.txt"), "local executor did not run")
	assert.True(t, s.Stale())
}

func TestSyncFallsBackWhenEngineFails(t *testing.T) {
	eng, _ := scanOnly(t)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: eng})
	require.NoError(t, err)
	defer s.Close()

	compared(t, s)

	result, err := s.Sync(context.Background(), session.SyncRequest{Direction: sync.LeftToRight})
	require.NoError(t, err)

	assert.False(t, result.Delegated)
	assert.Equal(t, sync.Summary{Copied: 1, Updated: 1, Deleted: 1}, result.Summary)
	assert.NoFileExists(t, filepath.Join(right, "gone.txt"))
}

func TestCopySide(t *testing.T) {
	eng, _ := scanOnly(t)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: eng})
	require.NoError(t, err)
	defer s.Close()

	t.Run("requires a comparison", func(t *testing.T) {
		_, err := s.CopySide(context.Background(), true, []string{"new.txt"})
		assert.ErrorIs(t, err, session.ErrNoComparison)
	})

	compared(t, s)

	result, err := s.CopySide(context.Background(), true, []string{"new.txt", "phantom.txt"})
	require.NoError(t, err)

	assert.Equal(t, sync.CopyResult{Copied: 1, Missing: 1}, result)
	assert.FileExists(t, filepath.Join(right, "new.txt"))
	assert.True(t, s.Stale())
}

func TestDeletePaths(t *testing.T) {
	eng, _ := scanOnly(t)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: eng})
	require.NoError(t, err)
	defer s.Close()

	compared(t, s)

	summary, err := s.DeletePaths(context.Background(), false, []string{"gone.txt"}, true)
	require.NoError(t, err)

	assert.Equal(t, sync.Summary{Deleted: 1}, summary)
	assert.NoFileExists(t, filepath.Join(right, "gone.txt"))
	assert.FileExists(t, filepath.Join(right, ".duet_trash", "gone.txt"))
	assert.NoFileExists(t, filepath.Join(left, "gone.txt"), "left side untouched")
	assert.True(t, s.Stale())
}

func TestEntriesForPaths(t *testing.T) {
	eng, _ := scanOnly(t)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: eng})
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.EntriesForPaths([]string{"new.txt"}), "empty before comparing")

	compared(t, s)

	entries := s.EntriesForPaths([]string{"new.txt", "unknown.txt", "changed.txt"})
	require.Len(t, entries, 2)
	assert.Equal(t, "new.txt", entries[0].Path)
	assert.Equal(t, "changed.txt", entries[1].Path)
}

func TestVisibleLeaves(t *testing.T) {
	eng, _ := scanOnly(t)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: eng})
	require.NoError(t, err)
	defer s.Close()

	compared(t, s)

	assert.Len(t, s.VisibleLeaves(), 3)

	flags := filter.Flags{ShowLeftOnly: true}
	s.SetFilter(flags)
	leaves := s.VisibleLeaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, "new.txt", leaves[0].Path)
}

func TestWatchMarksStale(t *testing.T) {
	eng, _ := scanOnly(t)
	left, right := seededRoots(t)

	s, err := session.New(left, right, session.Config{Engine: eng})
	require.NoError(t, err)
	defer s.Close()

	compared(t, s)
	require.NoError(t, s.Watch())
	require.NotNil(t, s.StaleEvents())

	require.NoError(t, os.WriteFile(filepath.Join(left, "appeared.txt"), []byte("x"), 0o644))

	assert.Eventually(t, s.Stale, 5*time.Second, 20*time.Millisecond,
		"filesystem change should mark the report stale")
}
