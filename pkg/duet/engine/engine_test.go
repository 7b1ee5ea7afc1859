package engine_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetcmp/duet/pkg/duet/engine"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// fakeEngine writes an executable shell script standing in for the real
// comparison binary.
func fakeEngine(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-engine")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func minimalReport() string {
	return `{"left":"/l","right":"/r","summary":{"total":1,"different":1},"entries":[{"path":"a.txt","status":"Different"}]}`
}

func TestOptionsFlags(t *testing.T) {
	t.Run("zero value passes nothing", func(t *testing.T) {
		assert.Empty(t, engine.Options{}.Flags())
	})

	t.Run("renders every option", func(t *testing.T) {
		opts := engine.Options{
			FollowSymlinks:   true,
			VerifyHashes:     true,
			Ignore:           []string{"*.tmp", ".git"},
			TextDiff:         true,
			ImageDiff:        true,
			ImageEXIF:        true,
			ImageTolerance:   5,
			CSVDiff:          true,
			ExcelDiff:        true,
			JSONDiff:         true,
			YAMLDiff:         true,
			ParquetDiff:      true,
			IgnoreWhitespace: "all",
			IgnoreCase:       true,
		}
		assert.Equal(t, []string{
			"--follow-symlinks", "--verify-hashes",
			"--ignore", "*.tmp", "--ignore", ".git",
			"--text-diff", "--image-diff", "--image-exif",
			"--image-tolerance", "5",
			"--csv-diff", "--excel-diff", "--json-diff", "--yaml-diff", "--parquet-diff",
			"--ignore-whitespace", "all", "--ignore-case",
		}, opts.Flags())
	})

	t.Run("default image tolerance is omitted", func(t *testing.T) {
		assert.Empty(t, engine.Options{ImageTolerance: 1}.Flags())
	})

	t.Run("rendering is deterministic", func(t *testing.T) {
		opts := engine.Options{VerifyHashes: true, Ignore: []string{"a", "b"}}
		assert.Equal(t, opts.Flags(), opts.Flags())
	})
}

func TestArgs(t *testing.T) {
	e := engine.New("rcompare", 0)

	assert.Equal(t,
		[]string{"scan", "/l", "/r", "--json", "--verify-hashes"},
		e.ScanArgs("/l", "/r", engine.Options{VerifyHashes: true}))

	assert.Equal(t,
		[]string{"sync", "/l", "/r", "--json", "--direction", "left_to_right", "--conflict", "newest", "--dry-run", "--use-trash"},
		e.SyncArgs("/l", "/r", "left_to_right", true, true, engine.Options{}))

	assert.Equal(t,
		[]string{"copy", "/l", "/r", "--json", "--direction", "right_to_left", "--path", "a.txt", "--path", "b/c.txt"},
		e.CopyArgs("/l", "/r", "right_to_left", []string{"a.txt", "b/c.txt"}, engine.Options{}))
}

func TestScan(t *testing.T) {
	t.Run("clean exit", func(t *testing.T) {
		e := engine.New(fakeEngine(t, fmt.Sprintf("printf '%%s' '%s'\nexit 0\n", minimalReport())), 1)

		inv, err := e.Scan("/l", "/r", engine.Options{})
		require.NoError(t, err)

		res := <-inv.Done()
		require.NoError(t, res.Err)
		require.Len(t, res.Report.Entries, 1)
		assert.Equal(t, types.StatusDifferent, res.Report.Entries[0].Status)
	})

	t.Run("diff exit code is success", func(t *testing.T) {
		e := engine.New(fakeEngine(t, fmt.Sprintf("printf '%%s' '%s'\nexit 1\n", minimalReport())), 1)

		inv, err := e.Scan("/l", "/r", engine.Options{})
		require.NoError(t, err)

		res := <-inv.Done()
		require.NoError(t, res.Err)
		assert.Equal(t, 1, res.Report.Summary.Different)
	})

	t.Run("other exit codes fail with stderr detail", func(t *testing.T) {
		e := engine.New(fakeEngine(t, "echo 'left root not found' >&2\nexit 2\n"), 1)

		inv, err := e.Scan("/l", "/r", engine.Options{})
		require.NoError(t, err)

		res := <-inv.Done()
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "code 2")
		assert.Contains(t, res.Err.Error(), "left root not found")
	})

	t.Run("stderr is fully drained before the result", func(t *testing.T) {
		// A failing engine that floods stderr: the final line must still
		// reach the error detail, so the tail is complete when the
		// result is built.
		e := engine.New(fakeEngine(t,
			"i=0\nwhile [ $i -lt 5000 ]; do echo \"checked $i\" >&2; i=$((i+1)); done\n"+
				"echo 'fatal: comparison aborted' >&2\nexit 7\n"), 1)

		inv, err := e.Scan("/l", "/r", engine.Options{})
		require.NoError(t, err)

		res := <-inv.Done()
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "code 7")
		assert.Contains(t, res.Err.Error(), "fatal: comparison aborted")
	})

	t.Run("streams stderr as progress", func(t *testing.T) {
		e := engine.New(fakeEngine(t, fmt.Sprintf(
			"echo 'scanning 1/2' >&2\necho 'scanning 2/2' >&2\nprintf '%%s' '%s'\nexit 0\n",
			minimalReport())), 1)

		inv, err := e.Scan("/l", "/r", engine.Options{})
		require.NoError(t, err)

		var lines []string
		for line := range inv.Progress() {
			lines = append(lines, line)
		}
		res := <-inv.Done()
		require.NoError(t, res.Err)
		assert.Equal(t, []string{"scanning 1/2", "scanning 2/2"}, lines)
	})

	t.Run("unparsable output is an error", func(t *testing.T) {
		e := engine.New(fakeEngine(t, "printf 'not json'\nexit 0\n"), 1)

		inv, err := e.Scan("/l", "/r", engine.Options{})
		require.NoError(t, err)

		res := <-inv.Done()
		assert.Error(t, res.Err)
	})

	t.Run("cancel kills the process", func(t *testing.T) {
		e := engine.New(fakeEngine(t, "sleep 30\n"), 1)

		inv, err := e.Scan("/l", "/r", engine.Options{})
		require.NoError(t, err)

		inv.Cancel()
		assert.True(t, inv.Canceled())

		select {
		case res := <-inv.Done():
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), "canceled")
		case <-time.After(5 * time.Second):
			t.Fatal("invocation did not terminate after cancel")
		}
	})

	t.Run("missing binary fails to start", func(t *testing.T) {
		e := engine.New(filepath.Join(t.TempDir(), "no-such-engine"), 1)
		_, err := e.Scan("/l", "/r", engine.Options{})
		assert.Error(t, err)
	})
}

func TestRunSync(t *testing.T) {
	e := engine.New(fakeEngine(t,
		`printf '%s' '{"summary":{"copied":3,"deleted":1,"failed":0}}'`+"\nexit 1\n"), 1)

	summary, err := e.RunSync(context.Background(), "/l", "/r", "left_to_right", false, true, engine.Options{})
	require.NoError(t, err)
	assert.Equal(t, engine.SyncSummary{Copied: 3, Deleted: 1}, summary)
}

func TestRunCopy(t *testing.T) {
	e := engine.New(fakeEngine(t,
		`printf '%s' '{"summary":{"copied":2,"missing":1}}'`+"\nexit 0\n"), 1)

	summary, err := e.RunCopy(context.Background(), "/l", "/r", "left_to_right", []string{"a", "b"}, engine.Options{})
	require.NoError(t, err)
	assert.Equal(t, engine.CopySummary{Copied: 2, Missing: 1}, summary)
}

func TestNewDiffExitCodeFallback(t *testing.T) {
	// A non-positive configured code falls back to the conventional 1.
	e := engine.New(fakeEngine(t, fmt.Sprintf("printf '%%s' '%s'\nexit 1\n", minimalReport())), -1)

	inv, err := e.Scan("/l", "/r", engine.Options{})
	require.NoError(t, err)
	res := <-inv.Done()
	assert.NoError(t, res.Err)
}
