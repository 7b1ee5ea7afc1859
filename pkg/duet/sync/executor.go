package sync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"

	"github.com/duetcmp/duet/pkg/duet/logging"
	"github.com/duetcmp/duet/pkg/duet/trash"
)

// Summary aggregates the outcome of an executed (or dry-run) action list.
type Summary struct {
	Copied  int `json:"copied"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Options configures action execution.
type Options struct {
	// UseTrash moves deleted targets into a trash folder under the root
	// being modified instead of removing them permanently.
	UseTrash bool

	// TrashDir overrides the trash folder name under the root.
	// Empty uses trash.DirName.
	TrashDir string

	// Progress, when non-nil, is called after each action with the
	// action and whether it failed.
	Progress func(action PlannedAction, failed bool)
}

// DryRun classifies an action list into the summary Execute would return,
// without touching the filesystem. Missing sources cannot be predicted,
// so they count toward their action kind rather than Failed.
func DryRun(actions []PlannedAction) Summary {
	var s Summary
	for _, action := range actions {
		switch action.Code {
		case CopyLR, CopyRL:
			s.Copied++
		case UpdateL, UpdateR:
			s.Updated++
		case DeleteL, DeleteR:
			s.Deleted++
		default:
			s.Skipped++
		}
	}
	return s
}

// Execute applies a planned action list under the two roots.
//
// Both roots must be directories before any action runs; that is the only
// fatal error. Every per-item failure (including a source that vanished
// between planning and execution) increments Failed and the batch
// continues. Conflict and Skip actions are counted, never acted on.
func Execute(ctx context.Context, actions []PlannedAction, leftRoot, rightRoot string, opts Options) (Summary, error) {
	logger := logging.Get("sync")

	var s Summary

	for _, root := range []string{leftRoot, rightRoot} {
		info, err := os.Stat(root)
		if err != nil {
			return s, fmt.Errorf("sync root %q: %w", root, err)
		}
		if !info.IsDir() {
			return s, fmt.Errorf("sync root %q is not a directory", root)
		}
	}

	// Advisory only: a full destination still fails per-item, not up front.
	for _, root := range []string{leftRoot, rightRoot} {
		if free, ok := freeSpace(root); ok {
			logger.Debug("root free space", "root", root, "free", free)
		}
	}

	trashDir := opts.TrashDir
	if trashDir == "" {
		trashDir = trash.DirName
	}

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		left := filepath.Join(leftRoot, filepath.FromSlash(action.Path))
		right := filepath.Join(rightRoot, filepath.FromSlash(action.Path))
		failed := false

		switch action.Code {
		case CopyLR:
			failed = !applyCopy(logger, left, right, &s.Copied, &s.Failed)
		case CopyRL:
			failed = !applyCopy(logger, right, left, &s.Copied, &s.Failed)
		case UpdateR:
			failed = !applyCopy(logger, left, right, &s.Updated, &s.Failed)
		case UpdateL:
			failed = !applyCopy(logger, right, left, &s.Updated, &s.Failed)
		case DeleteR:
			failed = !applyDelete(logger, right, filepath.Join(rightRoot, trashDir), opts.UseTrash, &s.Deleted, &s.Failed)
		case DeleteL:
			failed = !applyDelete(logger, left, filepath.Join(leftRoot, trashDir), opts.UseTrash, &s.Deleted, &s.Failed)
		default:
			s.Skipped++
		}

		if opts.Progress != nil {
			opts.Progress(action, failed)
		}
	}

	return s, nil
}

// applyCopy copies source onto target, counting success into ok and
// failure into failed. A missing source is a failure, not an abort.
func applyCopy(logger *logging.Logger, source, target string, ok, failed *int) bool {
	info, err := os.Stat(source)
	if err != nil {
		logger.Warn("copy source missing", "source", source, "error", err)
		*failed++
		return false
	}

	if info.IsDir() {
		err = copyTree(source, target)
	} else {
		err = copyFile(source, target, info.Mode())
	}
	if err != nil {
		logger.Warn("copy failed", "source", source, "target", target, "error", err)
		*failed++
		return false
	}
	*ok++
	return true
}

// applyDelete removes (or trashes) target, counting the outcome.
// A target that no longer exists is a successful no-op.
func applyDelete(logger *logging.Logger, target, trashRoot string, useTrash bool, ok, failed *int) bool {
	var err error
	if useTrash {
		err = trash.Move(target, trashRoot)
	} else {
		err = trash.Remove(target)
	}
	if err != nil {
		logger.Warn("delete failed", "target", target, "error", err)
		*failed++
		return false
	}
	*ok++
	return true
}

// copyFile copies one file, creating parent directories and overwriting
// any existing target.
func copyFile(source, target string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Preserve the source modification time so a follow-up comparison
	// reports the copy as identical.
	if info, err := os.Stat(source); err == nil {
		_ = os.Chtimes(target, info.ModTime(), info.ModTime())
	}
	return nil
}

// copyTree recursively copies a directory, merging into any existing
// target directory. Individual files overwrite existing ones.
func copyTree(source, target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}

	conf := fastwalk.Config{
		Follow: false, // Don't follow symlinks.
	}

	return fastwalk.Walk(&conf, source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		dest := filepath.Join(target, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		// Parent creation races with concurrent walkers; MkdirAll is
		// idempotent so copyFile handles it.
		return copyFile(path, dest, info.Mode())
	})
}
