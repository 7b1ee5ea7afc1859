package sync

import (
	"context"
	"os"
	"path/filepath"

	"github.com/duetcmp/duet/pkg/duet/logging"
)

// CopyResult aggregates a one-directional copy of selected paths.
type CopyResult struct {
	Copied  int `json:"copied"`
	Missing int `json:"missing"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// CopyPaths copies the given root-relative paths from sourceRoot onto
// targetRoot. A missing source counts as Missing and the batch continues;
// cancellation counts the remaining paths as Skipped.
func CopyPaths(ctx context.Context, paths []string, sourceRoot, targetRoot string) CopyResult {
	logger := logging.Get("sync")

	var r CopyResult
	for idx, p := range paths {
		if ctx.Err() != nil {
			r.Skipped += len(paths) - idx
			break
		}

		source := filepath.Join(sourceRoot, filepath.FromSlash(p))
		target := filepath.Join(targetRoot, filepath.FromSlash(p))

		info, err := os.Stat(source)
		if err != nil {
			logger.Warn("copy source missing", "source", source, "error", err)
			r.Missing++
			continue
		}

		if info.IsDir() {
			err = copyTree(source, target)
		} else {
			err = copyFile(source, target, info.Mode())
		}
		if err != nil {
			logger.Warn("copy failed", "source", source, "target", target, "error", err)
			r.Failed++
			continue
		}
		r.Copied++
	}
	return r
}
