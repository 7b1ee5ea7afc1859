package session

import (
	"context"
	"time"

	"github.com/duetcmp/duet/pkg/duet/history"
	"github.com/duetcmp/duet/pkg/duet/sync"
	"github.com/duetcmp/duet/pkg/duet/trash"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// SyncRequest describes one synchronization run.
type SyncRequest struct {
	Direction sync.Direction
	DryRun    bool
	UseTrash  bool

	// Local skips engine delegation and always runs the built-in
	// planner and executor.
	Local bool

	// Progress, when non-nil, is called per executed action. Only the
	// local executor reports per-action progress.
	Progress func(action sync.PlannedAction, failed bool)
}

// SyncResult is the outcome of one synchronization run.
type SyncResult struct {
	Summary sync.Summary

	// Actions is the local plan. For delegated runs it reflects what the
	// local planner would have done, recorded for review.
	Actions []sync.PlannedAction

	// Delegated is true when the engine's sync subcommand performed the
	// run; false means the local executor did.
	Delegated bool

	DryRun bool
}

// Sync synchronizes the roots according to the last comparison. The
// engine's sync subcommand is preferred; on engine failure the local
// planner and executor run instead. A completed non-dry run marks the
// report stale and is recorded to history.
func (s *Session) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	s.mu.Lock()
	report := s.report
	opts := s.options
	s.mu.Unlock()

	if report == nil {
		return nil, ErrNoComparison
	}

	started := time.Now()
	actions := sync.Plan(report, req.Direction)
	result := &SyncResult{Actions: actions, DryRun: req.DryRun}

	delegated := false
	if !req.Local {
		summary, err := s.engine.RunSync(ctx, s.left, s.right, string(req.Direction),
			req.DryRun, req.UseTrash, opts)
		if err != nil {
			s.logger.Warn("engine sync failed, falling back to local executor", "error", err)
		} else {
			result.Summary = sync.Summary{
				Copied:  summary.Copied,
				Updated: summary.Updated,
				Deleted: summary.Deleted,
				Skipped: summary.Skipped,
				Failed:  summary.Failed,
			}
			result.Delegated = true
			delegated = true
		}
	}

	if !delegated {
		if req.DryRun {
			result.Summary = sync.DryRun(actions)
		} else {
			summary, err := sync.Execute(ctx, actions, s.left, s.right, sync.Options{
				UseTrash: req.UseTrash,
				Progress: req.Progress,
			})
			if err != nil {
				return nil, err
			}
			result.Summary = summary
		}
	}

	if !req.DryRun {
		s.markStale()
	}
	s.recordSync(req, result, time.Since(started))

	return result, nil
}

// CopySide copies the given root-relative paths to the other side.
// The engine's copy subcommand is preferred; on engine failure the local
// copier runs instead.
func (s *Session) CopySide(ctx context.Context, toRight bool, paths []string) (sync.CopyResult, error) {
	s.mu.Lock()
	report := s.report
	opts := s.options
	s.mu.Unlock()

	if report == nil {
		return sync.CopyResult{}, ErrNoComparison
	}

	direction := string(sync.RightToLeft)
	sourceRoot, targetRoot := s.right, s.left
	if toRight {
		direction = string(sync.LeftToRight)
		sourceRoot, targetRoot = s.left, s.right
	}

	started := time.Now()

	var result sync.CopyResult
	summary, err := s.engine.RunCopy(ctx, s.left, s.right, direction, paths, opts)
	if err != nil {
		s.logger.Warn("engine copy failed, falling back to local copier", "error", err)
		result = sync.CopyPaths(ctx, paths, sourceRoot, targetRoot)
	} else {
		result = sync.CopyResult{
			Copied:  summary.Copied,
			Missing: summary.Missing,
			Skipped: summary.Skipped,
			Failed:  summary.Failed,
		}
	}

	if result.Copied > 0 {
		s.markStale()
	}
	s.recordCopy(toRight, paths, result, time.Since(started))

	return result, nil
}

// DeletePaths removes the given root-relative paths from one side,
// optionally moving them to that side's trash folder. The report is
// marked stale when anything was removed.
func (s *Session) DeletePaths(ctx context.Context, fromLeft bool, paths []string, useTrash bool) (sync.Summary, error) {
	s.mu.Lock()
	report := s.report
	s.mu.Unlock()

	if report == nil {
		return sync.Summary{}, ErrNoComparison
	}

	code := sync.DeleteR
	if fromLeft {
		code = sync.DeleteL
	}
	actions := make([]sync.PlannedAction, 0, len(paths))
	for _, p := range paths {
		actions = append(actions, sync.PlannedAction{Code: code, Path: p})
	}

	summary, err := sync.Execute(ctx, actions, s.left, s.right, sync.Options{
		UseTrash: useTrash,
		TrashDir: trash.DirName,
	})
	if err != nil {
		return summary, err
	}
	if summary.Deleted > 0 {
		s.markStale()
	}
	return summary, nil
}

func (s *Session) markStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *Session) recordSync(req SyncRequest, result *SyncResult, dur time.Duration) {
	if s.history == nil {
		return
	}
	records := make([]history.ActionRecord, 0, len(result.Actions))
	for _, a := range result.Actions {
		records = append(records, history.ActionRecord{Code: a.Code, Path: a.Path})
	}
	_, err := s.history.RecordSync(s.left, s.right, req.Direction, req.DryRun,
		result.Summary, records, dur)
	if err != nil {
		s.logger.Warn("history record failed", "error", err)
	}
}

func (s *Session) recordCopy(toRight bool, paths []string, result sync.CopyResult, dur time.Duration) {
	if s.history == nil {
		return
	}
	records := make([]history.ActionRecord, 0, len(paths))
	code := sync.CopyRL
	if toRight {
		code = sync.CopyLR
	}
	for _, p := range paths {
		records = append(records, history.ActionRecord{Code: code, Path: p})
	}
	summary := sync.Summary{
		Copied:  result.Copied,
		Skipped: result.Skipped + result.Missing,
		Failed:  result.Failed,
	}
	_, err := s.history.RecordCopy(s.left, s.right, toRight, summary, records, dur)
	if err != nil {
		s.logger.Warn("history record failed", "error", err)
	}
}

// EntriesForPaths returns the report entries matching the given paths,
// preserving request order. Unknown paths are skipped.
func (s *Session) EntriesForPaths(paths []string) []types.DiffEntry {
	s.mu.Lock()
	report := s.report
	s.mu.Unlock()
	if report == nil {
		return nil
	}

	byPath := make(map[string]types.DiffEntry, len(report.Entries))
	for _, e := range report.Entries {
		byPath[e.Path] = e
	}

	var entries []types.DiffEntry
	for _, p := range paths {
		if e, ok := byPath[p]; ok {
			entries = append(entries, e)
		}
	}
	return entries
}
