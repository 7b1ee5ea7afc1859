// Package session orchestrates one comparison: a pair of roots, the
// engine options used to scan them, the resulting report and tree, and
// the sync operations derived from them. Each session owns its state;
// concurrent comparisons use separate sessions.
package session

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"github.com/duetcmp/duet/pkg/duet/cache"
	"github.com/duetcmp/duet/pkg/duet/engine"
	"github.com/duetcmp/duet/pkg/duet/filter"
	"github.com/duetcmp/duet/pkg/duet/history"
	"github.com/duetcmp/duet/pkg/duet/logging"
	"github.com/duetcmp/duet/pkg/duet/tree"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// ErrNoComparison is returned by operations that need a completed
// comparison before they can run.
var ErrNoComparison = errors.New("no comparison loaded")

// Config wires a session's collaborators. Engine is required; Cache and
// History are optional and skipped when nil.
type Config struct {
	Engine  *engine.Engine
	Cache   *cache.Cache
	History *history.Log
	Options engine.Options
	Filter  filter.Flags
}

// Session owns the comparison state for one left/right root pair.
// At most one engine invocation is active at a time; starting a new
// comparison cancels the previous one.
type Session struct {
	mu      gosync.Mutex
	left    string
	right   string
	engine  *engine.Engine
	cache   *cache.Cache
	history *history.Log
	options engine.Options
	flags   filter.Flags

	report *types.ScanReport
	root   *tree.Node
	active *engine.Invocation
	stale  bool

	watcher *watcher
	logger  *logging.Logger
}

// New creates a session for the given roots.
func New(left, right string, cfg Config) (*Session, error) {
	if cfg.Engine == nil {
		return nil, errors.New("session requires an engine")
	}
	flags := cfg.Filter
	if !flags.ShowIdentical && !flags.ShowDifferent && !flags.ShowLeftOnly &&
		!flags.ShowRightOnly && flags.Search == "" && len(flags.Patterns) == 0 {
		// A zero value means "no filter configured", not "hide everything".
		flags = filter.Default()
	}
	return &Session{
		left:    left,
		right:   right,
		engine:  cfg.Engine,
		cache:   cfg.Cache,
		history: cfg.History,
		options: cfg.Options,
		flags:   flags,
		logger:  logging.Get("session"),
	}, nil
}

// Left returns the left root path.
func (s *Session) Left() string { return s.left }

// Right returns the right root path.
func (s *Session) Right() string { return s.right }

// Options returns the engine options in effect.
func (s *Session) Options() engine.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// SetOptions replaces the engine options. The change takes effect on the
// next Compare.
func (s *Session) SetOptions(opts engine.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = opts
}

// Filter returns the active filter flags.
func (s *Session) Filter() filter.Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// SetFilter replaces the filter flags. The tree is untouched; callers
// re-render through the predicate.
func (s *Session) SetFilter(flags filter.Flags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = flags
}

// Report returns the current scan report, or nil before the first
// successful comparison.
func (s *Session) Report() *types.ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Root returns the current comparison tree root, or nil.
func (s *Session) Root() *tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// VisibleLeaves returns the leaves passing the active filter.
func (s *Session) VisibleLeaves() []*tree.Node {
	s.mu.Lock()
	root, flags := s.root, s.flags
	s.mu.Unlock()
	if root == nil {
		return nil
	}
	return flags.VisibleLeaves(root)
}

// Stale reports whether the current report may no longer reflect the
// filesystem (a sync ran, or the watcher saw a change).
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Run tracks one in-flight comparison. Progress streams the engine's
// stderr lines; Done delivers exactly one terminal error (nil on
// success, after the report and tree are installed).
type Run struct {
	Progress <-chan string
	Done     <-chan error

	inv *engine.Invocation
}

// Cancel stops the underlying engine process, if any.
func (r *Run) Cancel() {
	if r.inv != nil {
		r.inv.Cancel()
	}
}

// Compare starts a comparison, canceling any active one first. With
// useCache, a fresh cached report for the same roots and options is
// installed without invoking the engine. A failed comparison surfaces
// once on Done and is never retried automatically.
func (s *Session) Compare(ctx context.Context, useCache bool) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Cancel()
		s.active = nil
	}

	digest := cache.OptionsDigest(s.options.Flags())

	if useCache && s.cache != nil {
		cached, err := s.cache.Lookup(s.left, s.right, digest)
		if err != nil {
			s.logger.Warn("cache lookup failed", "error", err)
		} else if cached != nil {
			if err := s.installLocked(cached); err == nil {
				s.logger.Debug("comparison restored from cache", "left", s.left, "right", s.right)
				return completedRun(nil), nil
			}
		}
	}

	inv, err := s.engine.Scan(s.left, s.right, s.options)
	if err != nil {
		return nil, err
	}
	s.active = inv

	done := make(chan error, 1)
	finished := make(chan struct{})
	started := time.Now()

	go func() {
		defer close(finished)
		res := <-inv.Done()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.active == inv {
			s.active = nil
		}

		if res.Err != nil {
			done <- res.Err
			return
		}
		if err := s.installLocked(res.Report); err != nil {
			done <- err
			return
		}

		if s.cache != nil {
			if err := s.cache.Store(s.left, s.right, digest, s.engine.Path(), res.Report); err != nil {
				s.logger.Warn("cache store failed", "error", err)
			}
		}
		if s.history != nil {
			_, err := s.history.RecordCompare(s.left, s.right, s.engine.Path(),
				res.Report.Summary, time.Since(started))
			if err != nil {
				s.logger.Warn("history record failed", "error", err)
			}
		}
		done <- nil
	}()

	// Cooperative cancellation from the caller's context.
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				inv.Cancel()
			case <-finished:
			}
		}()
	}

	return &Run{Progress: inv.Progress(), Done: done, inv: inv}, nil
}

// installLocked validates and installs a report. Callers hold s.mu.
func (s *Session) installLocked(report *types.ScanReport) error {
	if err := report.Validate(); err != nil {
		return err
	}
	root, err := tree.Build(report)
	if err != nil {
		return err
	}
	s.report = report
	s.root = root
	s.stale = false
	return nil
}

func completedRun(err error) *Run {
	progress := make(chan string)
	close(progress)
	done := make(chan error, 1)
	done <- err
	return &Run{Progress: progress, Done: done}
}
