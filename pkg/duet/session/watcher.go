package session

import (
	"io/fs"
	"os"
	"path/filepath"
	gosync "sync"

	"github.com/fsnotify/fsnotify"

	"github.com/duetcmp/duet/pkg/duet/logging"
	"github.com/duetcmp/duet/pkg/duet/trash"
)

// watcher marks the session's report stale when either root changes on
// disk. It watches directories recursively, skipping symlinks and the
// trash folder, and picks up directories created while watching.
type watcher struct {
	fsw    *fsnotify.Watcher
	paths  map[string]bool
	mu     gosync.Mutex
	closed bool
	events chan string
	logger *logging.Logger
}

func newWatcher() (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &watcher{
		fsw:    fsw,
		paths:  make(map[string]bool),
		events: make(chan string, 16),
		logger: logging.Get("watcher"),
	}, nil
}

// watch adds a root and all its subdirectories.
func (w *watcher) watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil // Only watch directories
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil // Skip symlinks to avoid loops
		}
		if d.IsDir() {
			if d.Name() == trash.DirName {
				return filepath.SkipDir
			}
			return w.addWatch(path)
		}
		return nil
	})
}

func (w *watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

// run pumps filesystem events into the staleness channel. It exits when
// the watcher closes.
func (w *watcher) run(onChange func(path string)) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, onChange)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *watcher) handleEvent(event fsnotify.Event, onChange func(path string)) {
	if event.Op&fsnotify.Create != 0 {
		// New directories need their own watches.
		if info, err := os.Lstat(event.Name); err == nil &&
			info.IsDir() && info.Mode()&fs.ModeSymlink == 0 &&
			filepath.Base(event.Name) != trash.DirName {
			_ = w.addWatch(event.Name)
		}
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.mu.Lock()
		if w.paths[event.Name] {
			_ = w.fsw.Remove(event.Name)
			delete(w.paths, event.Name)
		}
		w.mu.Unlock()
	}

	select {
	case w.events <- event.Name:
	default: // A pending event already marks the report stale.
	}

	if onChange != nil {
		onChange(event.Name)
	}
}

func (w *watcher) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.fsw.Close()
}

// Watch starts watching both roots for changes. Any event marks the
// current report stale; the affected path is also delivered on
// StaleEvents for consumers that want to react.
func (s *Session) Watch() error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return nil
	}
	w, err := newWatcher()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.watcher = w
	s.mu.Unlock()

	if err := w.watch(s.left); err != nil {
		s.logger.Warn("watch left root failed", "root", s.left, "error", err)
	}
	if err := w.watch(s.right); err != nil {
		s.logger.Warn("watch right root failed", "root", s.right, "error", err)
	}

	go w.run(func(string) { s.markStale() })
	return nil
}

// StaleEvents returns the channel of changed paths, or nil when the
// session is not watching.
func (s *Session) StaleEvents() <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	return s.watcher.events
}

// Close cancels any active invocation and stops the watcher.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Cancel()
		s.active = nil
	}
	if s.watcher != nil {
		err := s.watcher.close()
		s.watcher = nil
		return err
	}
	return nil
}
