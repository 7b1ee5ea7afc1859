package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/duetcmp/duet/pkg/duet/sync"
	"github.com/duetcmp/duet/pkg/duet/types"
)

// Log manages operation history on the filesystem.
type Log struct {
	dir string
	mu  gosync.Mutex
}

// New creates a new Log with the given directory.
// The directory is not created until EnsureDir is called.
func New(dir string) (*Log, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Log{dir: dir}, nil
}

// EnsureDir creates the history directory if it does not exist.
func (l *Log) EnsureDir() error {
	return os.MkdirAll(l.dir, 0o755)
}

// RecordCompare logs a comparison and returns the created entry.
func (l *Log) RecordCompare(left, right, engine string, summary types.ScanSummary, dur time.Duration) (*Entry, error) {
	entry := &Entry{
		Operation: OpCompare,
		Left:      left,
		Right:     right,
		Engine:    engine,
		Scan:      &summary,
		Duration:  dur,
	}
	return l.record(entry)
}

// RecordSync logs a sync run and returns the created entry.
func (l *Log) RecordSync(left, right string, dir sync.Direction, dryRun bool, summary sync.Summary, actions []ActionRecord, dur time.Duration) (*Entry, error) {
	entry := &Entry{
		Operation: OpSync,
		Left:      left,
		Right:     right,
		Direction: string(dir),
		DryRun:    dryRun,
		Sync:      &summary,
		Actions:   actions,
		Duration:  dur,
	}
	return l.record(entry)
}

// RecordCopy logs a one-directional copy and returns the created entry.
func (l *Log) RecordCopy(left, right string, toRight bool, summary sync.Summary, actions []ActionRecord, dur time.Duration) (*Entry, error) {
	direction := string(sync.RightToLeft)
	if toRight {
		direction = string(sync.LeftToRight)
	}
	entry := &Entry{
		Operation: OpCopy,
		Left:      left,
		Right:     right,
		Direction: direction,
		Sync:      &summary,
		Actions:   actions,
		Duration:  dur,
	}
	return l.record(entry)
}

// record assigns an ID and timestamp, then persists the entry.
func (l *Log) record(entry *Entry) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()

	if err := l.writeEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	return entry, nil
}

// writeEntry writes an entry to a JSON file in the history directory.
func (l *Log) writeEntry(entry *Entry) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s-%s.json",
		entry.Timestamp.Format("20060102T150405"), entry.Operation, entry.ID)
	filePath := filepath.Join(l.dir, filename)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	// Write atomically using a temp file and rename
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// List returns all history entries sorted by timestamp descending (newest first).
// If limit is 0 or negative, all entries are returned.
func (l *Log) List(limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		entry, err := l.readEntryFile(f.Name())
		if err != nil {
			// Skip files that can't be parsed
			continue
		}
		entries = append(entries, *entry)
	}

	// Sort by timestamp descending (newest first)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if entries == nil {
		entries = []Entry{}
	}

	return entries, nil
}

// Get retrieves a specific entry by ID.
func (l *Log) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		entry, err := l.readEntryFile(f.Name())
		if err != nil {
			continue
		}

		if entry.ID == id {
			return entry, nil
		}
	}

	return nil, fmt.Errorf("entry not found: %s", id)
}

// readEntryFile reads and parses a history entry from a JSON file.
func (l *Log) readEntryFile(filename string) (*Entry, error) {
	filePath := filepath.Join(l.dir, filename)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	return &entry, nil
}

// Cleanup removes entries older than retentionDays.
func (l *Log) Cleanup(retentionDays int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	files, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		filePath := filepath.Join(l.dir, f.Name())

		info, err := f.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filePath); err != nil {
				// Log error but continue cleanup
				continue
			}
		}
	}

	return nil
}
