// Package cache stores comparison reports in a Badger database so an
// unchanged root pair can be re-displayed without invoking the engine.
//
// A cached report is keyed by (left root, right root, options digest) and
// carries the modification times of both roots observed at scan time.
// Lookup is conservative: if either root's mtime has changed since the
// report was stored, the entry is treated as stale.
package cache

import (
	"errors"
	"os"
	"time"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// Cache provides high-level report caching.
type Cache struct {
	store *Store
}

// Open opens or creates a cache at the given path.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Lookup returns the cached report for a root pair and options digest,
// or nil when there is no entry or the entry is stale. A stale entry is
// deleted on the way out.
func (c *Cache) Lookup(left, right, digest string) (*types.ScanReport, error) {
	key := MakeKey(left, right, digest)

	entry, err := c.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if entry.Version != CacheVersion || rootChanged(left, entry.LeftMtime) || rootChanged(right, entry.RightMtime) {
		_ = c.store.Delete(key)
		return nil, nil
	}

	return &entry.Report, nil
}

// Store saves a report for a root pair. Root mtimes are captured now; a
// root that cannot be stated is recorded with mtime zero so it never
// validates as fresh.
func (c *Cache) Store(left, right, digest, engine string, report *types.ScanReport) error {
	entry := &CachedReport{
		Version:    CacheVersion,
		Report:     *report,
		Engine:     engine,
		CreatedAt:  time.Now().UnixNano(),
		LeftMtime:  rootMtime(left),
		RightMtime: rootMtime(right),
	}
	return c.store.Put(MakeKey(left, right, digest), entry)
}

// Invalidate removes all cached reports for a root pair.
func (c *Cache) Invalidate(left, right string) error {
	return c.store.DeletePrefix(MakeKeyPrefix(left, right))
}

// Clear removes all cached reports.
func (c *Cache) Clear() error {
	return c.store.DeletePrefix(nil)
}

func rootMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}

func rootChanged(path string, cachedMtime int64) bool {
	if cachedMtime == 0 {
		return true
	}
	return rootMtime(path) != cachedMtime
}
