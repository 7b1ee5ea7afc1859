package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/duetcmp/duet/pkg/duet/types"
)

// CacheVersion is incremented when the cache format changes.
const CacheVersion = 2

// KeySeparator separates the key components in cache keys.
const KeySeparator = '\x00'

// CachedReport is a stored comparison result together with the root
// modification times observed when it was produced. The mtimes drive the
// staleness check on lookup.
type CachedReport struct {
	Version    int
	Report     types.ScanReport
	Engine     string
	CreatedAt  int64 // UnixNano
	LeftMtime  int64 // UnixNano of the left root when cached
	RightMtime int64 // UnixNano of the right root when cached
}

// Encode serializes the entry to bytes. The encoding is JSON: reports
// carry opaque per-format diff payloads (map[string]any with nested
// slices) that only JSON can round-trip.
func (r *CachedReport) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode deserializes bytes into the entry.
func (r *CachedReport) Decode(data []byte) error {
	return json.Unmarshal(data, r)
}

// OptionsDigest hashes a rendered engine flag list so reports produced
// with different options never collide.
func OptionsDigest(flags []string) string {
	sum := sha256.Sum256([]byte(strings.Join(flags, string(KeySeparator))))
	return hex.EncodeToString(sum[:])
}

// MakeKey creates a cache key from the compared roots and options digest.
// Format: <left>\x00<right>\x00<digest>
func MakeKey(left, right, digest string) []byte {
	return []byte(left + string(KeySeparator) + right + string(KeySeparator) + digest)
}

// MakeKeyPrefix returns the prefix for all keys of a root pair.
func MakeKeyPrefix(left, right string) []byte {
	return []byte(left + string(KeySeparator) + right + string(KeySeparator))
}

// ParseKey extracts the roots and digest from a cache key.
func ParseKey(key []byte) (left, right, digest string) {
	parts := bytes.SplitN(key, []byte{KeySeparator}, 3)
	if len(parts) > 0 {
		left = string(parts[0])
	}
	if len(parts) > 1 {
		right = string(parts[1])
	}
	if len(parts) > 2 {
		digest = string(parts[2])
	}
	return left, right, digest
}
