//go:build !unix

package sync

// freeSpace is unavailable on this platform.
func freeSpace(path string) (int64, bool) {
	return 0, false
}
