// Package trash implements side-local soft deletion: instead of removing
// a file permanently, it is moved into a holding folder under the root
// being modified so a sync can be undone by hand.
package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the holding folder created under a sync root.
const DirName = ".duet_trash"

// Move relocates path into trashRoot, creating trashRoot if needed.
// Name collisions are resolved by appending _1, _2, ... before the
// extension. Moving a path that no longer exists is a no-op.
func Move(path, trashRoot string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}

	if err := os.MkdirAll(trashRoot, 0o755); err != nil {
		return fmt.Errorf("cannot create trash folder %q: %w", trashRoot, err)
	}

	target := filepath.Join(trashRoot, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		target = nextFree(trashRoot, filepath.Base(path))
	}

	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("cannot move %q to trash: %w", path, err)
	}
	return nil
}

// Remove permanently deletes a path, recursively for directories.
// Missing targets are a no-op.
func Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

// nextFree finds the first name_N variant not already present in the
// trash folder, keeping the extension at the end.
func nextFree(trashRoot, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem = name
		ext = ""
	}
	for i := 1; ; i++ {
		candidate := filepath.Join(trashRoot, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
