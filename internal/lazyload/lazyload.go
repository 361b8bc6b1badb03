// Package lazyload resolves the on-disk location of observation payloads
// that are stored outside the archive itself (camera frames, intensity
// rasters and other bulk blobs referenced by relative path). The base
// directory is process-wide state set once at startup, defaulting to ".".
package lazyload

import (
	"path/filepath"
	"sync"
)

var (
	mu   sync.RWMutex
	base = "."
)

// BasePath returns the current base directory for relative payload paths.
func BasePath() string {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// SetBasePath changes the base directory used by AbsolutePath. An empty
// path resets to ".".
func SetBasePath(path string) {
	if path == "" {
		path = "."
	}
	mu.Lock()
	base = path
	mu.Unlock()
}

// AbsolutePath resolves a possibly-relative payload path against the base
// directory. Absolute inputs are returned unchanged.
func AbsolutePath(relativeOrAbsolute string) string {
	if filepath.IsAbs(relativeOrAbsolute) {
		return relativeOrAbsolute
	}
	return filepath.Join(BasePath(), relativeOrAbsolute)
}
