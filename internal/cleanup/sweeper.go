package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bowerhall/autopost/internal/logger"
)

// Sweeper prunes stale files from the uploads directory. Failed downloads
// and drafts abandoned without a restart would otherwise accumulate
// forever.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	inUse  func(path string) bool
}

// NewSweeper builds a sweeper over dir. inUse reports whether a file is
// still referenced by a live draft; referenced files are never removed
// regardless of age.
func NewSweeper(dir string, maxAge time.Duration, inUse func(path string) bool) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge, inUse: inUse}
}

// Sweep removes unreferenced files older than maxAge and returns how many
// were deleted.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logger.Error("sweep failed", "dir", s.dir, "error", err)
		return 0
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if s.inUse(path) {
			continue
		}

		if err := os.Remove(path); err != nil {
			logger.Warn("could not remove stale upload", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("stale uploads removed", "dir", s.dir, "count", removed)
	}

	return removed
}
