// Package banlist tracks attachment ids that must never resurface in search
// results. Deletion is not transactional with indexing, so removed ids are
// banned here instead of being rewritten out of the persisted indices.
package banlist

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Set is a process-wide, monotonically growing exclusion set. It is safe for
// concurrent use; scans read an immutable Snapshot instead of sharing the
// live bitmap.
type Set struct {
	mu   sync.RWMutex
	bm   *roaring64.Bitmap
	path string // empty = in-memory only
}

// New returns an empty, non-persisted set.
func New() *Set {
	return &Set{bm: roaring64.New()}
}

// Open loads the set persisted at path, or starts empty when the file does
// not exist. An unreadable file degrades to an empty set with a warning:
// bans are best-effort across restarts, never a reason to refuse startup.
func Open(path string) *Set {
	s := &Set{bm: roaring64.New(), path: path}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("ban list unreadable, starting empty",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		return s
	}
	defer f.Close()

	if _, err := s.bm.ReadFrom(f); err != nil {
		slog.Warn("ban list corrupt, starting empty",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		s.bm = roaring64.New()
	}
	return s
}

// Add bans the given ids and persists the set when backed by a file. The
// in-memory set is updated even if persistence fails.
func (s *Set) Add(ids ...uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.bm.Add(id)
	}
	if s.path == "" {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return fmt.Errorf("persist ban list: %w", err)
	}
	return nil
}

// Contains reports whether id is banned.
func (s *Set) Contains(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bm.Contains(id)
}

// Len returns the number of banned ids.
func (s *Set) Len() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bm.GetCardinality()
}

// Snapshot returns an immutable copy for use inside concurrent scan tasks.
func (s *Set) Snapshot() *roaring64.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bm.Clone()
}

// flushLocked writes the bitmap to a temp file and renames it into place so
// a crash mid-write never corrupts the previous ban list.
func (s *Set) flushLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".bans-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := s.bm.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
