// Package store persists per-channel attachment records as append-only
// msgpack files. Each record is one self-describing frame, so a reader can
// recover everything written before a truncated tail. Files are never
// rewritten in place; logical deletion happens in the ban list.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haystackfs/haystack/internal/cache"
	"github.com/haystackfs/haystack/pkg/types"
)

const (
	indexExt      = ".msgpack"
	watermarkFile = "last_indexed"
)

// Store maps channel ids (namespaced by guild id) to append-only record
// files under a root directory. Appends are serialized per file but run
// concurrently across files.
type Store struct {
	dir   string
	cache *cache.RecordCache

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	wmMu sync.Mutex
}

// Open prepares a store rooted at dir. The cache is optional.
func Open(dir string, c *cache.RecordCache) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Store{dir: dir, cache: c, locks: make(map[string]*sync.Mutex)}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the index file path for a channel. Guild channels are
// namespaced under their guild id; direct-message channels sit at the root.
func (s *Store) Path(guildID, channelID uint64) string {
	name := strconv.FormatUint(channelID, 10) + indexExt
	if guildID != 0 {
		return filepath.Join(s.dir, strconv.FormatUint(guildID, 10), name)
	}
	return filepath.Join(s.dir, name)
}

// Exists reports whether a channel has been indexed at least once.
func (s *Store) Exists(guildID, channelID uint64) bool {
	_, err := os.Stat(s.Path(guildID, channelID))
	return err == nil
}

// Load reads every recoverable record from a channel's index, preserving
// file order. A missing or unreadable index yields ErrIndexUnavailable; a
// truncated final frame is dropped and the records before it are returned.
func (s *Store) Load(guildID, channelID uint64) ([]types.Record, error) {
	if s.cache != nil {
		if recs, ok := s.cache.Get(channelID); ok {
			return recs, nil
		}
	}

	path := s.Path(guildID, channelID)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrIndexUnavailable, path)
	}
	defer f.Close()

	var recs []types.Record
	dec := msgpack.NewDecoder(f)
	for {
		var rec types.Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(recs) == 0 {
				return nil, fmt.Errorf("%w: %s: %v", types.ErrIndexUnavailable, path, err)
			}
			// Truncated or torn tail frame: everything before it is intact.
			slog.Warn("dropping unreadable index tail",
				slog.String("path", path),
				slog.Int("recovered", len(recs)),
				slog.String("error", err.Error()),
			)
			break
		}
		recs = append(recs, rec)
	}

	if s.cache != nil {
		s.cache.Put(channelID, recs)
	}
	return recs, nil
}

// Append writes recs to a channel's index as individual frames. One writer
// per file at a time; the channel's cache entry is invalidated.
func (s *Store) Append(guildID, channelID uint64, recs []types.Record) error {
	if len(recs) == 0 {
		return nil
	}

	path := s.Path(guildID, channelID)
	lock := s.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create guild dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open index %s: %w", path, err)
	}

	enc := msgpack.NewEncoder(f)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			f.Close()
			return fmt.Errorf("append to index %s: %w", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index %s: %w", path, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(channelID)
	}
	return nil
}

// Remove deletes a channel's index file and cache entry. Removing a channel
// that was never indexed is not an error. The next scan of the channel
// triggers a fresh build.
func (s *Store) Remove(guildID, channelID uint64) error {
	path := s.Path(guildID, channelID)
	lock := s.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove index %s: %w", path, err)
	}
	if s.cache != nil {
		s.cache.Invalidate(channelID)
	}
	return nil
}

// Channels lists every indexed (guildID, channelID) pair.
func (s *Store) Channels() ([][2]uint64, error) {
	var out [][2]uint64

	walk := func(guildID uint64, dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), indexExt) {
				continue
			}
			id, err := strconv.ParseUint(strings.TrimSuffix(e.Name(), indexExt), 10, 64)
			if err != nil {
				continue
			}
			out = append(out, [2]uint64{guildID, id})
		}
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			guildID, err := strconv.ParseUint(e.Name(), 10, 64)
			if err != nil {
				continue
			}
			if err := walk(guildID, filepath.Join(s.dir, e.Name())); err != nil {
				return nil, err
			}
		}
	}
	if err := walk(0, s.dir); err != nil {
		return nil, err
	}
	return out, nil
}

// LastIndexed returns the store-level watermark, zero when never set. The
// watermark is informational (freshness reporting), not a correctness gate.
func (s *Store) LastIndexed() time.Time {
	s.wmMu.Lock()
	defer s.wmMu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, watermarkFile))
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}
	}
	return t
}

// SetLastIndexed records the watermark. Called only after a full successful
// channel crawl.
func (s *Store) SetLastIndexed(t time.Time) error {
	s.wmMu.Lock()
	defer s.wmMu.Unlock()

	path := filepath.Join(s.dir, watermarkFile)
	return os.WriteFile(path, []byte(t.UTC().Format(time.RFC3339Nano)+"\n"), 0644)
}

func (s *Store) fileLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}
