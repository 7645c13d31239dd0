// Package cache provides caching utilities for the search engine.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haystackfs/haystack/pkg/types"
)

// RecordCache provides thread-safe LRU caching of decoded per-channel index
// slices, so repeat searches against the same channel skip the file read.
// Entries are invalidated on append; cached slices are treated as immutable
// by all readers.
type RecordCache struct {
	cache *lru.Cache[uint64, []types.Record]
}

// NewRecordCache creates an LRU cache holding up to maxChannels channels.
func NewRecordCache(maxChannels int) (*RecordCache, error) {
	c, err := lru.New[uint64, []types.Record](maxChannels)
	if err != nil {
		return nil, err
	}
	return &RecordCache{cache: c}, nil
}

// Get retrieves a channel's records. Returns the slice and true if cached.
func (c *RecordCache) Get(channelID uint64) ([]types.Record, bool) {
	return c.cache.Get(channelID)
}

// Put stores a channel's records.
func (c *RecordCache) Put(channelID uint64, recs []types.Record) {
	c.cache.Add(channelID, recs)
}

// Invalidate drops a channel's cached records, typically after an append.
func (c *RecordCache) Invalidate(channelID uint64) {
	c.cache.Remove(channelID)
}

// Len returns the number of cached channels.
func (c *RecordCache) Len() int {
	return c.cache.Len()
}
