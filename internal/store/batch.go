package store

import "github.com/haystackfs/haystack/pkg/types"

// BatchWriter buffers records for one channel and flushes them to the store
// in fixed-size batches, bounding memory and file-handle churn during a full
// channel crawl. A crash loses at most the in-flight batch; flushed frames
// are never touched again.
type BatchWriter struct {
	store     *Store
	guildID   uint64
	channelID uint64
	size      int
	buf       []types.Record
}

// NewBatchWriter creates a writer flushing every size records.
func NewBatchWriter(s *Store, guildID, channelID uint64, size int) *BatchWriter {
	if size <= 0 {
		size = 1
	}
	return &BatchWriter{
		store:     s,
		guildID:   guildID,
		channelID: channelID,
		size:      size,
		buf:       make([]types.Record, 0, size),
	}
}

// Add buffers rec, flushing first if the buffer is full.
func (w *BatchWriter) Add(rec types.Record) error {
	if len(w.buf) >= w.size {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	w.buf = append(w.buf, rec)
	return nil
}

// Flush appends the buffered records and resets the buffer.
func (w *BatchWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.store.Append(w.guildID, w.channelID, w.buf); err != nil {
		return err
	}
	w.buf = w.buf[:0]
	return nil
}
