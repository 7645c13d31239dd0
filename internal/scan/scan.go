// Package scan produces records for one channel at a time, either by
// crawling live history or by reading a persisted index. Both strategies sit
// behind the Scanner interface; the orchestrator picks one per deployment.
package scan

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// Scanner is one channel-scoped pass for a query. Implementations never
// return a nil Result; channel-local failures travel in Result.Err so one
// channel's trouble cannot abort its siblings.
type Scanner interface {
	Scan(ctx context.Context, ch chat.Channel, q *types.Query, sw *Sweep) *Result
}

// Result is what one channel scan produced.
type Result struct {
	// Records in the order discovered (chronological, newest first).
	Records []types.Record

	// Seen holds every record id this scan accepted, for cross-channel
	// deduplication in the merge step.
	Seen map[uint64]struct{}

	// Cursor is the channel's resume point when HasCursor is set: the next
	// page scans strictly before this timestamp. Set both when the scan
	// stopped at the cap and when it exhausted the history (resuming then
	// yields nothing new).
	Cursor    time.Time
	HasCursor bool

	// Err marks a partial scan: ErrTransportFailure with whatever records
	// were gathered before the failure, or ErrIndexUnavailable with none.
	Err error
}

func (r *Result) setCursor(t time.Time) {
	r.Cursor = t
	r.HasCursor = true
}

func (r *Result) accept(rec types.Record) {
	r.Records = append(r.Records, rec)
	r.Seen[rec.ID] = struct{}{}
}

// Sweep carries the state shared by every scan task of one search attempt:
// the banned-id snapshot and the global admission budget. Scans stop taking
// new messages once the budget is spent; the merge step does the final
// truncation. Safe for concurrent use.
type Sweep struct {
	banned *roaring64.Bitmap
	cap    int64
	count  atomic.Int64
}

// NewSweep builds a sweep with the given exclusion snapshot and result cap.
func NewSweep(banned *roaring64.Bitmap, cap int) *Sweep {
	return &Sweep{banned: banned, cap: int64(cap)}
}

// Full reports whether the global budget is spent.
func (s *Sweep) Full() bool { return s.count.Load() >= s.cap }

// Take consumes one admission slot. Scans call it per accepted record; the
// check happens at message boundaries, so a message's final attachments may
// overshoot by a few (trimmed after ranking).
func (s *Sweep) Take() { s.count.Add(1) }

// Excluded reports whether id is on the ban snapshot.
func (s *Sweep) Excluded(id uint64) bool {
	return s.banned != nil && s.banned.Contains(id)
}
