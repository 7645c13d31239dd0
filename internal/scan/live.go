package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/haystackfs/haystack/internal/matcher"
	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// Live crawls a channel's history directly, newest to oldest, matching
// attachments as it goes. It persists nothing.
type Live struct {
	provider  chat.Provider
	threshold int
	skipUser  chat.ID // the engine's own uploads are not searchable
}

// NewLive builds the live strategy. skipUser may be zero to disable the
// own-uploads filter.
func NewLive(p chat.Provider, threshold int, skipUser chat.ID) *Live {
	return &Live{provider: p, threshold: threshold, skipUser: skipUser}
}

// Scan walks history bounded by the channel's cursor (or the query's Before)
// and the query's After. It stops at the shared budget and records the
// timestamp of the last message it processed, so the next page resumes
// strictly before that point without skipping anything.
func (l *Live) Scan(ctx context.Context, ch chat.Channel, q *types.Query, sw *Sweep) *Result {
	res := &Result{Seen: make(map[uint64]struct{})}

	it, err := l.provider.History(ctx, ch, q.EffectiveBefore(uint64(ch.ID)), q.AfterBound())
	if err != nil {
		res.Err = fmt.Errorf("%w: channel %s: %v", types.ErrTransportFailure, ch.ID, err)
		return res
	}

	var last time.Time
	processed := false

	for {
		if sw.Full() {
			break
		}

		msg, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Err = fmt.Errorf("%w: channel %s: %v", types.ErrTransportFailure, ch.ID, err)
			slog.Warn("history walk aborted, keeping partial results",
				slog.String("channel", ch.ID.String()),
				slog.Int("records", len(res.Records)),
				slog.String("error", err.Error()),
			)
			break
		}

		last = msg.CreatedAt
		processed = true

		if l.skipUser != 0 && msg.Author.ID == l.skipUser {
			continue
		}

		for _, att := range msg.Attachments {
			rec := types.NewRecord(msg, att)
			if sw.Excluded(rec.ID) {
				continue
			}
			if _, dup := res.Seen[rec.ID]; dup {
				continue
			}
			if matcher.Matches(&rec, q, l.threshold) {
				sw.Take()
				res.accept(rec)
			}
		}
	}

	if processed {
		res.setCursor(last)
	}
	return res
}
