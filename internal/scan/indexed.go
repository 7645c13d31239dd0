package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/haystackfs/haystack/internal/matcher"
	"github.com/haystackfs/haystack/internal/store"
	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// Indexed serves scans from the persisted per-channel index. The first touch
// of a channel triggers one full backward crawl to build its index; after
// that, searches never hit the network. New attachments reach the index via
// the ingestion path appending to the same file.
type Indexed struct {
	store     *store.Store
	provider  chat.Provider // nil = offline deployment, no first-touch builds
	threshold int
	batchSize int
	skipUser  chat.ID

	builds singleflight.Group
}

// NewIndexed builds the indexed strategy. provider may be nil for offline
// deployments that only search indices built elsewhere.
func NewIndexed(s *store.Store, p chat.Provider, threshold, batchSize int, skipUser chat.ID) *Indexed {
	return &Indexed{
		store:     s,
		provider:  p,
		threshold: threshold,
		batchSize: batchSize,
		skipUser:  skipUser,
	}
}

// Scan matches the channel's persisted records against q, honoring the
// channel cursor and the shared budget exactly like the live strategy.
func (x *Indexed) Scan(ctx context.Context, ch chat.Channel, q *types.Query, sw *Sweep) *Result {
	res := &Result{Seen: make(map[uint64]struct{})}
	guildID, channelID := uint64(ch.GuildID), uint64(ch.ID)

	if !x.store.Exists(guildID, channelID) {
		if x.provider == nil {
			res.Err = fmt.Errorf("%w: channel %s never indexed", types.ErrIndexUnavailable, ch.ID)
			return res
		}
		if err := x.buildIndex(ctx, ch); err != nil {
			res.Err = err
			slog.Warn("index build failed",
				slog.String("channel", ch.ID.String()),
				slog.String("error", err.Error()),
			)
			return res
		}
	}

	recs, err := x.store.Load(guildID, channelID)
	if err != nil {
		res.Err = err
		return res
	}

	cursor, hasCursor := q.ChannelDateMap[channelID]

	var last, oldest time.Time
	processed := false

	for i := range recs {
		rec := recs[i]

		// The resume cursor is strictly exclusive; the query's own Before
		// and After stay inclusive and are applied by the matcher.
		if hasCursor && !rec.CreatedAt.Before(cursor) {
			continue
		}

		// Budget checks happen at message boundaries so attachments of one
		// message never straddle two pages.
		if sw.Full() && !rec.CreatedAt.Equal(last) {
			if processed {
				res.setCursor(last)
			}
			return res
		}

		last = rec.CreatedAt
		if !processed || rec.CreatedAt.Before(oldest) {
			oldest = rec.CreatedAt
		}
		processed = true

		if x.skipUser != 0 && rec.AuthorID == uint64(x.skipUser) {
			continue
		}
		if sw.Excluded(rec.ID) {
			continue
		}
		if _, dup := res.Seen[rec.ID]; dup {
			continue
		}
		if matcher.Matches(&rec, q, x.threshold) {
			sw.Take()
			res.accept(rec)
		}
	}

	if processed {
		res.setCursor(oldest)
	}
	return res
}

// buildIndex performs the one-time full crawl for a channel, deduplicated so
// concurrent first touches of the same channel crawl once. Writes go through
// a bounded batch writer; the store watermark moves only after the whole
// crawl succeeds.
func (x *Indexed) buildIndex(ctx context.Context, ch chat.Channel) error {
	path := x.store.Path(uint64(ch.GuildID), uint64(ch.ID))
	_, err, _ := x.builds.Do(path, func() (any, error) {
		return nil, x.doBuild(ctx, ch)
	})
	return err
}

func (x *Indexed) doBuild(ctx context.Context, ch chat.Channel) error {
	start := time.Now()
	guildID, channelID := uint64(ch.GuildID), uint64(ch.ID)

	total, err := x.crawl(ctx, ch)
	if err != nil {
		// Discard anything partially written so the next touch rebuilds
		// from scratch instead of serving a torn index.
		if rmErr := x.store.Remove(guildID, channelID); rmErr != nil {
			slog.Warn("failed to discard partial index",
				slog.String("channel", ch.ID.String()),
				slog.String("error", rmErr.Error()),
			)
		}
		return err
	}

	if err := x.store.SetLastIndexed(time.Now()); err != nil {
		slog.Warn("failed to update index watermark", slog.String("error", err.Error()))
	}

	slog.Info("channel indexed",
		slog.String("channel", ch.ID.String()),
		slog.Int("records", total),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

func (x *Indexed) crawl(ctx context.Context, ch chat.Channel) (int, error) {
	it, err := x.provider.History(ctx, ch, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: channel %s: %v", types.ErrTransportFailure, ch.ID, err)
	}

	w := store.NewBatchWriter(x.store, uint64(ch.GuildID), uint64(ch.ID), x.batchSize)
	seen := make(map[uint64]struct{})
	total := 0

	for {
		msg, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("%w: channel %s: %v", types.ErrTransportFailure, ch.ID, err)
		}
		if x.skipUser != 0 && msg.Author.ID == x.skipUser {
			continue
		}
		for _, att := range msg.Attachments {
			rec := types.NewRecord(msg, att)
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			if err := w.Add(rec); err != nil {
				return total, err
			}
			total++
		}
	}

	if err := w.Flush(); err != nil {
		return total, err
	}
	return total, nil
}
