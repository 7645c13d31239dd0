// Package search orchestrates attachment searches: it fans a query out over
// the eligible channels, merges and ranks the per-channel results, and
// paginates via the per-channel cursors each page leaves behind.
package search

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haystackfs/haystack/internal/banlist"
	"github.com/haystackfs/haystack/internal/config"
	"github.com/haystackfs/haystack/internal/matcher"
	"github.com/haystackfs/haystack/internal/scan"
	"github.com/haystackfs/haystack/internal/store"
	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// Engine wires the scanner, the ban set, and the optional store together.
// All search state travels through explicit parameters; the engine itself
// holds only configuration and collaborators and is safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	scanner  scan.Scanner
	bans     *banlist.Set
	store    *store.Store  // nil in live-only deployments
	provider chat.Provider // nil skips permission pruning
}

// NewEngine builds a search engine. store and provider may be nil.
func NewEngine(cfg *config.Config, sc scan.Scanner, bans *banlist.Set, st *store.Store, p chat.Provider) *Engine {
	return &Engine{cfg: cfg, scanner: sc, bans: bans, store: st, provider: p}
}

// Search runs one page of a query over channels. Channels the identity cannot
// read are pruned, the rest are scanned concurrently under a bounded gate,
// and the per-channel results are merged in input channel order so repeated
// searches truncate deterministically. The returned bundle carries at most
// ResultCap records, ranked by match similarity when a text filter is set,
// plus the cursor map for the next page.
//
// Channel-local failures never abort the search; they are logged and the
// channel contributes whatever it gathered before failing.
func (e *Engine) Search(ctx context.Context, identity chat.User, channels []chat.Channel, q *types.Query) (*types.ResultBundle, error) {
	start := time.Now()

	eligible := e.eligibleChannels(identity, channels, q)

	sw := scan.NewSweep(e.bans.Snapshot(), e.cfg.ResultCap)
	results := make([]*scan.Result, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ConcurrentScans)
	for i, ch := range eligible {
		g.Go(func() error {
			results[i] = e.scanner.Scan(gctx, ch, q, sw)
			return nil
		})
	}
	// Scan errors travel inside each Result, never through the group.
	_ = g.Wait()

	// Cursors carry forward for channels this page did not touch.
	cursors := make(map[uint64]time.Time, len(eligible))
	for ch, ts := range q.ChannelDateMap {
		cursors[ch] = ts
	}

	seen := make(map[uint64]struct{})
	var merged []types.Record
	failed := 0
	for i, res := range results {
		if res == nil {
			continue
		}
		if res.Err != nil {
			failed++
			slog.Warn("channel scan failed",
				slog.String("channel", eligible[i].ID.String()),
				slog.String("error", res.Err.Error()),
			)
		}
		for _, rec := range res.Records {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			merged = append(merged, rec)
		}
		if res.HasCursor {
			cursors[uint64(eligible[i].ID)] = res.Cursor
		}
	}

	merged = e.rank(merged, q)
	if len(merged) > e.cfg.ResultCap {
		merged = merged[:e.cfg.ResultCap]
	}

	bundle := &types.ResultBundle{Records: merged, ChannelDateMap: cursors}
	if bundle.Empty() {
		bundle.Message = NoFilesFound
	} else {
		bundle.Message = ResultsFound(len(merged))
	}

	slog.Info("search completed",
		slog.Int("channels", len(eligible)),
		slog.Int("failed_channels", failed),
		slog.Int("records", len(merged)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return bundle, nil
}

// eligibleChannels prunes channels the query or the identity rules out
// before any scan is scheduled. The query's DM flag is a delivery
// preference, not an eligibility rule; DM scoping happens where the channel
// set is resolved.
func (e *Engine) eligibleChannels(identity chat.User, channels []chat.Channel, q *types.Query) []chat.Channel {
	out := make([]chat.Channel, 0, len(channels))
	for _, ch := range channels {
		if q.Channel != 0 && uint64(ch.ID) != q.Channel {
			continue
		}
		if e.provider != nil && !e.provider.CanReadHistory(identity, ch) {
			slog.Debug("skipping unreadable channel", slog.String("channel", ch.ID.String()))
			continue
		}
		out = append(out, ch)
	}
	return out
}

// rank orders records by match similarity when the query carries a text
// filter. The sort is stable, so equal scores keep the deterministic merge
// order and repeated searches truncate identically.
func (e *Engine) rank(recs []types.Record, q *types.Query) []types.Record {
	if q.Filename == "" && q.Content == "" {
		return recs
	}
	scores := make([]int, len(recs))
	for i := range recs {
		scores[i] = matcher.Score(&recs[i], q)
	}
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	out := make([]types.Record, len(recs))
	for i, j := range idx {
		out[i] = recs[j]
	}
	return out
}

// IndexMessage appends every attachment of msg to the channel's persisted
// index. This is the ingestion path for newly observed messages in indexed
// deployments; it is a no-op without a store or without attachments.
func (e *Engine) IndexMessage(msg *chat.Message) error {
	if e.store == nil || !msg.HasAttachments() {
		return nil
	}
	return e.store.Append(uint64(msg.GuildID), uint64(msg.ChannelID), types.RecordsFromMessage(msg))
}

// RemoveAttachments bans the given attachment ids. The ban takes effect for
// every search that starts after this call returns; index files are never
// rewritten.
func (e *Engine) RemoveAttachments(ids ...uint64) error {
	if err := e.bans.Add(ids...); err != nil {
		return err
	}
	slog.Info("attachments removed",
		slog.Int("count", len(ids)),
		slog.Uint64("banned_total", e.bans.Len()),
	)
	return nil
}
