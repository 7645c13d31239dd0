package search

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// Backend is any surface that can answer a search: the local engine, or an
// adapter for an external service holding its own copy of the files.
type Backend interface {
	Search(ctx context.Context, identity chat.User, channels []chat.Channel, q *types.Query) (*types.ResultBundle, error)
}

// Multi fans one query across several backends and merges their bundles,
// deduplicating by record id in backend order. A failing backend is logged
// and skipped; the others still answer.
type Multi struct {
	backends []Backend
	cap      int
}

// NewMulti builds a multi-backend search capped at cap merged records.
func NewMulti(cap int, backends ...Backend) *Multi {
	return &Multi{backends: backends, cap: cap}
}

// Search queries every backend concurrently and merges in declaration order.
// Cursor maps merge with earlier backends winning per channel.
func (m *Multi) Search(ctx context.Context, identity chat.User, channels []chat.Channel, q *types.Query) (*types.ResultBundle, error) {
	bundles := make([]*types.ResultBundle, len(m.backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range m.backends {
		g.Go(func() error {
			bundle, err := b.Search(gctx, identity, channels, q)
			if err != nil {
				slog.Warn("backend search failed",
					slog.Int("backend", i),
					slog.String("error", err.Error()),
				)
				return nil
			}
			bundles[i] = bundle
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[uint64]struct{})
	cursors := make(map[uint64]time.Time)
	var merged []types.Record
	for _, bundle := range bundles {
		if bundle == nil {
			continue
		}
		for _, rec := range bundle.Records {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			merged = append(merged, rec)
		}
		for ch, ts := range bundle.ChannelDateMap {
			if _, ok := cursors[ch]; !ok {
				cursors[ch] = ts
			}
		}
	}
	if m.cap > 0 && len(merged) > m.cap {
		merged = merged[:m.cap]
	}

	out := &types.ResultBundle{Records: merged, ChannelDateMap: cursors}
	if out.Empty() {
		out.Message = NoFilesFound
	} else {
		out.Message = ResultsFound(len(merged))
	}
	return out, nil
}
