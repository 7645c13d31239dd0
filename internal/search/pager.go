package search

import (
	"context"
	"time"

	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// Pager steps through the pages of one search. Each page is a fresh engine
// pass whose channel cursors come from the page before it, so no record
// appears on two pages. A Pager is not safe for concurrent use; paging is
// inherently sequential.
type Pager struct {
	engine   Backend
	identity chat.User
	channels []chat.Channel
	query    *types.Query

	page    int
	cursors map[uint64]time.Time
}

// NewPager prepares pagination for one query over a fixed channel set.
func NewPager(b Backend, identity chat.User, channels []chat.Channel, q *types.Query) *Pager {
	return &Pager{
		engine:   b,
		identity: identity,
		channels: channels,
		query:    q,
		cursors:  q.ChannelDateMap,
	}
}

// Page returns the number of pages served so far.
func (p *Pager) Page() int { return p.page }

// FirstPage runs the initial search. An empty first page is a normal bundle
// carrying the no-results message, not an error.
func (p *Pager) FirstPage(ctx context.Context) (*types.ResultBundle, error) {
	return p.advance(ctx, false)
}

// NextPage resumes from the previous page's cursors. When the continuation
// comes back empty it returns ErrNoMoreResults and leaves the page counter
// and cursors untouched, so the caller can retry after new uploads land.
func (p *Pager) NextPage(ctx context.Context) (*types.ResultBundle, error) {
	return p.advance(ctx, true)
}

func (p *Pager) advance(ctx context.Context, continuation bool) (*types.ResultBundle, error) {
	q := p.query.WithCursors(p.cursors)
	bundle, err := p.engine.Search(ctx, p.identity, p.channels, q)
	if err != nil {
		return nil, err
	}
	if continuation && bundle.Empty() {
		return nil, types.ErrNoMoreResults
	}
	p.cursors = bundle.ChannelDateMap
	p.page++
	return bundle, nil
}
