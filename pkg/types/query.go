package types

import (
	"time"

	"github.com/araddon/dateparse"
)

// QueryParams is the raw, unvalidated input to NewQuery. After and Before
// accept most year-month-day hour-minute-second formats.
type QueryParams struct {
	Filename       string
	Content        string
	Filetype       string
	CustomFiletype string
	Author         uint64
	Channel        uint64
	After          string
	Before         string
	DM             bool
}

// Query is a normalized, validated search request. Construct it with
// NewQuery; the filter fields are immutable afterwards. ChannelDateMap is
// the one mutable part: the per-channel pagination cursors recorded by each
// search and fed back in for the next page.
type Query struct {
	Filename       string
	Content        string
	Filetype       string
	CustomFiletype string
	Author         uint64 // 0 = unset
	Channel        uint64 // 0 = unset
	After          time.Time
	Before         time.Time
	DM             bool

	// ChannelDateMap maps channel id to its resume cursor. A channel is
	// absent until it has been scanned at least once.
	ChannelDateMap map[uint64]time.Time
}

// NewQuery validates p and normalizes its date bounds. A raw Before date
// becomes end-of-day and a raw After becomes just before start-of-day, so a
// whole-day query is inclusive on both ends. An unparseable date string
// yields ErrMalformedDate; the query is never partially constructed.
func NewQuery(p QueryParams) (*Query, error) {
	q := &Query{
		Filename:       p.Filename,
		Content:        p.Content,
		Filetype:       p.Filetype,
		CustomFiletype: p.CustomFiletype,
		Author:         p.Author,
		Channel:        p.Channel,
		DM:             p.DM,
		ChannelDateMap: make(map[uint64]time.Time),
	}

	if p.Before != "" {
		t, err := dateparse.ParseAny(p.Before)
		if err != nil {
			return nil, &MalformedDateError{Input: p.Before}
		}
		q.Before = endOfDay(t)
	}
	if p.After != "" {
		t, err := dateparse.ParseAny(p.After)
		if err != nil {
			return nil, &MalformedDateError{Input: p.After}
		}
		q.After = startOfDay(t).Add(-time.Microsecond)
	}
	return q, nil
}

// HasFilters reports whether any filter field is set. A query with no
// filters matches every record.
func (q *Query) HasFilters() bool {
	return q.Filename != "" || q.Content != "" || q.Filetype != "" ||
		q.CustomFiletype != "" || q.Author != 0 || q.Channel != 0 ||
		!q.After.IsZero() || !q.Before.IsZero()
}

// WithCursors returns a copy of q carrying cursors as its ChannelDateMap.
// The filter fields are shared; the map is copied so pages do not alias.
func (q *Query) WithCursors(cursors map[uint64]time.Time) *Query {
	next := *q
	next.ChannelDateMap = make(map[uint64]time.Time, len(cursors))
	for ch, ts := range cursors {
		next.ChannelDateMap[ch] = ts
	}
	return &next
}

// EffectiveBefore resolves the upper history bound for one channel: the
// channel's cursor when present, otherwise the query-wide Before. Returns
// nil when unbounded.
func (q *Query) EffectiveBefore(channelID uint64) *time.Time {
	if cur, ok := q.ChannelDateMap[channelID]; ok && !cur.IsZero() {
		t := cur
		return &t
	}
	if !q.Before.IsZero() {
		t := q.Before
		return &t
	}
	return nil
}

// AfterBound returns the query-wide lower bound, or nil when unbounded.
func (q *Query) AfterBound() *time.Time {
	if q.After.IsZero() {
		return nil
	}
	t := q.After
	return &t
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Microsecond)
}
