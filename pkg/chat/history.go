package chat

import (
	"context"
	"time"
)

// HistoryIterator yields a channel's messages newest-first. Next returns
// io.EOF once the history (within the requested bounds) is exhausted. An
// iterator is finite and single-use; resuming requires constructing a new
// one with tighter bounds.
type HistoryIterator interface {
	Next(ctx context.Context) (*Message, error)
}

// Provider is the platform surface the engine consumes. Before is exclusive
// and After inclusive-by-construction: History yields messages created
// strictly before the former and after the latter, newest-first. A nil bound
// means unbounded.
type Provider interface {
	History(ctx context.Context, ch Channel, before, after *time.Time) (HistoryIterator, error)

	// CanReadHistory reports whether identity may read ch's history. Channels
	// failing this check are pruned before scanning, never errored on.
	CanReadHistory(identity User, ch Channel) bool

	// Channels enumerates candidate channels for a guild-wide search.
	Channels(ctx context.Context, guildID ID) ([]Channel, error)
}
