package chat

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type sliceIterator struct {
	msgs []*Message
	pos  int
}

func (s *sliceIterator) Next(ctx context.Context) (*Message, error) {
	if s.pos >= len(s.msgs) {
		return nil, io.EOF
	}
	m := s.msgs[s.pos]
	s.pos++
	return m, nil
}

func TestRateLimitedPassesMessagesThrough(t *testing.T) {
	inner := &sliceIterator{msgs: []*Message{{ID: 1}, {ID: 2}}}
	it := RateLimited(inner, rate.NewLimiter(rate.Inf, 1))

	first, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ID(1), first.ID)

	second, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ID(2), second.ID)

	_, err = it.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestRateLimitedHonorsCancellation(t *testing.T) {
	// Burst of 1 at a very low rate: the second Next must block until the
	// context is cancelled.
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	it := RateLimited(&sliceIterator{msgs: []*Message{{ID: 1}, {ID: 2}}}, limiter)

	_, err := it.Next(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = it.Next(ctx)
	assert.Error(t, err)
}

type stubProvider struct {
	msgs []*Message
}

func (s *stubProvider) History(ctx context.Context, ch Channel, before, after *time.Time) (HistoryIterator, error) {
	return &sliceIterator{msgs: s.msgs}, nil
}

func (s *stubProvider) CanReadHistory(identity User, ch Channel) bool { return true }

func (s *stubProvider) Channels(ctx context.Context, guildID ID) ([]Channel, error) {
	return []Channel{{ID: 77, GuildID: guildID}}, nil
}

func TestThrottledProviderWrapsIterators(t *testing.T) {
	inner := &stubProvider{msgs: []*Message{{ID: 1}}}
	p := Throttled(inner, RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1})

	it, err := p.History(context.Background(), Channel{ID: 77}, nil, nil)
	require.NoError(t, err)

	m, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ID(1), m.ID)
	_, err = it.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	assert.True(t, p.CanReadHistory(User{}, Channel{ID: 77}))
	chans, err := p.Channels(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, chans, 1)
}

func TestNewLimiterDefaults(t *testing.T) {
	limiter := NewLimiter(RateLimitConfig{})
	assert.Equal(t, rate.Limit(DefaultRateLimit.RequestsPerSecond), limiter.Limit())
	assert.Equal(t, DefaultRateLimit.BurstSize, limiter.Burst())

	custom := NewLimiter(RateLimitConfig{RequestsPerSecond: 2, BurstSize: 4})
	assert.Equal(t, rate.Limit(2), custom.Limit())
	assert.Equal(t, 4, custom.Burst())
}
