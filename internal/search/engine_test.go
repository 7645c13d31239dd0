package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haystackfs/haystack/internal/banlist"
	"github.com/haystackfs/haystack/internal/config"
	"github.com/haystackfs/haystack/internal/scan"
	"github.com/haystackfs/haystack/internal/store"
	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// fakeScanner replays canned per-channel results and records which channels
// were scanned.
type fakeScanner struct {
	results map[chat.ID]*scan.Result

	mu      sync.Mutex
	scanned []chat.ID
}

func (f *fakeScanner) Scan(ctx context.Context, ch chat.Channel, q *types.Query, sw *scan.Sweep) *scan.Result {
	f.mu.Lock()
	f.scanned = append(f.scanned, ch.ID)
	f.mu.Unlock()

	r, ok := f.results[ch.ID]
	if !ok {
		return &scan.Result{Seen: make(map[uint64]struct{})}
	}
	// Honor the ban snapshot the way real scanners do.
	out := &scan.Result{Seen: make(map[uint64]struct{}), Cursor: r.Cursor, HasCursor: r.HasCursor, Err: r.Err}
	for _, rec := range r.Records {
		if sw.Excluded(rec.ID) {
			continue
		}
		out.Records = append(out.Records, rec)
		out.Seen[rec.ID] = struct{}{}
	}
	return out
}

func (f *fakeScanner) scannedChannels() []chat.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.ID(nil), f.scanned...)
}

// permProvider only answers permission checks.
type permProvider struct{ denied map[chat.ID]bool }

func (p *permProvider) History(ctx context.Context, ch chat.Channel, before, after *time.Time) (chat.HistoryIterator, error) {
	return nil, errors.New("not a history provider")
}

func (p *permProvider) CanReadHistory(identity chat.User, ch chat.Channel) bool {
	return !p.denied[ch.ID]
}

func (p *permProvider) Channels(ctx context.Context, guildID chat.ID) ([]chat.Channel, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MatchThreshold:  config.DefaultMatchThreshold,
		ResultCap:       config.DefaultResultCap,
		ConcurrentScans: 4,
	}
}

func srec(id uint64, name string, channel uint64, created time.Time) types.Record {
	return types.Record{
		ID:        id,
		AuthorID:  42,
		Filename:  name,
		Filetype:  "pdf",
		ChannelID: channel,
		CreatedAt: created,
	}
}

func scanResult(cursor time.Time, recs ...types.Record) *scan.Result {
	res := &scan.Result{Records: recs, Seen: make(map[uint64]struct{})}
	for _, r := range recs {
		res.Seen[r.ID] = struct{}{}
	}
	if !cursor.IsZero() {
		res.Cursor = cursor
		res.HasCursor = true
	}
	return res
}

func chans(ids ...uint64) []chat.Channel {
	out := make([]chat.Channel, 0, len(ids))
	for _, id := range ids {
		out = append(out, chat.Channel{ID: chat.ID(id), GuildID: 5})
	}
	return out
}

func emptyQuery(t *testing.T) *types.Query {
	t.Helper()
	q, err := types.NewQuery(types.QueryParams{})
	require.NoError(t, err)
	return q
}

func TestSearchMergesInChannelOrderAndDedups(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := &fakeScanner{results: map[chat.ID]*scan.Result{
		10: scanResult(base, srec(1, "a.pdf", 10, base), srec(2, "b.pdf", 10, base)),
		// Record 2 was cross-posted; the copy from the later channel loses.
		20: scanResult(base, srec(2, "b.pdf", 20, base), srec(3, "c.pdf", 20, base)),
	}}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, nil)

	bundle, err := e.Search(context.Background(), chat.User{}, chans(10, 20), emptyQuery(t))
	require.NoError(t, err)
	require.Len(t, bundle.Records, 3)
	assert.Equal(t, uint64(1), bundle.Records[0].ID)
	assert.Equal(t, uint64(2), bundle.Records[1].ID)
	assert.Equal(t, uint64(10), bundle.Records[1].ChannelID)
	assert.Equal(t, uint64(3), bundle.Records[2].ID)
	assert.Equal(t, ResultsFound(3), bundle.Message)
}

func TestSearchRanksByFilenameSimilarity(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := &fakeScanner{results: map[chat.ID]*scan.Result{
		10: scanResult(base,
			srec(1, "unrelated_notes.bin", 10, base),
			srec(2, "report.pdf", 10, base),
		),
	}}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, nil)

	q, err := types.NewQuery(types.QueryParams{Filename: "report"})
	require.NoError(t, err)
	bundle, err := e.Search(context.Background(), chat.User{}, chans(10), q)
	require.NoError(t, err)
	require.Len(t, bundle.Records, 2)
	assert.Equal(t, "report.pdf", bundle.Records[0].Filename)
}

func TestSearchEnforcesResultCap(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	var recs []types.Record
	for i := uint64(1); i <= 40; i++ {
		recs = append(recs, srec(i, "f.pdf", 10, base))
	}
	sc := &fakeScanner{results: map[chat.ID]*scan.Result{10: scanResult(base, recs...)}}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, nil)

	bundle, err := e.Search(context.Background(), chat.User{}, chans(10), emptyQuery(t))
	require.NoError(t, err)
	assert.Len(t, bundle.Records, config.DefaultResultCap)
}

func TestSearchPrunesUnreadableChannels(t *testing.T) {
	sc := &fakeScanner{}
	p := &permProvider{denied: map[chat.ID]bool{20: true}}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, p)

	_, err := e.Search(context.Background(), chat.User{}, chans(10, 20), emptyQuery(t))
	require.NoError(t, err)
	assert.Equal(t, []chat.ID{10}, sc.scannedChannels())
}

func TestSearchHonorsChannelFilter(t *testing.T) {
	sc := &fakeScanner{}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, nil)

	q := emptyQuery(t)
	q.Channel = 20
	_, err := e.Search(context.Background(), chat.User{}, chans(10, 20, 30), q)
	require.NoError(t, err)
	assert.Equal(t, []chat.ID{20}, sc.scannedChannels())
}

func TestSearchDMPreferenceDoesNotFilter(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := &fakeScanner{results: map[chat.ID]*scan.Result{
		10: scanResult(base, srec(1, "found.pdf", 10, base)),
	}}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, nil)

	// The dm flag says where to deliver the results, not where to look:
	// a dm=true query over guild channels still scans them.
	q, err := types.NewQuery(types.QueryParams{DM: true})
	require.NoError(t, err)
	bundle, err := e.Search(context.Background(), chat.User{}, chans(10), q)
	require.NoError(t, err)
	require.Len(t, bundle.Records, 1)
	assert.Equal(t, "found.pdf", bundle.Records[0].Filename)
}

func TestSearchCapsAcrossChannelsAndKeepsBothCursors(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)

	// Two channels, each holding enough matches to fill the cap on its own.
	var a, b []types.Record
	for i := uint64(0); i < 20; i++ {
		a = append(a, srec(100+i, "design_doc.pdf", 77, base.Add(-time.Duration(i)*time.Minute)))
		b = append(b, srec(200+i, "design_plan.pdf", 78, base.Add(-time.Duration(i)*time.Minute)))
	}
	require.NoError(t, s.Append(5, 77, a))
	require.NoError(t, s.Append(5, 78, b))

	sc := scan.NewIndexed(s, nil, config.DefaultMatchThreshold, config.DefaultWriteBuffer, 0)
	e := NewEngine(testConfig(), sc, banlist.New(), s, nil)

	bundle, err := e.Search(context.Background(), chat.User{}, chans(77, 78), emptyQuery(t))
	require.NoError(t, err)
	assert.Len(t, bundle.Records, config.DefaultResultCap)

	// Every scanned channel leaves a resume point, whether it stopped at
	// the cap or ran out of records.
	_, okA := bundle.ChannelDateMap[77]
	_, okB := bundle.ChannelDateMap[78]
	assert.True(t, okA, "channel 77 left no cursor")
	assert.True(t, okB, "channel 78 left no cursor")
}

func TestSearchIsolatesFailedChannels(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	partial := scanResult(base, srec(1, "partial.pdf", 10, base))
	partial.Err = types.ErrTransportFailure
	sc := &fakeScanner{results: map[chat.ID]*scan.Result{
		10: partial,
		20: scanResult(base, srec(2, "fine.pdf", 20, base)),
	}}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, nil)

	bundle, err := e.Search(context.Background(), chat.User{}, chans(10, 20), emptyQuery(t))
	require.NoError(t, err)
	// The failed channel still contributes what it gathered before failing.
	assert.Len(t, bundle.Records, 2)
}

func TestSearchEmptyBundleMessage(t *testing.T) {
	e := NewEngine(testConfig(), &fakeScanner{}, banlist.New(), nil, nil)

	bundle, err := e.Search(context.Background(), chat.User{}, chans(10), emptyQuery(t))
	require.NoError(t, err)
	assert.True(t, bundle.Empty())
	assert.Equal(t, NoFilesFound, bundle.Message)
}

func TestSearchRecordsCursors(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	sc := &fakeScanner{results: map[chat.ID]*scan.Result{
		10: scanResult(base, srec(1, "a.pdf", 10, base)),
	}}
	e := NewEngine(testConfig(), sc, banlist.New(), nil, nil)

	q := emptyQuery(t)
	// A cursor from a previous page over a channel not in this pass.
	q.ChannelDateMap[99] = base.Add(-time.Hour)

	bundle, err := e.Search(context.Background(), chat.User{}, chans(10), q)
	require.NoError(t, err)
	assert.True(t, bundle.ChannelDateMap[10].Equal(base))
	assert.True(t, bundle.ChannelDateMap[99].Equal(base.Add(-time.Hour)))
}

func TestSearchExcludesBannedRecords(t *testing.T) {
	base := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	bans := banlist.New()
	require.NoError(t, bans.Add(7))

	sc := &fakeScanner{results: map[chat.ID]*scan.Result{
		10: scanResult(base, srec(7, "banned.pdf", 10, base), srec(1, "kept.pdf", 10, base)),
	}}
	e := NewEngine(testConfig(), sc, bans, nil, nil)

	bundle, err := e.Search(context.Background(), chat.User{}, chans(10), emptyQuery(t))
	require.NoError(t, err)
	require.Len(t, bundle.Records, 1)
	assert.Equal(t, "kept.pdf", bundle.Records[0].Filename)
}

func TestRemoveAttachments(t *testing.T) {
	bans := banlist.New()
	e := NewEngine(testConfig(), &fakeScanner{}, bans, nil, nil)

	require.NoError(t, e.RemoveAttachments(3, 4))
	assert.True(t, bans.Contains(3))
	assert.True(t, bans.Contains(4))
	assert.Equal(t, uint64(2), bans.Len())
}
