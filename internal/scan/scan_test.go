package scan

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/haystackfs/haystack/pkg/chat"
)

// fakeProvider serves canned newest-first histories and counts how often a
// channel's history is opened.
type fakeProvider struct {
	history map[chat.ID][]*chat.Message

	failOpen  bool // History returns an error
	failAfter int  // iterator errors after yielding this many messages, 0 = never

	mu    sync.Mutex
	opens int
}

func (p *fakeProvider) History(ctx context.Context, ch chat.Channel, before, after *time.Time) (chat.HistoryIterator, error) {
	if p.failOpen {
		return nil, errors.New("gateway down")
	}
	p.mu.Lock()
	p.opens++
	p.mu.Unlock()

	var out []*chat.Message
	for _, m := range p.history[ch.ID] {
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		if after != nil && !m.CreatedAt.After(*after) {
			continue
		}
		out = append(out, m)
	}
	return &fakeIterator{msgs: out, failAfter: p.failAfter}, nil
}

func (p *fakeProvider) CanReadHistory(identity chat.User, ch chat.Channel) bool { return true }

func (p *fakeProvider) Channels(ctx context.Context, guildID chat.ID) ([]chat.Channel, error) {
	var out []chat.Channel
	for id := range p.history {
		out = append(out, chat.Channel{ID: id, GuildID: guildID})
	}
	return out, nil
}

func (p *fakeProvider) historyOpens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

type fakeIterator struct {
	msgs      []*chat.Message
	pos       int
	failAfter int
}

func (it *fakeIterator) Next(ctx context.Context) (*chat.Message, error) {
	if it.failAfter > 0 && it.pos >= it.failAfter {
		return nil, errors.New("connection reset")
	}
	if it.pos >= len(it.msgs) {
		return nil, io.EOF
	}
	m := it.msgs[it.pos]
	it.pos++
	return m, nil
}

// msg builds a message whose attachment ids derive from the message id.
func msg(id uint64, author uint64, created time.Time, files ...string) *chat.Message {
	m := &chat.Message{
		ID:        chat.ID(id),
		ChannelID: 77,
		GuildID:   5,
		Author:    chat.User{ID: chat.ID(author), Name: "someone"},
		Content:   "message " + chat.ID(id).String(),
		Permalink: "https://chat.example/5/77/" + chat.ID(id).String(),
		CreatedAt: created,
	}
	for i, f := range files {
		m.Attachments = append(m.Attachments, chat.Attachment{
			ID:       chat.ID(id*10 + uint64(i)),
			Filename: f,
			URL:      "https://cdn.example/" + f,
		})
	}
	return m
}
