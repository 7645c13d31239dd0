package tools

import (
	"context"

	"github.com/haystackfs/haystack/internal/banlist"
	"github.com/haystackfs/haystack/internal/config"
	"github.com/haystackfs/haystack/internal/jq"
	"github.com/haystackfs/haystack/internal/search"
	"github.com/haystackfs/haystack/internal/store"
	"github.com/haystackfs/haystack/pkg/chat"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config   *config.Config
	Engine   *search.Engine
	Store    *store.Store
	Bans     *banlist.Set
	JQ       *jq.Engine
	Provider chat.Provider // nil = offline, channels come from the store
	Pagers   *PagerRegistry
}

// CandidateChannels resolves the channel set a search fans out over: the
// platform's channel list when a provider is connected, otherwise every
// channel with a persisted index. Guild-less index files are direct-message
// channels. dm selects the direct-message scope instead of guild channels;
// it narrows the candidate set here and nowhere else.
func (d *Deps) CandidateChannels(ctx context.Context, guildID uint64, dm bool) ([]chat.Channel, error) {
	if d.Provider != nil {
		all, err := d.Provider.Channels(ctx, chat.ID(guildID))
		if err != nil {
			return nil, err
		}
		out := make([]chat.Channel, 0, len(all))
		for _, ch := range all {
			if ch.DM == dm {
				out = append(out, ch)
			}
		}
		return out, nil
	}

	pairs, err := d.Store.Channels()
	if err != nil {
		return nil, err
	}
	var out []chat.Channel
	for _, p := range pairs {
		if (p[0] == 0) != dm {
			continue
		}
		if guildID != 0 && p[0] != guildID {
			continue
		}
		out = append(out, chat.Channel{
			ID:      chat.ID(p[1]),
			GuildID: chat.ID(p[0]),
			DM:      p[0] == 0,
		})
	}
	return out, nil
}
