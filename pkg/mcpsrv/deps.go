package mcpsrv

import (
	"github.com/haystackfs/haystack/internal/banlist"
	"github.com/haystackfs/haystack/internal/config"
	"github.com/haystackfs/haystack/internal/jq"
	"github.com/haystackfs/haystack/internal/search"
	"github.com/haystackfs/haystack/internal/store"
	"github.com/haystackfs/haystack/pkg/chat"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Config   *config.Config
	Engine   *search.Engine
	Store    *store.Store
	Bans     *banlist.Set
	JQ       *jq.Engine
	Provider chat.Provider
}
