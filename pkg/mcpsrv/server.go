package mcpsrv

import (
	"context"
	"fmt"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/haystackfs/haystack/internal/banlist"
	"github.com/haystackfs/haystack/internal/cache"
	"github.com/haystackfs/haystack/internal/config"
	"github.com/haystackfs/haystack/internal/jq"
	"github.com/haystackfs/haystack/internal/logging"
	"github.com/haystackfs/haystack/internal/mcp"
	"github.com/haystackfs/haystack/internal/mcp/tools"
	"github.com/haystackfs/haystack/internal/scan"
	"github.com/haystackfs/haystack/internal/search"
	"github.com/haystackfs/haystack/internal/store"
	"github.com/haystackfs/haystack/pkg/chat"
)

// banFile is the ban list's filename inside the index directory.
const banFile = "bans.bin"

// Server is the haystack MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin haystack tools.
//
// The provider gives access to the chat platform; it may be nil for offline
// deployments that only search indices built elsewhere. Use functional
// options to configure logging, the scan strategy, custom tools, etc.
func NewServer(provider chat.Provider, opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		config: config.Load(), // defaults from environment
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	// Infrastructure: record cache, index store, ban list.
	recordCache, err := cache.NewRecordCache(cfg.config.CacheChannels)
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}
	st, err := store.Open(cfg.config.IndexDir, recordCache)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	bans := banlist.Open(filepath.Join(cfg.config.IndexDir, banFile))

	// One token bucket shared by all history fetches across channels.
	if provider != nil {
		provider = chat.Throttled(provider, chat.RateLimitConfig{
			RequestsPerSecond: cfg.config.HistoryRPS,
			BurstSize:         cfg.config.HistoryBurst,
		})
	}

	scanner, err := buildScanner(cfg.config, st, provider)
	if err != nil {
		return nil, err
	}

	engine := search.NewEngine(cfg.config, scanner, bans, st, provider)
	jqEngine := jq.NewEngine()

	toolDeps := &tools.Deps{
		Config:   cfg.config,
		Engine:   engine,
		Store:    st,
		Bans:     bans,
		JQ:       jqEngine,
		Provider: provider,
		Pagers:   tools.NewPagerRegistry(0),
	}

	// Public deps: same values, exported type for custom tools.
	deps := &Deps{
		Config:   cfg.config,
		Engine:   engine,
		Store:    st,
		Bans:     bans,
		JQ:       jqEngine,
		Provider: provider,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, fn := range cfg.registrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// buildScanner picks the scan strategy. Live needs a connected provider;
// indexed works with or without one (without, only existing indices are
// searchable).
func buildScanner(cfg *config.Config, st *store.Store, provider chat.Provider) (scan.Scanner, error) {
	self := chat.ID(cfg.SelfUser)
	switch cfg.Strategy {
	case config.StrategyLive:
		if provider == nil {
			return nil, fmt.Errorf("live strategy requires a chat provider")
		}
		return scan.NewLive(provider, cfg.MatchThreshold, self), nil
	case config.StrategyIndexed:
		return scan.NewIndexed(st, provider, cfg.MatchThreshold, cfg.WriteBuffer, self), nil
	default:
		return nil, fmt.Errorf("unknown scan strategy %q", cfg.Strategy)
	}
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
