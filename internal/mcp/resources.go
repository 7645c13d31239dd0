package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/haystackfs/haystack/internal/mcp/tools"
)

const mimeJSON = "application/json"

// Resource URI scheme: haystack://
// Supported URIs:
//   haystack://stats
//   haystack://index/{guild}/{channel}

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         "haystack://stats",
		Name:        "Index Statistics",
		Description: "Per-channel record counts, the ban list size, and the last-indexed watermark.",
		MIMEType:    mimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceStats)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "haystack://index/{guild}/{channel}",
		Name:        "Channel Index",
		Description: "Every persisted record of one channel's index, in crawl order. High context cost for large channels; prefer haystack_search or haystack_query_records.",
		MIMEType:    mimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceIndex)
}

type channelStats struct {
	GuildID   uint64 `json:"guild_id"`
	ChannelID uint64 `json:"channel_id"`
	Records   int    `json:"records"`
}

type indexStats struct {
	Channels     []channelStats `json:"channels"`
	TotalRecords int            `json:"total_records"`
	BannedIDs    uint64         `json:"banned_ids"`
	LastIndexed  *time.Time     `json:"last_indexed,omitempty"`
}

func (s *Server) handleResourceStats(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	pairs, err := s.deps.Store.Channels()
	if err != nil {
		return nil, tools.WrapSearchError(err)
	}

	stats := indexStats{BannedIDs: s.deps.Bans.Len()}
	for _, p := range pairs {
		recs, err := s.deps.Store.Load(p[0], p[1])
		if err != nil {
			continue
		}
		stats.Channels = append(stats.Channels, channelStats{
			GuildID:   p[0],
			ChannelID: p[1],
			Records:   len(recs),
		})
		stats.TotalRecords += len(recs)
	}
	if wm := s.deps.Store.LastIndexed(); !wm.IsZero() {
		stats.LastIndexed = &wm
	}

	return toResourceResult(req.Params.URI, stats)
}

func (s *Server) handleResourceIndex(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	guildID, channelID, err := parseIndexURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	recs, err := s.deps.Store.Load(guildID, channelID)
	if err != nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	return toResourceResult(req.Params.URI, recs)
}

// parseIndexURI extracts guild and channel ids from a haystack://index URI.
// Direct-message channels use guild id 0.
func parseIndexURI(uri string) (guildID, channelID uint64, err error) {
	if !strings.HasPrefix(uri, "haystack://") {
		return 0, 0, tools.ErrInvalidInput("invalid URI scheme: expected haystack://")
	}
	parts := strings.Split(strings.TrimPrefix(uri, "haystack://"), "/")
	if len(parts) != 3 || parts[0] != "index" {
		return 0, 0, tools.ErrInvalidInput("index URI requires guild and channel ids")
	}

	guildID, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, tools.ErrInvalidInput(fmt.Sprintf("invalid guild id: %s", parts[1]))
	}
	channelID, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, 0, tools.ErrInvalidInput(fmt.Sprintf("invalid channel id: %s", parts[2]))
	}
	return guildID, channelID, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
