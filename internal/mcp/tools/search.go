package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/haystackfs/haystack/internal/search"
	"github.com/haystackfs/haystack/pkg/chat"
	"github.com/haystackfs/haystack/pkg/types"
)

// SearchInput is the input for haystack_search.
type SearchInput struct {
	GuildID        uint64   `json:"guild_id,omitempty" jsonschema:"Guild to search. Omit or 0 together with dm=true for direct messages."`
	Channels       []uint64 `json:"channels,omitempty" jsonschema:"Explicit channel ids to search. Default: every channel of the guild."`
	Filename       string   `json:"filename,omitempty" jsonschema:"Fuzzy filename filter"`
	Content        string   `json:"content,omitempty" jsonschema:"Fuzzy filter on the text of the message the file was attached to"`
	Filetype       string   `json:"filetype,omitempty" jsonschema:"Filetype filter: a category ('image', 'audio'), a MIME type, or an extension"`
	CustomFiletype string   `json:"custom_filetype,omitempty" jsonschema:"Fuzzy filter on the filename extension"`
	Author         uint64   `json:"author,omitempty" jsonschema:"Only files uploaded by this user id"`
	Channel        uint64   `json:"channel,omitempty" jsonschema:"Only files from this channel id"`
	After          string   `json:"after,omitempty" jsonschema:"Only files uploaded on or after this date. Most year-month-day hour-minute-second formats work."`
	Before         string   `json:"before,omitempty" jsonschema:"Only files uploaded on or before this date"`
	DM             bool     `json:"dm,omitempty" jsonschema:"Search direct-message channels instead of guild channels"`
}

// SearchOutput is the output for haystack_search.
type SearchOutput struct {
	SearchID string         `json:"search_id"`
	Records  []types.Record `json:"records,omitzero"`
	Message  string         `json:"message,omitempty"`
	Hint     string         `json:"hint,omitempty"`
}

// ToolSearch runs the first page of an attachment search.
func ToolSearch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
		q, err := types.NewQuery(types.QueryParams{
			Filename:       input.Filename,
			Content:        input.Content,
			Filetype:       input.Filetype,
			CustomFiletype: input.CustomFiletype,
			Author:         input.Author,
			Channel:        input.Channel,
			After:          input.After,
			Before:         input.Before,
			DM:             input.DM,
		})
		if err != nil {
			var malformed *types.MalformedDateError
			if errors.As(err, &malformed) {
				return nil, SearchOutput{}, ErrInvalidInput(search.MalformedDate(malformed.Input))
			}
			return nil, SearchOutput{}, WrapSearchError(err)
		}

		channels, err := d.resolveChannels(ctx, input)
		if err != nil {
			return nil, SearchOutput{}, WrapSearchError(err)
		}

		pager := search.NewPager(d.Engine, chat.User{}, channels, q)
		bundle, err := pager.FirstPage(ctx)
		if err != nil {
			return nil, SearchOutput{}, WrapSearchError(err)
		}

		id := d.Pagers.Put(pager)
		hint := ""
		if !bundle.Empty() {
			hint = fmt.Sprintf("Use haystack_next_page(search_id=%q) for older files.", id)
		}
		return nil, SearchOutput{
			SearchID: id,
			Records:  bundle.Records,
			Message:  bundle.Message,
			Hint:     hint,
		}, nil
	}
}

// resolveChannels turns the tool input into the channel set to scan.
func (d *Deps) resolveChannels(ctx context.Context, input SearchInput) ([]chat.Channel, error) {
	if len(input.Channels) > 0 {
		out := make([]chat.Channel, 0, len(input.Channels))
		for _, id := range input.Channels {
			out = append(out, chat.Channel{
				ID:      chat.ID(id),
				GuildID: chat.ID(input.GuildID),
				DM:      input.DM,
			})
		}
		return out, nil
	}
	return d.CandidateChannels(ctx, input.GuildID, input.DM)
}

// NextPageInput is the input for haystack_next_page.
type NextPageInput struct {
	SearchID string `json:"search_id" jsonschema:"Id returned by haystack_search"`
}

// NextPageOutput is the output for haystack_next_page.
type NextPageOutput struct {
	Records []types.Record `json:"records,omitzero"`
	Message string         `json:"message,omitempty"`
	Page    int            `json:"page"`
	Done    bool           `json:"done,omitempty"`
}

// ToolNextPage continues a previous search past its result cap.
func ToolNextPage(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input NextPageInput) (*sdkmcp.CallToolResult, NextPageOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input NextPageInput) (*sdkmcp.CallToolResult, NextPageOutput, error) {
		pager, ok := d.Pagers.Get(input.SearchID)
		if !ok {
			return nil, NextPageOutput{}, ErrNotFound("search", input.SearchID)
		}

		bundle, err := pager.NextPage(ctx)
		if errors.Is(err, types.ErrNoMoreResults) {
			return nil, NextPageOutput{
				Message: "No more results.",
				Page:    pager.Page(),
				Done:    true,
			}, nil
		}
		if err != nil {
			return nil, NextPageOutput{}, WrapSearchError(err)
		}

		return nil, NextPageOutput{
			Records: bundle.Records,
			Message: bundle.Message,
			Page:    pager.Page(),
		}, nil
	}
}
