package tools

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/haystackfs/haystack/pkg/types"
)

// QueryRecordsInput is the input for haystack_query_records.
type QueryRecordsInput struct {
	Expression  string   `json:"expression" jsonschema:"JQ expression evaluated against each record's JSON form (fields: id, author_id, content, filename, content_type, filetype, channel_id, message_id, url, permalink, created_at)"`
	GuildID     uint64   `json:"guild_id,omitempty" jsonschema:"Restrict to one guild's indexed channels"`
	Channels    []uint64 `json:"channels,omitempty" jsonschema:"Restrict to specific channel ids"`
	Deduplicate bool     `json:"deduplicate,omitempty" jsonschema:"Drop duplicate values"`
	MaxResults  int      `json:"max_results,omitempty" jsonschema:"Stop after this many values (default 100)"`
}

// QueryRecordsOutput is the output for haystack_query_records.
type QueryRecordsOutput struct {
	Values   []any    `json:"values,omitzero"`
	Errors   []string `json:"errors,omitempty"`
	RawCount int      `json:"raw_count"`
	Scanned  int      `json:"records_scanned"`
}

// ToolQueryRecords runs a JQ expression over the indexed record metadata,
// for questions the structured search filters cannot express.
func ToolQueryRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryRecordsInput) (*sdkmcp.CallToolResult, QueryRecordsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryRecordsInput) (*sdkmcp.CallToolResult, QueryRecordsOutput, error) {
		if input.Expression == "" {
			return nil, QueryRecordsOutput{}, ErrInvalidInput("expression is required")
		}
		if err := d.JQ.ValidateExpression(input.Expression); err != nil {
			return nil, QueryRecordsOutput{}, ErrInvalidInput(err.Error())
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 100
		}

		recs, err := d.loadRecords(input.GuildID, input.Channels)
		if err != nil {
			return nil, QueryRecordsOutput{}, WrapSearchError(err)
		}

		res, err := d.JQ.QueryRecords(recs, input.Expression, input.Deduplicate, maxResults)
		if err != nil {
			return nil, QueryRecordsOutput{}, ErrInvalidInput(err.Error())
		}

		return nil, QueryRecordsOutput{
			Values:   res.Values,
			Errors:   res.Errors,
			RawCount: res.RawCount,
			Scanned:  len(recs),
		}, nil
	}
}

// loadRecords gathers the persisted records matching the guild/channel scope.
// Channels whose index cannot be read are skipped, not fatal.
func (d *Deps) loadRecords(guildID uint64, channels []uint64) ([]types.Record, error) {
	pairs, err := d.Store.Channels()
	if err != nil {
		return nil, err
	}

	wanted := make(map[uint64]struct{}, len(channels))
	for _, ch := range channels {
		wanted[ch] = struct{}{}
	}

	var out []types.Record
	for _, p := range pairs {
		if guildID != 0 && p[0] != guildID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[p[1]]; !ok {
				continue
			}
		}
		recs, err := d.Store.Load(p[0], p[1])
		if err != nil {
			if errors.Is(err, types.ErrIndexUnavailable) {
				continue
			}
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}
