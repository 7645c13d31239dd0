package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// RemoveAttachmentsInput is the input for haystack_remove_attachments.
type RemoveAttachmentsInput struct {
	AttachmentIDs []uint64 `json:"attachment_ids" jsonschema:"Attachment ids to remove from all future search results"`
}

// RemoveAttachmentsOutput is the output for haystack_remove_attachments.
type RemoveAttachmentsOutput struct {
	Removed     int    `json:"removed"`
	BannedTotal uint64 `json:"banned_total"`
}

// ToolRemoveAttachments bans attachments from ever resurfacing in results.
func ToolRemoveAttachments(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input RemoveAttachmentsInput) (*sdkmcp.CallToolResult, RemoveAttachmentsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input RemoveAttachmentsInput) (*sdkmcp.CallToolResult, RemoveAttachmentsOutput, error) {
		if len(input.AttachmentIDs) == 0 {
			return nil, RemoveAttachmentsOutput{}, ErrInvalidInput("attachment_ids is required")
		}
		if err := d.Engine.RemoveAttachments(input.AttachmentIDs...); err != nil {
			return nil, RemoveAttachmentsOutput{}, WrapSearchError(err)
		}
		return nil, RemoveAttachmentsOutput{
			Removed:     len(input.AttachmentIDs),
			BannedTotal: d.Bans.Len(),
		}, nil
	}
}
