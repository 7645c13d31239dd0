package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleFindFiles implements the file discovery workflow.
func HandleFindFiles() func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		description := ""
		if req.Params.Arguments != nil {
			description = req.Params.Arguments["description"]
		}

		var sb strings.Builder

		sb.WriteString("# Find Files in Chat History\n\n")
		sb.WriteString("You help people recover files they remember sharing or seeing in chat. ")
		sb.WriteString("People rarely remember exact filenames; the search is fuzzy on purpose.\n\n")

		if description != "" {
			sb.WriteString(fmt.Sprintf("The user is looking for: %s\n\n", description))
		}

		sb.WriteString("## Workflow\n\n")
		sb.WriteString("1. **Start broad** - one or two filters beat five\n")
		sb.WriteString("   - A partial filename is the strongest signal: `haystack_search(filename=\"report\")`\n")
		sb.WriteString("   - Remember the conversation but not the file? Search the surrounding message text: `haystack_search(content=\"quarterly numbers\")`\n")
		sb.WriteString("   - Know only the kind of file? `filetype=\"image\"`, `filetype=\"audio\"`, `filetype=\"pdf\"`\n")
		sb.WriteString("2. **Narrow when flooded** - add author, channel, or after/before dates\n")
		sb.WriteString("   - Dates accept most year-month-day hour-minute-second formats and are inclusive\n")
		sb.WriteString("3. **Page when truncated** - results cap at 25 per page\n")
		sb.WriteString("   - `haystack_next_page(search_id=...)` continues into older history and never repeats a file\n")
		sb.WriteString("4. **Aggregate with JQ** - for questions that are not searches\n")
		sb.WriteString("   - `haystack_query_records(expression=\".filetype\", deduplicate=true)` lists the filetypes ever shared\n")
		sb.WriteString("   - `haystack_query_records(expression=\"select(.author_id == 42) | .url\")` collects one user's upload URLs\n\n")

		sb.WriteString("## Notes\n\n")
		sb.WriteString("- Results are ranked by filename similarity when a filename filter is set\n")
		sb.WriteString("- An empty page usually means the filters are too tight, not that the file is gone\n")
		sb.WriteString("- Files removed with haystack_remove_attachments never come back; don't retry for them\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for finding files shared in chat history",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
