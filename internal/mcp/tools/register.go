package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: haystack_search
	AddTool(srv, &sdkmcp.Tool{
		Name: "haystack_search",
		Description: "Search for files shared in chat channels. All filters are optional and " +
			"combined with AND: fuzzy filename, fuzzy message content, filetype (category, MIME " +
			"type, or extension), author, channel, and after/before dates. Returns up to 25 " +
			"ranked results plus a search_id for fetching older pages.",
	}, ToolSearch(d))

	// Tool 2: haystack_next_page
	AddTool(srv, &sdkmcp.Tool{
		Name: "haystack_next_page",
		Description: "Continue a previous haystack_search past its result cap. Pages never " +
			"repeat a file; done=true means the history is exhausted.",
	}, ToolNextPage(d))

	// Tool 3: haystack_remove_attachments
	AddTool(srv, &sdkmcp.Tool{
		Name: "haystack_remove_attachments",
		Description: "Permanently exclude attachments from all future search results, " +
			"effective immediately. Use for deleted or reported files.",
	}, ToolRemoveAttachments(d))

	// Tool 4: haystack_query_records
	AddTool(srv, &sdkmcp.Tool{
		Name: "haystack_query_records",
		Description: "Run a JQ expression over the indexed file metadata for questions the " +
			"search filters cannot express: group by author, list distinct filetypes, extract " +
			"URL lists. Operates on persisted indices only.",
	}, ToolQueryRecords(d))
}
