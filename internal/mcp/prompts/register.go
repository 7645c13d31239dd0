// Package prompts provides workflow guidance prompts for the haystack MCP
// server.
package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "find_files",
		Description: "RECOMMENDED: Workflow for locating files shared in chat history. Explains the search filters, pagination, and the metadata query tool.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "description",
				Description: "What the user remembers about the file (name fragments, who sent it, roughly when)",
				Required:    false,
			},
		},
	}, HandleFindFiles())
}
