// Package mcpsrv provides an extensible MCP server for searching files
// shared in chat history.
//
// This package exposes a high-level API for creating and running an MCP
// server with all builtin haystack tools, prompts, and resources. Users can
// extend the server with custom tools, prompts, and resources using
// functional options, and plug in their own chat platform via the
// chat.Provider interface.
//
// # Basic Usage
//
// Create a server over existing indices (no platform connection):
//
//	server, err := mcpsrv.NewServer(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// With a platform binding, channels are crawled on first touch:
//
//	server, err := mcpsrv.NewServer(myProvider)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type CountInput struct{}
//
//	type CountOutput struct {
//	    Banned uint64 `json:"banned"`
//	}
//
//	server, err := mcpsrv.NewServer(nil,
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "count_bans", Description: "Count banned attachments"},
//	        func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, input CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, input CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	                return nil, CountOutput{Banned: d.Bans.Len()}, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Configuration comes from HAYSTACK_* and LOG_* environment variables (see
// internal/config), with functional options as overrides:
//
//	server, err := mcpsrv.NewServer(nil,
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithIndexDir("/var/lib/haystack/indices"),
//	)
package mcpsrv
