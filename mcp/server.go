// Package mcp exposes trackast's call-graph analysis as MCP tools so
// LLM agents can build and query graphs over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/georgehulme/trackast/graph"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "0.3.0"

// NewServer builds the MCP server with every trackast tool registered.
func NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "trackast",
		Version: serverVersion,
	}, nil)

	// Tool: analyze_file - Function inventory for one source file
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_file",
		Description: "Analyze one source file (Python, Rust, JavaScript or TypeScript) and return its function inventory: every function with its definition line and the calls it makes. Use this to inspect a single file without building an index.",
	}, handleAnalyzeFile)

	// Tool: build_graph - Build and persist the call-graph index
	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_graph",
		Description: "Build the call graph for a project and persist it as the index the other graph tools query. Analyzes every supported source file under the path, or follows imports from an entry file when one is given. Returns graph statistics.",
	}, handleBuildGraph)

	// Tool: trace_entry_points - Reachable set from entry points
	mcp.AddTool(server, &mcp.Tool{
		Name:        "trace_entry_points",
		Description: "Trace which functions are reachable from the given entry points (module::function specs). Requires a pre-built index (run build_graph first). Use this to understand what a program actually executes.",
	}, handleTraceEntryPoints)

	// Tool: find_unused - Functions no entry point reaches
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_unused",
		Description: "Find functions that no entry point can reach, grouped by file. Requires a pre-built index (run build_graph first). Use this for dead-code review.",
	}, handleFindUnused)

	// Tool: function_callers - Direct callers of a symbol
	mcp.AddTool(server, &mcp.Tool{
		Name:        "function_callers",
		Description: "List the functions that directly call a symbol. Requires a pre-built index (run build_graph first). Use this to assess the impact of changing a function.",
	}, handleFunctionCallers)

	// Tool: function_callees - Direct callees of a symbol
	mcp.AddTool(server, &mcp.Tool{
		Name:        "function_callees",
		Description: "List the functions a symbol directly calls, external targets included. Requires a pre-built index (run build_graph first).",
	}, handleFunctionCallees)

	// Tool: export_dot - Graphviz DOT export
	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_dot",
		Description: "Export the call graph as Graphviz DOT text, either the whole graph or only the subgraph reachable from given entry points. Requires a pre-built index (run build_graph first).",
	}, handleExportDOT)

	// Tool: status - Verify MCP connection
	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Check trackast MCP server status. Returns version, supported languages, and the available tools.",
	}, handleStatus)

	return server
}

// Serve runs the MCP server over stdio until the context is canceled or
// the client disconnects.
func Serve(ctx context.Context) error {
	return NewServer().Run(ctx, &mcp.StdioTransport{})
}

// validatePath validates and returns the absolute path
func validatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("path does not exist: %s", absPath)
	}

	return absPath, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// loadGraph loads the persisted call graph for a project, or returns an
// error telling the caller to build the index first.
func loadGraph(root string) (*graph.Graph, error) {
	if !graph.Exists(root) {
		return nil, fmt.Errorf("no index found. Run build_graph or 'trackast --index %s' first", root)
	}
	return graph.LoadBinary(root)
}

// splitSpecs splits a comma-separated entry-point list, dropping blanks.
func splitSpecs(s string) []string {
	var specs []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			specs = append(specs, p)
		}
	}
	return specs
}
