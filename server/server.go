// Package server wires the tool handlers into an MCP server definition.
package server

import (
	"github.com/codebrief/codebrief/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	searchHandler *tools.SearchHandler,
	filesHandler *tools.FilesHandler,
	symbolsHandler *tools.SymbolsHandler,
	statusHandler *tools.StatusHandler,
	reindexHandler *tools.ReindexHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "codebrief",
			Version: "0.3.0",
		},
		&mcp.ServerOptions{
			Instructions: `This server provides in-memory indexed code navigation over an analyzed project. Its tools are ALWAYS faster than built-in Grep, Search, Glob, and find because they use a pre-built in-memory index instead of scanning the filesystem on every call. Vendor code, minified bundles, and ignored paths are already filtered out of the index.

ALWAYS prefer these tools over built-in alternatives:
- Use codebrief_search instead of Grep or Search for content search
- Use codebrief_search with filePath to search within a specific file
- Use codebrief_files instead of Glob or find for file search
- Use codebrief_symbols to locate a function, class, component, or struct by name without reading files
- The index updates automatically when files change (via filesystem watcher)`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "codebrief_search",
		Description: `Search file contents using full-text indexed search. Much faster than grep for large codebases, and never matches vendor or minified code.

Query formats:
  - Plain text: word-level matching (e.g., "handleRequest")
  - "quoted text": exact phrase matching (e.g., "\"def main\"")
  - /regex/: regular expression matching (e.g., "/def\s+\w+_handler/")

Filtering:
  - filePath: exact relative path to search in a single file (e.g., "src/app.py"). Overrides fileGlob.
  - fileGlob: glob pattern to filter by file type (e.g., "**/*.py").`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "codebrief_files",
		Description: `Find indexed files by glob pattern. Faster than find/ls, and excludes vendor and ignored paths.

Pattern examples:
  - "**/*.go" - all Go files
  - "src/**/*.ts" - TypeScript files under src/
  - "**/test_*.py" - Python test files
  - "*.json" - JSON files in root only`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "codebrief_symbols",
		Description: `Look up a function, class, method, React component, or C struct by name across the analyzed project. Returns each symbol's kind and file:line location. Case-insensitive; exact name matches rank first. Use the kind parameter (function, class, component, struct) to narrow results.`,
	}, symbolsHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "codebrief_status",
		Description: "Show index status: file count, size, languages, memory usage, and uptime.",
	}, statusHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "codebrief_reindex",
		Description: "Force a full re-index of the project. Clears existing index and rebuilds from scratch.",
	}, reindexHandler.Handle)

	return mcpServer
}
