// Package tools implements the MCP tool handlers served in serve mode:
// content search, file lookup, symbol lookup, status, and reindex.
package tools

import (
	"fmt"
	"strings"

	"github.com/codebrief/codebrief/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// FormatSearchResults formats content search results as human-readable text.
// Groups matches by file with line numbers and optional context.
func FormatSearchResults(results []index.ContentMatch, totalMatches int) string {
	if len(results) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches in %d files:\n\n", totalMatches, len(results)))

	for i, result := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──\n", result.Path))

		for _, match := range result.Matches {
			for _, ctxLine := range match.ContextBefore {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}
			builder.WriteString(fmt.Sprintf("  %d: %s\n", match.LineNumber, match.LineText))
			for _, ctxLine := range match.ContextAfter {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}
		}
	}

	return builder.String()
}

// FormatFileResults formats file search results as human-readable text.
func FormatFileResults(records []*index.FileRecord, nameOnly bool) string {
	if len(records) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(records)))

	for _, record := range records {
		if nameOnly {
			builder.WriteString(record.Path)
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %d lines)\n",
				record.Path,
				record.Language,
				formatFileSize(record.SizeBytes),
				record.LineCount,
			))
		}
	}

	return builder.String()
}

// FormatSymbolResults formats symbol lookup results, one symbol per line.
func FormatSymbolResults(matches []SymbolMatch) string {
	if len(matches) == 0 {
		return "No symbols found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d symbols:\n\n", len(matches)))

	for _, m := range matches {
		location := m.Path
		if m.Line > 0 {
			location = fmt.Sprintf("%s:%d", m.Path, m.Line)
		}
		switch {
		case m.Kind == "method" && m.Detail != "":
			builder.WriteString(fmt.Sprintf("  %s.%s  (method)  %s\n", m.Detail, m.Name, location))
		case m.Kind == "component" && m.Detail != "":
			builder.WriteString(fmt.Sprintf("  %s  (component, %s export)  %s\n", m.Name, m.Detail, location))
		default:
			builder.WriteString(fmt.Sprintf("  %s  (%s)  %s\n", m.Name, m.Kind, location))
		}
	}

	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
