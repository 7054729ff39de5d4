package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/codebrief/codebrief/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SymbolsArgs defines the input parameters for the codebrief_symbols tool.
type SymbolsArgs struct {
	Name       string `json:"name" jsonschema:"Symbol name to look up. Case-insensitive substring match; an exact name ranks first"`
	Kind       string `json:"kind,omitempty" jsonschema:"Optional kind filter: function, class, component, or struct"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// SymbolMatch is one structural symbol found in the analyzed payloads.
type SymbolMatch struct {
	Name   string
	Kind   string // function, method, class, component, struct
	Path   string
	Line   int
	Detail string // owning class for methods, export form for components
}

// SymbolsHandler holds the dependencies for the symbols tool. It queries the
// structural payloads attached to file records, so lookups reflect what the
// analyzers extracted rather than raw text.
type SymbolsHandler struct {
	FileIndex *index.FileIndex
	Logger    *slog.Logger
}

// Handle processes a codebrief_symbols request.
func (h *SymbolsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SymbolsArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Name == "" {
		h.Logger.Warn("codebrief_symbols called with empty name")
		return errorResult("Error: name parameter is required"), nil, nil
	}
	kind := strings.ToLower(args.Kind)
	switch kind {
	case "", "function", "class", "component", "struct":
	default:
		return errorResult("Error: kind must be function, class, component, or struct"), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	matches := findSymbols(h.FileIndex.All(), args.Name, kind, maxResults)

	h.Logger.Info("codebrief_symbols",
		"name", args.Name,
		"kind", kind,
		"results", len(matches),
		"elapsed", time.Since(start),
	)

	return textResult(FormatSymbolResults(matches)), nil, nil
}

// findSymbols walks records in path order and collects payload symbols whose
// name contains the query. Exact matches go first, then substring matches,
// both in discovery order.
func findSymbols(records []*index.FileRecord, name, kind string, maxResults int) []SymbolMatch {
	query := strings.ToLower(name)

	var exact, partial []SymbolMatch
	add := func(m SymbolMatch) {
		lowered := strings.ToLower(m.Name)
		switch {
		case lowered == query:
			exact = append(exact, m)
		case strings.Contains(lowered, query):
			partial = append(partial, m)
		}
	}

	for _, record := range records {
		payload := record.Payload
		if payload == nil {
			continue
		}

		if kind == "" || kind == "function" {
			for _, fn := range payload.Functions {
				add(SymbolMatch{Name: fn.Name, Kind: "function", Path: record.Path, Line: fn.Line})
			}
		}
		if kind == "" || kind == "class" {
			for _, class := range payload.Classes {
				add(SymbolMatch{Name: class.Name, Kind: "class", Path: record.Path, Line: class.Line})
				if kind == "" {
					for _, method := range class.Methods {
						add(SymbolMatch{
							Name:   method.Name,
							Kind:   "method",
							Path:   record.Path,
							Line:   method.Line,
							Detail: class.Name,
						})
					}
				}
			}
		}
		if kind == "" || kind == "component" {
			for _, c := range payload.Components {
				add(SymbolMatch{Name: c.Name, Kind: "component", Path: record.Path, Line: c.Line, Detail: c.Export})
			}
		}
		if kind == "" || kind == "struct" {
			for _, s := range payload.Structs {
				add(SymbolMatch{Name: s.Name, Kind: "struct", Path: record.Path, Line: s.Line})
			}
		}
	}

	matches := append(exact, partial...)
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}
