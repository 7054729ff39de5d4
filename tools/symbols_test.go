package tools

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestSymbolsHandler(t *testing.T) *SymbolsHandler {
	t.Helper()
	fi := index.NewFileIndex()

	fi.Put(&index.FileRecord{
		Path:     "src/app.py",
		Language: "python",
		Payload: &analyzer.Payload{
			Functions: []analyzer.Function{
				{Name: "main", Line: 3},
				{Name: "main_loop", Line: 10},
			},
			Classes: []analyzer.Class{{
				Name:    "Server",
				Line:    20,
				Methods: []analyzer.Function{{Name: "start", Line: 22}},
			}},
		},
	})
	fi.Put(&index.FileRecord{
		Path:     "web/view.jsx",
		Language: "react",
		Payload: &analyzer.Payload{
			Components: []analyzer.Component{{Name: "MainView", Line: 5, Export: "default"}},
		},
	})

	return &SymbolsHandler{
		FileIndex: fi,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func Test_SymbolsHandler_EmptyName(t *testing.T) {
	h := newTestSymbolsHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SymbolsArgs{Name: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for empty name")
	}
}

func Test_SymbolsHandler_ExactMatchRanksFirst(t *testing.T) {
	h := newTestSymbolsHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SymbolsArgs{Name: "main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "Found 3 symbols") {
		t.Fatalf("expected 3 symbols (main, main_loop, MainView), got:\n%s", text)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	// Header, blank, then matches: exact "main" must come before the partials.
	if !strings.Contains(lines[2], "main  (function)  src/app.py:3") {
		t.Errorf("expected exact match first, got:\n%s", text)
	}
}

func Test_SymbolsHandler_KindFilter(t *testing.T) {
	h := newTestSymbolsHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SymbolsArgs{Name: "main", Kind: "component"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "MainView") {
		t.Errorf("expected MainView component, got:\n%s", text)
	}
	if strings.Contains(text, "main_loop") {
		t.Errorf("kind filter leaked functions:\n%s", text)
	}
}

func Test_SymbolsHandler_InvalidKind(t *testing.T) {
	h := newTestSymbolsHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SymbolsArgs{Name: "main", Kind: "enum"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for unknown kind")
	}
}

func Test_SymbolsHandler_MethodsReportOwningClass(t *testing.T) {
	h := newTestSymbolsHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SymbolsArgs{Name: "start"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "Server.start  (method)  src/app.py:22") {
		t.Errorf("expected qualified method match, got:\n%s", text)
	}
}

func Test_SymbolsHandler_NoMatches(t *testing.T) {
	h := newTestSymbolsHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SymbolsArgs{Name: "nosuchsymbol"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success for zero matches")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "No symbols found") {
		t.Errorf("expected 'No symbols found', got:\n%s", text)
	}
}
