package tools

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/codebrief/codebrief/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestSearchHandler(t *testing.T) *SearchHandler {
	t.Helper()
	ci, err := index.NewContentIndex()
	if err != nil {
		t.Fatalf("failed to create content index: %v", err)
	}
	t.Cleanup(func() { ci.Close() })

	return &SearchHandler{
		ContentIndex: ci,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func Test_SearchHandler_EmptyQuery(t *testing.T) {
	h := newTestSearchHandler(t)

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for empty query")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "query parameter is required") {
		t.Errorf("expected error message about empty query, got: %s", text)
	}
}

func Test_SearchHandler_BasicSearch(t *testing.T) {
	h := newTestSearchHandler(t)

	h.ContentIndex.Put("app.py", "import os\n\ndef main():\n    print(\"hello world\")\n", "python")
	h.ContentIndex.Put("util.py", "def helper():\n    return 42\n", "python")

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "app.py") {
		t.Errorf("expected result to contain app.py, got:\n%s", text)
	}
	if !strings.Contains(text, "hello") {
		t.Errorf("expected result to contain 'hello', got:\n%s", text)
	}
}

func Test_SearchHandler_FilePathFilter(t *testing.T) {
	h := newTestSearchHandler(t)

	h.ContentIndex.Put("a.py", "shared = 1\n", "python")
	h.ContentIndex.Put("b.py", "shared = 2\n", "python")

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "shared", FilePath: "b.py"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "b.py") {
		t.Errorf("expected b.py in output, got:\n%s", text)
	}
	if strings.Contains(text, "a.py") {
		t.Errorf("filePath filter leaked a.py into output:\n%s", text)
	}
}

func Test_SearchHandler_NoResults(t *testing.T) {
	h := newTestSearchHandler(t)

	h.ContentIndex.Put("app.py", "def main():\n    pass\n", "python")

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "nonexistent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success (no error), got error result")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "No matches found") {
		t.Errorf("expected 'No matches found', got:\n%s", text)
	}
}
