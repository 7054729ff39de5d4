package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func Test_ReindexHandler_Success(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func() (int, int64, string, error) {
			return 12, 34 * 1024, "150ms", nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	for _, want := range []string{"12 files", "34.0 KB", "150ms"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got: %s", want, text)
		}
	}
}

func Test_ReindexHandler_Failure(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func() (int, int64, string, error) {
			return 0, 0, "", errors.New("walk failed")
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true when reindex fails")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "walk failed") {
		t.Errorf("expected underlying error in output, got: %s", text)
	}
}
