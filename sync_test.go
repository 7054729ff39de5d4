package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/cache"
	"github.com/codebrief/codebrief/filter"
	"github.com/codebrief/codebrief/index"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServeState(t *testing.T, rootDir string) *serveState {
	t.Helper()
	contentIndex, err := index.NewContentIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { contentIndex.Close() })

	return &serveState{
		rootDir:       rootDir,
		fileIndex:     index.NewFileIndex(),
		contentIndex:  contentIndex,
		filter:        filter.NewEngine(filter.Options{RootDir: rootDir}),
		analysisCache: cache.New(),
		dispatch:      analyzer.NewDispatch(),
		logger:        testLogger(),
	}
}

func Test_performSyncVerification_DetectsMissingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	state := newTestServeState(t, tmpDir)

	// Create a file on disk but don't index it
	filePath := filepath.Join(tmpDir, "missing.py")
	os.WriteFile(filePath, []byte("x = 1\n"), 0644)

	result := state.performSyncVerification()

	if result.MissingFiles != 1 {
		t.Errorf("expected 1 missing file, got %d", result.MissingFiles)
	}
	if result.StaleFiles != 0 {
		t.Errorf("expected 0 stale files, got %d", result.StaleFiles)
	}
	if result.ModifiedFiles != 0 {
		t.Errorf("expected 0 modified files, got %d", result.ModifiedFiles)
	}

	// Verify the file was actually indexed
	if state.fileIndex.Get("missing.py") == nil {
		t.Error("expected missing.py to be indexed after sync")
	}
	if _, ok := state.contentIndex.Content("missing.py"); !ok {
		t.Error("expected missing.py content indexed after sync")
	}
}

func Test_performSyncVerification_DetectsStaleFiles(t *testing.T) {
	tmpDir := t.TempDir()
	state := newTestServeState(t, tmpDir)

	// Add a file to the index that doesn't exist on disk
	state.fileIndex.Put(&index.FileRecord{
		Path:      "deleted.py",
		Language:  "python",
		SizeBytes: 100,
		ModTime:   time.Now(),
		LineCount: 5,
	})
	state.contentIndex.Put("deleted.py", "x = 1\n", "python")

	result := state.performSyncVerification()

	if result.StaleFiles != 1 {
		t.Errorf("expected 1 stale file, got %d", result.StaleFiles)
	}
	if result.MissingFiles != 0 {
		t.Errorf("expected 0 missing files, got %d", result.MissingFiles)
	}

	// Verify the file was removed from index
	if state.fileIndex.Get("deleted.py") != nil {
		t.Error("expected deleted.py to be removed from index after sync")
	}
}

func Test_performSyncVerification_DetectsModifiedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	state := newTestServeState(t, tmpDir)

	filePath := filepath.Join(tmpDir, "changed.py")
	os.WriteFile(filePath, []byte("def old():\n    pass\n"), 0644)
	info, err := os.Stat(filePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := state.indexSingleFile(filePath, "changed.py", info); err != nil {
		t.Fatalf("indexing seed file: %v", err)
	}

	// Rewrite with a different ModTime
	os.WriteFile(filePath, []byte("def new():\n    pass\n"), 0644)
	past := time.Now().Add(-time.Hour)
	os.Chtimes(filePath, past, past)

	result := state.performSyncVerification()

	if result.ModifiedFiles != 1 {
		t.Errorf("expected 1 modified file, got %d", result.ModifiedFiles)
	}

	record := state.fileIndex.Get("changed.py")
	if record == nil {
		t.Fatal("expected changed.py to remain indexed")
	}
	if len(record.Payload.Functions) != 1 || record.Payload.Functions[0].Name != "new" {
		t.Errorf("expected re-analysis to pick up new function, got %+v", record.Payload)
	}
}

func Test_performSyncVerification_InSync(t *testing.T) {
	tmpDir := t.TempDir()
	state := newTestServeState(t, tmpDir)

	filePath := filepath.Join(tmpDir, "steady.py")
	os.WriteFile(filePath, []byte("x = 1\n"), 0644)
	info, err := os.Stat(filePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := state.indexSingleFile(filePath, "steady.py", info); err != nil {
		t.Fatalf("indexing seed file: %v", err)
	}

	result := state.performSyncVerification()

	if result.MissingFiles+result.StaleFiles+result.ModifiedFiles != 0 {
		t.Errorf("expected no discrepancies, got %+v", result)
	}
}

func Test_performSyncVerification_IgnoresFilteredFiles(t *testing.T) {
	tmpDir := t.TempDir()
	state := newTestServeState(t, tmpDir)

	os.MkdirAll(filepath.Join(tmpDir, "node_modules"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "node_modules", "dep.js"), []byte("x"), 0644)

	result := state.performSyncVerification()

	if result.MissingFiles != 0 {
		t.Errorf("expected vendor file ignored, got %d missing", result.MissingFiles)
	}
	if state.fileIndex.Get("node_modules/dep.js") != nil {
		t.Error("vendor file must not be indexed by sync")
	}
}
