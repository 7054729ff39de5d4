package builder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/cache"
	"github.com/codebrief/codebrief/index"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}
	return root
}

// countingAnalyzer wraps another analyzer and counts invocations.
type countingAnalyzer struct {
	inner analyzer.Analyzer
	calls *atomic.Int64
}

func (c countingAnalyzer) Analyze(content []byte) (*analyzer.Payload, error) {
	c.calls.Add(1)
	return c.inner.Analyze(content)
}

func countingDispatch() (*analyzer.Dispatch, *atomic.Int64) {
	calls := &atomic.Int64{}
	d := analyzer.NewDispatch()
	d.Register("python", countingAnalyzer{inner: &analyzer.PythonAnalyzer{}, calls: calls})
	return d, calls
}

func Test_Build_ScenarioVendorAndPruning(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.py":        "def main():\n    pass\n",
		"vendor/lib.min.js": "!function(e){" + strings.Repeat("e+=1;", 100) + "}();\n",
	})
	cachePath := filepath.Join(root, ".codebrief_cache.json")

	c := cache.New()
	c.Commit("old.py", cache.Entry{
		Fingerprint: cache.Fingerprint{Hash: "dead", Size: 1},
		Language:    "python",
	})

	idx, warnings, err := Build(context.Background(), Options{
		Root:      root,
		Cache:     c,
		CachePath: cachePath,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, w := range warnings {
		t.Logf("warning: %s: %s", w.Path, w.Message)
	}

	if idx.TotalFiles != 1 {
		t.Fatalf("expected only src/app.py indexed, got %d files", idx.TotalFiles)
	}
	record := idx.Lookup("src/app.py")
	if record == nil {
		t.Fatal("expected src/app.py in index")
	}
	if len(record.Payload.Functions) != 1 || record.Payload.Functions[0].Name != "main" {
		t.Errorf("expected function main extracted, got %+v", record.Payload)
	}
	if idx.Lookup("vendor/lib.min.js") != nil {
		t.Error("vendor file must not be indexed")
	}

	if _, ok := c.Lookup("old.py"); ok {
		t.Error("expected stale old.py cache entry pruned")
	}

	saved := cache.Load(cachePath)
	if _, ok := saved.Lookup("src/app.py"); !ok {
		t.Error("expected cache snapshot saved with src/app.py entry")
	}
	if _, ok := saved.Lookup("old.py"); ok {
		t.Error("expected saved snapshot to exclude pruned entry")
	}
}

func Test_Build_SecondRunUsesCacheOnly(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "def one():\n    pass\n",
		"b.py": "def two():\n    pass\n",
	})

	c := cache.New()
	dispatch, calls := countingDispatch()

	first, _, err := Build(context.Background(), Options{
		Root: root, Cache: c, Dispatch: dispatch, Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 analyses on first run, got %d", calls.Load())
	}

	second, _, err := Build(context.Background(), Options{
		Root: root, Cache: c, Dispatch: dispatch, Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected no re-analysis on unchanged tree, got %d total calls", calls.Load())
	}

	firstJSON := marshalFiles(t, first)
	secondJSON := marshalFiles(t, second)
	if firstJSON != secondJSON {
		t.Error("unchanged tree must produce identical file records")
	}
}

func Test_Build_TouchWithoutChangeSkipsReanalysis(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	c := cache.New()
	dispatch, calls := countingDispatch()

	if _, _, err := Build(context.Background(), Options{Root: root, Cache: c, Dispatch: dispatch, Logger: quietLogger()}); err != nil {
		t.Fatalf("first build failed: %v", err)
	}

	// Rewrite identical content so only the mtime moves.
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0644); err != nil {
		t.Fatalf("touching file: %v", err)
	}

	if _, _, err := Build(context.Background(), Options{Root: root, Cache: c, Dispatch: dispatch, Logger: quietLogger()}); err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("mtime-only change triggered re-analysis: %d calls", calls.Load())
	}
}

func Test_Build_ContentChangeTriggersReanalysis(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	c := cache.New()
	dispatch, calls := countingDispatch()

	if _, _, err := Build(context.Background(), Options{Root: root, Cache: c, Dispatch: dispatch, Logger: quietLogger()}); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 2\n"), 0644); err != nil {
		t.Fatalf("rewriting file: %v", err)
	}
	if _, _, err := Build(context.Background(), Options{Root: root, Cache: c, Dispatch: dispatch, Logger: quietLogger()}); err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected content change to re-analyze, got %d calls", calls.Load())
	}
}

func Test_Build_ForceRefreshIgnoresCache(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	c := cache.New()
	dispatch, calls := countingDispatch()

	opts := Options{Root: root, Cache: c, Dispatch: dispatch, Logger: quietLogger()}
	if _, _, err := Build(context.Background(), opts); err != nil {
		t.Fatalf("first build failed: %v", err)
	}

	opts.ForceRefresh = true
	if _, _, err := Build(context.Background(), opts); err != nil {
		t.Fatalf("forced build failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected force-refresh to re-analyze, got %d calls", calls.Load())
	}
}

func Test_Build_InvalidSourceDegradesWithoutPanic(t *testing.T) {
	root := writeTree(t, map[string]string{
		"broken.go": "package x\nfunc (\n",
		"fine.py":   "y = 2\n",
	})

	idx, warnings, err := Build(context.Background(), Options{Root: root, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if idx.TotalFiles != 2 {
		t.Fatalf("expected both files indexed, got %d", idx.TotalFiles)
	}

	record := idx.Lookup("broken.go")
	if record == nil || record.Payload == nil {
		t.Fatal("expected degraded record with payload for broken.go")
	}
	if !record.Degraded {
		t.Error("expected broken.go marked degraded")
	}

	found := false
	for _, w := range warnings {
		if w.Path == "broken.go" {
			found = true
		}
	}
	if !found {
		t.Error("expected warning for degraded analysis of broken.go")
	}
}

func Test_Build_InvalidRootIsFatal(t *testing.T) {
	if _, _, err := Build(context.Background(), Options{Root: "/no/such/dir", Logger: quietLogger()}); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "f.txt")
	os.WriteFile(file, []byte("x"), 0644)
	if _, _, err := Build(context.Background(), Options{Root: file, Logger: quietLogger()}); err == nil {
		t.Error("expected error when root is a file")
	}
}

func Test_Build_CancelledContextPreservesCacheSnapshot(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	cachePath := filepath.Join(root, ".codebrief_cache.json")

	// Seed a snapshot from a successful run.
	if _, _, err := Build(context.Background(), Options{Root: root, CachePath: cachePath, Logger: quietLogger()}); err != nil {
		t.Fatalf("seed build failed: %v", err)
	}
	before, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Build(ctx, Options{Root: root, CachePath: cachePath, Logger: quietLogger()}); err == nil {
		t.Error("expected cancelled build to fail")
	}

	after, err := os.ReadFile(cachePath)
	if err != nil {
		t.Fatalf("re-reading snapshot: %v", err)
	}
	if string(before) != string(after) {
		t.Error("cancelled run must not modify the cache snapshot")
	}
}

func Test_Build_SkipsOwnCacheFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x = 1\n"})
	cachePath := filepath.Join(root, "cache.json")

	if _, _, err := Build(context.Background(), Options{Root: root, CachePath: cachePath, Logger: quietLogger()}); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	idx, _, err := Build(context.Background(), Options{Root: root, CachePath: cachePath, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if idx.Lookup("cache.json") != nil {
		t.Error("the cache snapshot must not index itself")
	}
	if idx.TotalFiles != 1 {
		t.Errorf("expected 1 file, got %d", idx.TotalFiles)
	}
}

func Test_Build_BinaryFilesSkipped(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "blob.dat"), []byte{0x00, 0x01, 0x02, 0xFF}, 0644)
	os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0644)

	idx, _, err := Build(context.Background(), Options{Root: root, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if idx.TotalFiles != 1 || idx.Lookup("blob.dat") != nil {
		t.Errorf("expected binary file skipped, got %d files", idx.TotalFiles)
	}
}

func marshalFiles(t *testing.T, idx *index.ProjectIndex) string {
	t.Helper()
	data, err := json.Marshal(idx.Files)
	if err != nil {
		t.Fatalf("marshaling files: %v", err)
	}
	return string(data)
}
