package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/codebrief/codebrief/analyzer"
)

// Version is the cache snapshot format version. A snapshot with a different
// version is treated as empty, forcing full re-analysis.
const Version = 1

// Fingerprint identifies a file's content state across runs.
type Fingerprint struct {
	Hash            string `json:"hash"`
	Size            int64  `json:"size"`
	ModTimeUnixNano int64  `json:"mod_time_unix_nano"`
}

// NewFingerprint computes a fingerprint from file content and stat data.
func NewFingerprint(content []byte, size int64, modTime time.Time) Fingerprint {
	return Fingerprint{
		Hash:            fmt.Sprintf("%016x", xxh3.Hash(content)),
		Size:            size,
		ModTimeUnixNano: modTime.UnixNano(),
	}
}

// Matches reports whether a stored fingerprint still describes the given
// content state. Hash and size must both match; the modification time is
// deliberately excluded so that touch-only changes (mtime bumped, content
// identical) do not trigger re-analysis.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.Hash == other.Hash && f.Size == other.Size
}

// Entry is one persisted per-file record: the fingerprint at analysis time
// and the structural payload produced from that content.
type Entry struct {
	Fingerprint Fingerprint       `json:"fingerprint"`
	Language    string            `json:"language"`
	LineCount   int               `json:"line_count"`
	Payload     *analyzer.Payload `json:"payload,omitempty"`
}

// snapshot is the on-disk cache file shape.
type snapshot struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Entries map[string]Entry `json:"entries"`
}

// Cache holds per-file analysis state across runs. Load it at run start,
// commit fresh entries during the run, prune and save at run end. Commits
// are buffered in memory; the on-disk snapshot is only replaced by Save,
// atomically, so an interrupted run never leaves a half-written cache.
// Thread-safe: analysis workers commit concurrently.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty in-memory cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Load reads a cache snapshot from disk. A missing, unreadable, or
// schema-mismatched file yields an empty cache, never an error: cache
// corruption means full re-analysis, not failure.
func Load(path string) *Cache {
	cache := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return cache
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return cache
	}
	if snap.Version != Version || snap.Entries == nil {
		return cache
	}

	cache.entries = snap.Entries
	return cache
}

// Lookup returns the stored entry for a path, if any. It never triggers
// analysis; callers compare fingerprints to decide whether to re-analyze.
func (c *Cache) Lookup(relPath string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[relPath]
	return entry, ok
}

// Commit stores or replaces the entry for a path.
func (c *Cache) Commit(relPath string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[relPath] = entry
}

// Remove drops the entry for a path, if present.
func (c *Cache) Remove(relPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, relPath)
}

// Prune drops every entry whose path is not in the surviving set. Deleted
// or renamed source files must not leave orphan entries behind.
func (c *Cache) Prune(surviving map[string]struct{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pruned := 0
	for path := range c.entries {
		if _, ok := surviving[path]; !ok {
			delete(c.entries, path)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Paths returns all entry paths in sorted order.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.entries))
	for path := range c.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Save writes the cache snapshot atomically: serialize to a temp file in the
// target directory, then rename over the destination. On any failure the
// previous snapshot on disk stays intact.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	snap := snapshot{
		Version: Version,
		SavedAt: time.Now().UTC(),
		Entries: c.entries,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".codebrief-cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
