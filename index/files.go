package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// FileIndex is an in-memory index of file records keyed by relative path,
// with a sorted path slice for deterministic glob iteration. It serves the
// query side while the builder produces ProjectIndex snapshots.
type FileIndex struct {
	mu          sync.RWMutex
	files       map[string]*FileRecord
	sortedPaths []string
}

// NewFileIndex creates an empty file index.
func NewFileIndex() *FileIndex {
	return &FileIndex{
		files:       make(map[string]*FileRecord),
		sortedPaths: make([]string, 0),
	}
}

// Put adds or replaces a record.
func (fi *FileIndex) Put(record *FileRecord) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	_, exists := fi.files[record.Path]
	fi.files[record.Path] = record

	if !exists {
		i := sort.SearchStrings(fi.sortedPaths, record.Path)
		fi.sortedPaths = append(fi.sortedPaths, "")
		copy(fi.sortedPaths[i+1:], fi.sortedPaths[i:])
		fi.sortedPaths[i] = record.Path
	}
}

// Remove drops the record for a relative path, if present.
func (fi *FileIndex) Remove(relPath string) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	if _, exists := fi.files[relPath]; !exists {
		return
	}
	delete(fi.files, relPath)

	i := sort.SearchStrings(fi.sortedPaths, relPath)
	if i < len(fi.sortedPaths) && fi.sortedPaths[i] == relPath {
		fi.sortedPaths = append(fi.sortedPaths[:i], fi.sortedPaths[i+1:]...)
	}
}

// Get returns the record for a relative path, or nil.
func (fi *FileIndex) Get(relPath string) *FileRecord {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.files[relPath]
}

// Count returns the number of indexed files.
func (fi *FileIndex) Count() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.files)
}

// TotalSizeBytes sums the sizes of all indexed files.
func (fi *FileIndex) TotalSizeBytes() int64 {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	var total int64
	for _, record := range fi.files {
		total += record.SizeBytes
	}
	return total
}

// LanguageCounts returns file counts keyed by language.
func (fi *FileIndex) LanguageCounts() map[string]int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	counts := make(map[string]int)
	for _, record := range fi.files {
		counts[record.Language]++
	}
	return counts
}

// SearchByGlob returns records whose relative path matches a doublestar
// pattern, in path order, capped at maxResults.
func (fi *FileIndex) SearchByGlob(pattern string, maxResults int) ([]*FileRecord, error) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []*FileRecord
	for _, path := range fi.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		matched, err := doublestar.Match(pattern, path)
		if err != nil || !matched {
			continue
		}
		if record, ok := fi.files[path]; ok {
			results = append(results, record)
		}
	}
	return results, nil
}

// All returns every record in path order.
func (fi *FileIndex) All() []*FileRecord {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	records := make([]*FileRecord, 0, len(fi.sortedPaths))
	for _, path := range fi.sortedPaths {
		if record, ok := fi.files[path]; ok {
			records = append(records, record)
		}
	}
	return records
}

// ReplaceAll swaps the entire index contents for the records of a freshly
// built project index.
func (fi *FileIndex) ReplaceAll(records []*FileRecord) {
	files := make(map[string]*FileRecord, len(records))
	paths := make([]string, 0, len(records))
	for _, record := range records {
		files[record.Path] = record
		paths = append(paths, record.Path)
	}
	sort.Strings(paths)

	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.files = files
	fi.sortedPaths = paths
}

// Clear removes all records.
func (fi *FileIndex) Clear() {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.files = make(map[string]*FileRecord)
	fi.sortedPaths = make([]string, 0)
}
