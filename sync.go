package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/codebrief/codebrief/filter"
	"github.com/codebrief/codebrief/index"
)

// SyncResult holds the outcome of a single sync verification run.
type SyncResult struct {
	MissingFiles  int // files on disk but not in index
	StaleFiles    int // files in index but not on disk
	ModifiedFiles int // files where ModTime differs
	Duration      time.Duration
}

// runPeriodicSync verifies index consistency at the given interval until the
// stop channel closes. Watcher events can be missed (overflow, editors that
// replace directories); the sync pass catches whatever slipped through.
func (s *serveState) runPeriodicSync(intervalSeconds int, stop <-chan struct{}) {
	interval := time.Duration(intervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("periodic sync started", "intervalSeconds", intervalSeconds)

	for {
		select {
		case <-stop:
			s.logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result := s.performSyncVerification()
			totalDiscrepancies := result.MissingFiles + result.StaleFiles + result.ModifiedFiles
			if totalDiscrepancies > 0 {
				s.logger.Info("sync verification complete",
					"missing", result.MissingFiles,
					"stale", result.StaleFiles,
					"modified", result.ModifiedFiles,
					"duration", result.Duration,
				)
			} else {
				s.logger.Debug("sync verification complete, index is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification compares the filesystem with the current index
// state and re-indexes any out-of-sync files.
func (s *serveState) performSyncVerification() SyncResult {
	start := time.Now()
	var result SyncResult

	skipSelf := make(map[string]struct{}, len(s.skipPaths))
	for _, p := range s.skipPaths {
		skipSelf[filepath.Clean(p)] = struct{}{}
	}

	// Step 1: build the set of files currently on disk that pass the filter.
	diskFiles := make(map[string]os.FileInfo) // key: relative path, forward slashes
	filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(s.rootDir, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != s.rootDir && s.filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := skipSelf[filepath.Clean(path)]; ok {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		// Content heuristics run in indexSingleFile; path and size rules are
		// enough to decide membership here.
		if s.filter.Accept(rel, info.Size(), nil) != filter.Accepted {
			return nil
		}
		diskFiles[rel] = info
		return nil
	})

	// Step 2: snapshot the currently indexed files.
	indexedRecords := s.fileIndex.All()
	indexedSet := make(map[string]*index.FileRecord, len(indexedRecords))
	for _, record := range indexedRecords {
		indexedSet[record.Path] = record
	}

	// Step 3: missing files (on disk but not in index).
	for relPath, info := range diskFiles {
		if _, exists := indexedSet[relPath]; !exists {
			absPath := filepath.Join(s.rootDir, filepath.FromSlash(relPath))
			if err := s.indexSingleFile(absPath, relPath, info); err != nil {
				s.logger.Debug("sync: skipped missing file", "path", relPath, "error", err)
				continue
			}
			s.logger.Info("sync: indexed missing file", "path", relPath)
			result.MissingFiles++
		}
	}

	// Step 4: stale files (in index but not on disk).
	for relPath := range indexedSet {
		if _, exists := diskFiles[relPath]; !exists {
			s.removeFile(relPath)
			s.logger.Info("sync: removed stale file", "path", relPath)
			result.StaleFiles++
		}
	}

	// Step 5: modified files (ModTime differs).
	for relPath, info := range diskFiles {
		indexed, exists := indexedSet[relPath]
		if !exists {
			continue // already handled as missing
		}
		if !info.ModTime().Equal(indexed.ModTime) {
			absPath := filepath.Join(s.rootDir, filepath.FromSlash(relPath))
			if err := s.indexSingleFile(absPath, relPath, info); err != nil {
				s.logger.Debug("sync: skipped modified file", "path", relPath, "error", err)
				continue
			}
			s.logger.Info("sync: re-indexed modified file", "path", relPath)
			result.ModifiedFiles++
		}
	}

	result.Duration = time.Since(start)
	return result
}
