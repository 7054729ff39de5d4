package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/builder"
	"github.com/codebrief/codebrief/cache"
	"github.com/codebrief/codebrief/filter"
	"github.com/codebrief/codebrief/index"
	"github.com/codebrief/codebrief/language"
	"github.com/codebrief/codebrief/watcher"
)

// serveState bundles everything serve mode keeps alive: the query-side
// indexes plus the filter engine and analysis cache shared with rebuilds.
type serveState struct {
	rootDir       string
	fileIndex     *index.FileIndex
	contentIndex  *index.ContentIndex
	filter        *filter.Engine
	analysisCache *cache.Cache
	cachePath     string
	workers       int
	skipPaths     []string
	dispatch      *analyzer.Dispatch
	logger        *slog.Logger
}

// rebuild runs a full build and swaps both indexes to the fresh result.
// Returns the indexed file count and total size.
func (s *serveState) rebuild(ctx context.Context, forceRefresh bool) (int, int64, error) {
	idx, warnings, err := builder.Build(ctx, builder.Options{
		Root:         s.rootDir,
		Filter:       s.filter,
		Cache:        s.analysisCache,
		CachePath:    s.cachePath,
		Dispatch:     s.dispatch,
		ForceRefresh: forceRefresh,
		Workers:      s.workers,
		SkipPaths:    s.skipPaths,
		Logger:       s.logger,
	})
	if err != nil {
		return 0, 0, err
	}
	for _, w := range warnings {
		s.logger.Warn("build warning", "path", w.Path, "message", w.Message)
	}

	s.fileIndex.ReplaceAll(idx.Files)

	if err := s.contentIndex.Clear(); err != nil {
		return 0, 0, fmt.Errorf("clearing content index: %w", err)
	}
	var totalSize int64
	for _, record := range idx.Files {
		totalSize += record.SizeBytes

		absPath := filepath.Join(s.rootDir, filepath.FromSlash(record.Path))
		content, readErr := os.ReadFile(absPath)
		if readErr != nil {
			s.logger.Debug("skipped content indexing", "path", record.Path, "error", readErr)
			continue
		}
		if err := s.contentIndex.Put(record.Path, string(content), record.Language); err != nil {
			s.logger.Warn("content indexing failed", "path", record.Path, "error", err)
		}
	}

	return idx.TotalFiles, totalSize, nil
}

// indexSingleFile re-filters, re-analyzes, and re-indexes one file. Used by
// the watcher and periodic sync, where files change individually.
func (s *serveState) indexSingleFile(absPath, relPath string, info os.FileInfo) error {
	content, err := readFileWithRetry(absPath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	if language.IsBinaryContent(content) {
		return fmt.Errorf("binary file")
	}
	if decision := s.filter.Accept(relPath, info.Size(), content); decision != filter.Accepted {
		return fmt.Errorf("filtered: %s", decision)
	}

	lang := language.Detect(relPath)
	result := s.dispatch.Analyze(relPath, content, lang)
	lineCount := analyzer.CountLines(content)
	fp := cache.NewFingerprint(content, info.Size(), info.ModTime())

	s.analysisCache.Commit(relPath, cache.Entry{
		Fingerprint: fp,
		Language:    lang,
		LineCount:   lineCount,
		Payload:     result.Payload,
	})

	s.fileIndex.Put(&index.FileRecord{
		Path:        relPath,
		Language:    lang,
		SizeBytes:   info.Size(),
		ModTime:     info.ModTime(),
		LineCount:   lineCount,
		Fingerprint: fp,
		Payload:     result.Payload,
		Degraded:    result.Degraded,
	})
	if err := s.contentIndex.Put(relPath, string(content), lang); err != nil {
		return fmt.Errorf("indexing content: %w", err)
	}

	return nil
}

// removeFile drops one file from both indexes and the cache.
func (s *serveState) removeFile(relPath string) {
	s.fileIndex.Remove(relPath)
	if err := s.contentIndex.Remove(relPath); err != nil {
		s.logger.Debug("content index removal failed", "path", relPath, "error", err)
	}
	s.analysisCache.Remove(relPath)
}

// readFileWithRetry attempts to read a file, retrying once after a short delay
// if the file is locked (common on Windows when editors are saving).
func readFileWithRetry(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		time.Sleep(50 * time.Millisecond)
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// handleWatcherEvents processes debounced file system events and updates the indexes.
func (s *serveState) handleWatcherEvents(fileWatcher *watcher.Watcher) {
	skipSelf := make(map[string]struct{}, len(s.skipPaths))
	for _, p := range s.skipPaths {
		skipSelf[filepath.Clean(p)] = struct{}{}
	}

	for events := range fileWatcher.Events() {
		for _, event := range events {
			// Own artifacts (cache snapshot, log file) churn constantly and
			// must never index themselves.
			if _, ok := skipSelf[filepath.Clean(event.Path)]; ok {
				continue
			}

			relPath, err := filepath.Rel(s.rootDir, event.Path)
			if err != nil {
				continue
			}
			relPath = filepath.ToSlash(relPath)

			switch event.Op {
			case watcher.OpRemove, watcher.OpRename:
				s.removeFile(relPath)
				s.logger.Debug("removed from index", "path", relPath)

			case watcher.OpCreate, watcher.OpWrite:
				// Ignore-rule changes re-filter everything else, so reload
				// and move on.
				baseName := filepath.Base(event.Path)
				if baseName == ".gitignore" || baseName == ".codebriefignore" {
					s.filter.Reload()
					s.logger.Info("reloaded ignore rules", "trigger", baseName)
					continue
				}

				info, err := os.Stat(event.Path)
				if err != nil || info.IsDir() {
					continue
				}

				if err := s.indexSingleFile(event.Path, relPath, info); err != nil {
					s.logger.Debug("skipped file update", "path", relPath, "error", err)
					continue
				}
				s.logger.Debug("updated index", "path", relPath)
			}
		}
	}
}
