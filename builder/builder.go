// Package builder walks a project tree and produces the project index:
// filter, change detection, bounded parallel analysis, aggregation, and
// cache maintenance in one pass.
package builder

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/cache"
	"github.com/codebrief/codebrief/filter"
	"github.com/codebrief/codebrief/index"
	"github.com/codebrief/codebrief/language"
	"github.com/codebrief/codebrief/schema"
)

// peekBytes is how much of a file the filter heuristics get to see.
const peekBytes = 4096

// maxWorkers caps the analysis pool regardless of GOMAXPROCS.
const maxWorkers = 16

// Options configures one Build run. Zero-value fields get working defaults;
// only Root is required.
type Options struct {
	Root         string
	Filter       *filter.Engine
	Cache        *cache.Cache
	CachePath    string // where Save writes; empty skips persistence
	Dispatch     *analyzer.Dispatch
	ForceRefresh bool // ignore cache hits, re-analyze everything
	Workers      int
	SchemaTables []schema.Table // merged opaquely into the index
	SkipPaths    []string       // absolute paths skipped silently (own artifacts)
	Logger       *slog.Logger
}

// Warning is a non-fatal problem encountered during a build. Warnings go to
// the diagnostic channel; they never abort the run and never touch stdout.
type Warning struct {
	Path    string
	Message string
}

// candidate is an accepted file whose content changed since the last run.
type candidate struct {
	relPath string
	content []byte
	size    int64
	modTime time.Time
}

// Build indexes the tree under options.Root. The only fatal error before
// traversal is an invalid root; after that, problems degrade into warnings.
// Context cancellation aborts the run without touching the cache snapshot.
func Build(ctx context.Context, options Options) (*index.ProjectIndex, []Warning, error) {
	rootInfo, err := os.Stat(options.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid root directory %s: %w", options.Root, err)
	}
	if !rootInfo.IsDir() {
		return nil, nil, fmt.Errorf("root %s is not a directory", options.Root)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if options.Filter == nil {
		options.Filter = filter.NewEngine(filter.Options{RootDir: options.Root})
	}
	if options.Cache == nil {
		options.Cache = cache.New()
	}
	if options.Dispatch == nil {
		options.Dispatch = analyzer.NewDispatch()
	}
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	skipSelf := make(map[string]struct{}, len(options.SkipPaths)+1)
	if options.CachePath != "" {
		skipSelf[filepath.Clean(options.CachePath)] = struct{}{}
	}
	for _, p := range options.SkipPaths {
		skipSelf[filepath.Clean(p)] = struct{}{}
	}

	var (
		warnings  []Warning
		records   []*index.FileRecord // cache hits, collected during the walk
		changed   []candidate
		skipStats = make(map[string]int)
	)

	start := time.Now()

	walkErr := filepath.WalkDir(options.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("traversal: %v", walkErr)})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(options.Root, path)
		if relErr != nil {
			warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("resolving relative path: %v", relErr)})
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == options.Root {
				return nil
			}
			if options.Filter.SkipDir(rel) {
				return fs.SkipDir
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
			warnings = append(warnings, Warning{Path: rel, Message: fmt.Sprintf("stat: %v", infoErr)})
			return nil
		}

		peek, peekErr := readPeek(path)
		if peekErr != nil {
			warnings = append(warnings, Warning{Path: rel, Message: fmt.Sprintf("reading: %v", peekErr)})
			return nil
		}
		if language.IsBinaryContent(peek) {
			skipStats["binary"]++
			return nil
		}

		decision := options.Filter.Accept(rel, info.Size(), peek)
		if decision != filter.Accepted {
			skipStats[decision.String()]++
			logger.Debug("file rejected", "path", rel, "decision", decision.String())
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			warnings = append(warnings, Warning{Path: rel, Message: fmt.Sprintf("reading: %v", readErr)})
			return nil
		}

		fp := cache.NewFingerprint(content, info.Size(), info.ModTime())
		if !options.ForceRefresh {
			if entry, ok := options.Cache.Lookup(rel); ok && entry.Fingerprint.Matches(fp) {
				records = append(records, &index.FileRecord{
					Path:        rel,
					Language:    entry.Language,
					SizeBytes:   info.Size(),
					ModTime:     info.ModTime(),
					LineCount:   entry.LineCount,
					Fingerprint: entry.Fingerprint,
					Payload:     entry.Payload,
					FromCache:   true,
				})
				return nil
			}
		}

		changed = append(changed, candidate{
			relPath: rel,
			content: content,
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, warnings, fmt.Errorf("walking %s: %w", options.Root, walkErr)
	}

	cachedCount := len(records)

	// Only changed files fan out; the pool is bounded and workers share no
	// state beyond the mutex-guarded merge.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, c := range changed {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			lang := language.Detect(c.relPath)
			result := options.Dispatch.Analyze(c.relPath, c.content, lang)
			lineCount := analyzer.CountLines(c.content)
			fp := cache.NewFingerprint(c.content, c.size, c.modTime)

			options.Cache.Commit(c.relPath, cache.Entry{
				Fingerprint: fp,
				Language:    lang,
				LineCount:   lineCount,
				Payload:     result.Payload,
			})

			mu.Lock()
			records = append(records, &index.FileRecord{
				Path:        c.relPath,
				Language:    lang,
				SizeBytes:   c.size,
				ModTime:     c.modTime,
				LineCount:   lineCount,
				Fingerprint: fp,
				Payload:     result.Payload,
				Degraded:    result.Degraded,
			})
			if result.Degraded {
				warnings = append(warnings, Warning{Path: c.relPath, Message: result.Reason})
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, warnings, fmt.Errorf("analyzing changed files: %w", err)
	}

	idx := index.NewProjectIndex(options.Root, records)
	idx.SchemaTables = options.SchemaTables

	surviving := make(map[string]struct{}, len(idx.Files))
	for _, record := range idx.Files {
		surviving[record.Path] = struct{}{}
	}
	pruned := options.Cache.Prune(surviving)

	// A cancelled run must not replace the previous snapshot.
	if ctx.Err() == nil && options.CachePath != "" {
		if err := options.Cache.Save(options.CachePath); err != nil {
			warnings = append(warnings, Warning{Path: options.CachePath, Message: fmt.Sprintf("saving cache: %v", err)})
		}
	}

	logger.Info("index build complete",
		"root", options.Root,
		"files", idx.TotalFiles,
		"lines", idx.TotalLines,
		"analyzed", len(changed),
		"cached", cachedCount,
		"pruned", pruned,
		"rejected_pattern", skipStats[filter.RejectedPattern.String()],
		"rejected_vendor", skipStats[filter.RejectedVendor.String()],
		"rejected_too_large", skipStats[filter.RejectedTooLarge.String()],
		"binary", skipStats["binary"],
		"warnings", len(warnings),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return idx, warnings, nil
}

// readPeek returns up to peekBytes of the file head for content sniffing.
func readPeek(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, peekBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}
