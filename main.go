package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/builder"
	"github.com/codebrief/codebrief/cache"
	"github.com/codebrief/codebrief/filter"
	"github.com/codebrief/codebrief/index"
	"github.com/codebrief/codebrief/register"
	"github.com/codebrief/codebrief/report"
	"github.com/codebrief/codebrief/schema"
	"github.com/codebrief/codebrief/server"
	"github.com/codebrief/codebrief/tools"
	"github.com/codebrief/codebrief/watcher"
)

// repeatableFlag is a repeatable CLI flag collecting string values.
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, ", ") }
func (r *repeatableFlag) Set(value string) error {
	*r = append(*r, value)
	return nil
}

// commonFlags are the options shared by one-shot and serve mode.
type commonFlags struct {
	ignores       repeatableFlag
	allows        repeatableFlag
	libraries     repeatableFlag
	forceRefresh  bool
	cacheFile     string
	maxFileSizeKB int64
	workers       int
	logLevel      string
	logFile       string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.Var(&c.ignores, "ignore", "Extra ignore glob pattern (repeatable)")
	fs.Var(&c.allows, "allow", "Glob pattern accepted before vendor heuristics (repeatable)")
	fs.Var(&c.libraries, "ignore-library", "Extra known-library name to reject (repeatable)")
	fs.BoolVar(&c.forceRefresh, "force-refresh", false, "Ignore the cache and re-analyze every file")
	fs.StringVar(&c.cacheFile, "cache-file", ".codebrief_cache.json", "Analysis cache path (relative paths resolve against root)")
	fs.Int64Var(&c.maxFileSizeKB, "max-file-size", 500, "Maximum file size in KB")
	fs.IntVar(&c.workers, "workers", 0, "Analysis worker count (default: number of CPUs)")
	fs.StringVar(&c.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&c.logFile, "log-file", "", "Log file path (default: stderr)")
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "register":
			register.Run("codebrief", os.Args[2:])
			return
		}
	}
	runOneShot(os.Args[1:])
}

// runOneShot builds the index once and writes the output document.
func runOneShot(args []string) {
	fs := flag.NewFlagSet("codebrief", flag.ExitOnError)
	var common commonFlags
	common.register(fs)

	var outputPath string
	var summary bool
	var dbPath string
	fs.StringVar(&outputPath, "o", "codebase_index.json", "Output document path; \"-\" writes to stdout")
	fs.BoolVar(&summary, "summary", false, "Print a human-readable summary after indexing")
	fs.StringVar(&dbPath, "db-path", "", "SQLite database file to introspect into the document")
	fs.Parse(args)

	rootDir := fs.Arg(0)
	if rootDir == "" {
		rootDir = "."
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving root: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(common.logLevel, common.logFile)

	cachePath := common.cacheFile
	if !filepath.IsAbs(cachePath) {
		cachePath = filepath.Join(rootDir, cachePath)
	}

	ctx := context.Background()

	var schemaTables []schema.Table
	if dbPath != "" {
		schemaTables, err = schema.Introspect(ctx, dbPath)
		if err != nil {
			logger.Warn("database introspection failed, continuing without schema", "dbPath", dbPath, "error", err)
		}
	}

	engine := filter.NewEngine(filter.Options{
		RootDir:        rootDir,
		IgnorePatterns: common.ignores,
		AllowPatterns:  common.allows,
		LibraryNames:   common.libraries,
		Policy:         filter.Policy{MaxFileSizeBytes: common.maxFileSizeKB * 1024},
	})

	skipPaths := []string{cachePath}
	if outputPath != "-" {
		absOut, absErr := filepath.Abs(outputPath)
		if absErr == nil {
			skipPaths = append(skipPaths, absOut)
		}
	}
	if common.logFile != "" {
		skipPaths = append(skipPaths, common.logFile)
	}

	idx, warnings, err := builder.Build(ctx, builder.Options{
		Root:         rootDir,
		Filter:       engine,
		Cache:        cache.Load(cachePath),
		CachePath:    cachePath,
		ForceRefresh: common.forceRefresh,
		Workers:      common.workers,
		SchemaTables: schemaTables,
		SkipPaths:    skipPaths,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn("build warning", "path", w.Path, "message", w.Message)
	}

	doc := report.NewDocument(idx)
	if outputPath == "-" {
		if err := doc.Write(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing document: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := doc.Save(outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving document: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Index written to %s\n", outputPath)
	}

	if summary {
		report.PrintSummary(os.Stderr, doc)
	}
}

// runServe builds the index, then serves it over MCP stdio with a filesystem
// watcher and periodic sync keeping it fresh.
func runServe(args []string) {
	fs := flag.NewFlagSet("codebrief serve", flag.ExitOnError)
	var common commonFlags
	common.register(fs)

	var rootDir string
	var syncIntervalSeconds int
	fs.StringVar(&rootDir, "root", "", "Project root directory (default: current working directory)")
	fs.IntVar(&syncIntervalSeconds, "sync-interval", 300, "Seconds between index consistency checks (0 disables)")
	fs.Parse(args)

	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	rootDir, _ = filepath.Abs(rootDir)

	// Default log file: codebrief.log in the root directory. Stdout carries
	// MCP frames, so logs must not go there.
	logFile := common.logFile
	if logFile == "" {
		logFile = filepath.Join(rootDir, "codebrief.log")
	}
	logger := setupLogger(common.logLevel, logFile)

	cachePath := common.cacheFile
	if !filepath.IsAbs(cachePath) {
		cachePath = filepath.Join(rootDir, cachePath)
	}

	logger.Info("starting codebrief serve",
		"root", rootDir,
		"maxFileSizeKB", common.maxFileSizeKB,
		"syncIntervalSeconds", syncIntervalSeconds,
	)

	startTime := time.Now()

	engine := filter.NewEngine(filter.Options{
		RootDir:        rootDir,
		IgnorePatterns: common.ignores,
		AllowPatterns:  common.allows,
		LibraryNames:   common.libraries,
		Policy:         filter.Policy{MaxFileSizeBytes: common.maxFileSizeKB * 1024},
	})

	contentIndex, err := index.NewContentIndex()
	if err != nil {
		logger.Error("failed to create content index", "error", err)
		os.Exit(1)
	}
	defer contentIndex.Close()

	state := &serveState{
		rootDir:       rootDir,
		fileIndex:     index.NewFileIndex(),
		contentIndex:  contentIndex,
		filter:        engine,
		analysisCache: cache.Load(cachePath),
		cachePath:     cachePath,
		workers:       common.workers,
		skipPaths:     []string{cachePath, logFile},
		dispatch:      analyzer.NewDispatch(),
		logger:        logger,
	}

	indexedCount, totalSize, err := state.rebuild(context.Background(), common.forceRefresh)
	if err != nil {
		logger.Error("initial indexing failed", "error", err)
		os.Exit(1)
	}
	logger.Info("initial indexing complete",
		"files", indexedCount,
		"totalSize", totalSize,
		"duration", time.Since(startTime),
	)

	// File watcher keeps the live index fresh between syncs.
	fileWatcher, err := watcher.New(rootDir, engine, logger)
	if err != nil {
		logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
	} else {
		go fileWatcher.Start()
		go state.handleWatcherEvents(fileWatcher)
		defer fileWatcher.Close()
	}

	stopSync := make(chan struct{})
	defer close(stopSync)
	if syncIntervalSeconds > 0 {
		go state.runPeriodicSync(syncIntervalSeconds, stopSync)
	}

	searchHandler := &tools.SearchHandler{ContentIndex: contentIndex, Logger: logger}
	filesHandler := &tools.FilesHandler{FileIndex: state.fileIndex, Logger: logger}
	symbolsHandler := &tools.SymbolsHandler{FileIndex: state.fileIndex, Logger: logger}
	statusHandler := &tools.StatusHandler{
		FileIndex:    state.fileIndex,
		ContentIndex: contentIndex,
		StartTime:    startTime,
		RootDir:      rootDir,
		Logger:       logger,
	}
	reindexHandler := &tools.ReindexHandler{
		Logger: logger,
		DoReindex: func() (int, int64, string, error) {
			start := time.Now()
			// Reload ignore rules in case .gitignore or .codebriefignore changed
			engine.Reload()
			count, size, err := state.rebuild(context.Background(), true)
			if err != nil {
				return 0, 0, "", err
			}
			return count, size, time.Since(start).Round(time.Millisecond).String(), nil
		},
	}

	mcpServer := server.Setup(searchHandler, filesHandler, symbolsHandler, statusHandler, reindexHandler)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
