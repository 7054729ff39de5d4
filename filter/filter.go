package filter

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Decision is the outcome of classifying a candidate path.
type Decision int

const (
	Accepted Decision = iota
	// RejectedPattern covers user ignores, default patterns, and
	// .gitignore/.codebriefignore rules.
	RejectedPattern
	// RejectedVendor covers vendor path segments, known library names,
	// minified signatures, and license-header signatures.
	RejectedVendor
	RejectedTooLarge
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case RejectedPattern:
		return "rejected-pattern"
	case RejectedVendor:
		return "rejected-vendor"
	case RejectedTooLarge:
		return "rejected-too-large"
	default:
		return "unknown"
	}
}

// Policy holds the heuristic thresholds for vendor and minified detection.
// They are policy constants exposed as configuration so boundary values can
// be tested instead of baked-in literals.
type Policy struct {
	MaxFileSizeBytes   int64   // files above this are rejected as too large
	MinifiedLineLength int     // a line longer than this counts as "long"
	MinifiedRatio      float64 // fraction of long lines that marks a file minified
	MinifiedCheckLines int     // how many leading lines the minified check inspects
	HeaderScanBytes    int     // how much of the header the license sniff reads
}

// DefaultPolicy returns the thresholds used by the original tool.
func DefaultPolicy() Policy {
	return Policy{
		MaxFileSizeBytes:   500 * 1024,
		MinifiedLineLength: 200,
		MinifiedRatio:      0.8,
		MinifiedCheckLines: 10,
		HeaderScanBytes:    1024,
	}
}

// Options configures a filter Engine.
type Options struct {
	RootDir string
	// IgnorePatterns are user-supplied globs rejected before any heuristic.
	IgnorePatterns []string
	// AllowPatterns are user-supplied globs accepted before any heuristic;
	// they let a user rescue a path the vendor detection would drop.
	AllowPatterns []string
	// LibraryNames extend the built-in known-library list.
	LibraryNames []string
	Policy       Policy
}

// Engine classifies candidate paths as accepted or rejected. Classification
// is pure: Accept never touches the filesystem beyond the peek it is given.
// Thread-safe: Reload acquires a write lock, Accept/SkipDir a read lock.
type Engine struct {
	mu             sync.RWMutex
	rootDir        string
	gitIgnore      gitignore.GitIgnore
	briefIgnore    gitignore.GitIgnore
	ignorePatterns []string
	allowPatterns  []string
	libraryNames   []string
	policy         Policy
}

// NewEngine creates a filter engine combining user patterns, default
// patterns, .gitignore/.codebriefignore rules, and vendor heuristics.
func NewEngine(options Options) *Engine {
	policy := options.Policy
	if policy.MaxFileSizeBytes <= 0 {
		policy.MaxFileSizeBytes = DefaultPolicy().MaxFileSizeBytes
	}
	if policy.MinifiedLineLength <= 0 {
		policy.MinifiedLineLength = DefaultPolicy().MinifiedLineLength
	}
	if policy.MinifiedRatio <= 0 {
		policy.MinifiedRatio = DefaultPolicy().MinifiedRatio
	}
	if policy.MinifiedCheckLines <= 0 {
		policy.MinifiedCheckLines = DefaultPolicy().MinifiedCheckLines
	}
	if policy.HeaderScanBytes <= 0 {
		policy.HeaderScanBytes = DefaultPolicy().HeaderScanBytes
	}

	engine := &Engine{
		rootDir:        options.RootDir,
		ignorePatterns: options.IgnorePatterns,
		allowPatterns:  options.AllowPatterns,
		policy:         policy,
	}
	engine.libraryNames = append(engine.libraryNames, knownLibraryNames...)
	engine.libraryNames = append(engine.libraryNames, lowerAll(options.LibraryNames)...)

	engine.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	engine.briefIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".codebriefignore"), options.RootDir)

	return engine
}

// Policy returns the thresholds the engine classifies with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Accept classifies one candidate file. relPath uses forward slashes and is
// relative to the root. peek is a bounded content prefix used only by the
// minified and license-header checks; pass nil to skip content sniffing.
//
// Rule order is fixed and short-circuiting: user ignores, user allows,
// pattern rules, vendor paths, known libraries, size, minified signature,
// license header, default accept.
func (e *Engine) Accept(relPath string, size int64, peek []byte) Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()

	relPath = filepath.ToSlash(relPath)

	if matchesAnyGlob(e.ignorePatterns, relPath) {
		return RejectedPattern
	}
	if matchesAnyGlob(e.allowPatterns, relPath) {
		return Accepted
	}
	if matchesDefaultPatterns(relPath) {
		return RejectedPattern
	}
	if e.matchesIgnoreFiles(relPath, false) {
		return RejectedPattern
	}
	if isVendorPath(relPath) {
		return RejectedVendor
	}
	if e.isKnownLibrary(relPath) {
		return RejectedVendor
	}
	if size > e.policy.MaxFileSizeBytes {
		return RejectedTooLarge
	}
	if e.isMinified(relPath, peek) {
		return RejectedVendor
	}
	if e.hasVendorHeader(peek) {
		return RejectedVendor
	}
	return Accepted
}

// SkipDir reports whether a directory should be pruned from traversal.
// relPath is the directory path relative to the root, forward slashes.
func (e *Engine) SkipDir(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if _, ok := alwaysSkipDirs[filepath.Base(relPath)]; ok {
		return true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if matchesAnyGlob(e.allowPatterns, relPath) {
		return false
	}
	if matchesAnyGlob(e.ignorePatterns, relPath) {
		return true
	}
	return e.matchesIgnoreFiles(relPath, true)
}

// Reload re-reads .gitignore and .codebriefignore from disk. Used when a
// watcher detects changes to either file.
func (e *Engine) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(e.rootDir, ".gitignore"), e.rootDir)
	newBriefIgnore := loadIgnoreFile(filepath.Join(e.rootDir, ".codebriefignore"), e.rootDir)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gitIgnore = newGitIgnore
	e.briefIgnore = newBriefIgnore
}

// matchesIgnoreFiles checks the parsed .gitignore and .codebriefignore
// rules. Directory rules like "secrets/" must cover everything beneath the
// directory, and Relative() only applies them to the directory path itself,
// so each ancestor is tested as a directory before the path is.
func (e *Engine) matchesIgnoreFiles(relPath string, isDir bool) bool {
	if e.gitIgnore == nil && e.briefIgnore == nil {
		return false
	}

	parts := strings.Split(relPath, "/")
	ancestor := ""
	for i := 0; i < len(parts)-1; i++ {
		if i == 0 {
			ancestor = parts[0]
		} else {
			ancestor += "/" + parts[i]
		}
		if e.matchesIgnoreRule(ancestor, true) {
			return true
		}
	}
	return e.matchesIgnoreRule(relPath, isDir)
}

// matchesIgnoreRule tests one path against both ignore files. Relative()
// does not require the path to exist on disk.
func (e *Engine) matchesIgnoreRule(relPath string, isDir bool) bool {
	if e.gitIgnore != nil {
		if match := e.gitIgnore.Relative(relPath, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	if e.briefIgnore != nil {
		if match := e.briefIgnore.Relative(relPath, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	return false
}

// versionSuffix matches trailing version fragments like "-3.6.1" or ".min".
var versionSuffix = regexp.MustCompile(`[-._]\d+(\.\d+)*.*$`)

// isKnownLibrary checks the filename stem against the known-library list,
// with version suffixes stripped (jquery-3.6.1.min.js matches jquery).
func (e *Engine) isKnownLibrary(relPath string) bool {
	stem := filepath.Base(relPath)
	if ext := filepath.Ext(stem); ext != "" {
		stem = strings.TrimSuffix(stem, ext)
	}
	stem = strings.ToLower(strings.TrimSuffix(stem, ".min"))

	for _, name := range e.libraryNames {
		if strings.Contains(stem, name) {
			return true
		}
	}

	base := versionSuffix.ReplaceAllString(stem, "")
	if base != stem {
		for _, name := range e.libraryNames {
			if base == name {
				return true
			}
		}
	}

	for _, suffix := range librarySuffixes {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// isMinified inspects the leading lines of a JS/CSS peek for the very long
// lines characteristic of minified bundles.
func (e *Engine) isMinified(relPath string, peek []byte) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	if ext != ".js" && ext != ".css" {
		return false
	}
	if len(peek) == 0 {
		return false
	}

	// Trailing newlines must not dilute the ratio: a one-line bundle ending
	// in "\n" is one line, not two. A trailing partial line from a truncated
	// peek still counts, since minified bundles routinely exceed the peek
	// window on their first line.
	lines := strings.Split(string(peek), "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > e.policy.MinifiedCheckLines {
		lines = lines[:e.policy.MinifiedCheckLines]
	}
	longLines := 0
	for _, line := range lines {
		if len(line) > e.policy.MinifiedLineLength {
			longLines++
		}
	}
	if len(lines) == 0 {
		return false
	}
	return float64(longLines)/float64(len(lines)) > e.policy.MinifiedRatio
}

// hasVendorHeader checks the first HeaderScanBytes of the peek for
// license/copyright markers.
func (e *Engine) hasVendorHeader(peek []byte) bool {
	if len(peek) == 0 {
		return false
	}
	if len(peek) > e.policy.HeaderScanBytes {
		peek = peek[:e.policy.HeaderScanBytes]
	}
	header := strings.ToLower(string(peek))
	for _, marker := range vendorMarkers {
		if strings.Contains(header, marker) {
			return true
		}
	}
	return false
}

// matchesDefaultPatterns checks the path against the built-in ignore list.
// Non-glob patterns match any path component; glob patterns match the
// basename and the full relative path.
func matchesDefaultPatterns(relPath string) bool {
	baseName := strings.ToLower(filepath.Base(relPath))

	for _, pattern := range DefaultIgnorePatterns {
		if !strings.ContainsAny(pattern, "*?[") {
			lowered := strings.ToLower(pattern)
			if baseName == lowered {
				return true
			}
			for _, part := range strings.Split(strings.ToLower(relPath), "/") {
				if part == lowered {
					return true
				}
			}
			continue
		}

		if matched, err := filepath.Match(strings.ToLower(pattern), baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesAnyGlob matches a path against user doublestar patterns, trying
// both the full relative path and the basename.
func matchesAnyGlob(patterns []string, relPath string) bool {
	baseName := filepath.Base(relPath)
	for _, pattern := range patterns {
		pattern = strings.ReplaceAll(pattern, "\\", "/")
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// isVendorPath checks for third-party path segments anywhere in the path.
// Matching is component-bounded so "mylib/" does not trip on "lib/".
func isVendorPath(relPath string) bool {
	bounded := "/" + strings.ToLower(relPath)
	for _, segment := range vendorPathSegments {
		if strings.Contains(bounded, "/"+segment) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses an io.Reader so the file handle is closed promptly on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
