package index

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
)

// ContentIndex provides full-text search over accepted file contents using
// an in-memory Bleve index. Raw content is kept alongside the index for
// line-level match extraction; Bleve stores only the searchable fields.
type ContentIndex struct {
	mu       sync.RWMutex
	index    bleve.Index
	contents map[string]string // key: relative path
}

// NewContentIndex creates an empty in-memory content index.
func NewContentIndex() (*ContentIndex, error) {
	bleveIndex, err := bleve.NewMemOnly(contentMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &ContentIndex{
		index:    bleveIndex,
		contents: make(map[string]string),
	}, nil
}

type contentDocument struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

func contentMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = false // raw content lives in the contents map
	contentField.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Store = true
	pathField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathField)

	langField := bleve.NewKeywordFieldMapping()
	langField.Store = true
	langField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("language", langField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Put adds or updates a file's content.
func (ci *ContentIndex) Put(relPath, content, language string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.contents[relPath] = content
	doc := contentDocument{Content: content, Path: relPath, Language: language}
	if err := ci.index.Index(relPath, doc); err != nil {
		return fmt.Errorf("indexing content of %s: %w", relPath, err)
	}
	return nil
}

// Remove drops a file from the index.
func (ci *ContentIndex) Remove(relPath string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	delete(ci.contents, relPath)
	if err := ci.index.Delete(relPath); err != nil {
		return fmt.Errorf("removing %s from content index: %w", relPath, err)
	}
	return nil
}

// LineMatch is one matching line with optional context.
type LineMatch struct {
	LineNumber    int
	LineText      string
	ContextBefore []string
	ContextAfter  []string
}

// ContentMatch groups the line matches found in one file.
type ContentMatch struct {
	Path    string
	Matches []LineMatch
}

// SearchOptions configures a content search.
type SearchOptions struct {
	Query        string
	Path         string // exact relative path; overrides Glob
	Glob         string // doublestar pattern over relative paths
	MaxResults   int    // max matched files
	ContextLines int
}

// Search runs a full-text query. Query syntax follows the tool surface:
// plain text is a word-level match, "quoted text" a phrase match, and
// /pattern/ a regexp match.
func (ci *ContentIndex) Search(options SearchOptions) ([]ContentMatch, int, error) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	if options.ContextLines < 0 {
		options.ContextLines = 0
	}

	request := bleve.NewSearchRequest(parseQuery(options.Query))
	// Over-fetch: path filters drop hits after the fact.
	request.Size = options.MaxResults * 5
	request.Fields = []string{"path", "language"}

	searchResults, err := ci.index.Search(request)
	if err != nil {
		return nil, 0, fmt.Errorf("searching content index: %w", err)
	}

	exactPath := strings.ReplaceAll(options.Path, "\\", "/")
	glob := strings.ReplaceAll(options.Glob, "\\", "/")

	var matches []ContentMatch
	totalLines := 0

	for _, hit := range searchResults.Hits {
		relPath := hit.ID
		content, ok := ci.contents[relPath]
		if !ok {
			continue
		}

		if exactPath != "" {
			if relPath != exactPath {
				continue
			}
		} else if glob != "" {
			if matched, err := doublestar.Match(glob, relPath); err != nil || !matched {
				continue
			}
		}

		lineMatches := matchingLines(content, options.Query, options.ContextLines)
		if len(lineMatches) == 0 {
			continue
		}
		totalLines += len(lineMatches)
		matches = append(matches, ContentMatch{Path: relPath, Matches: lineMatches})

		if len(matches) >= options.MaxResults {
			break
		}
	}

	return matches, totalLines, nil
}

// parseQuery maps the tool query syntax onto a Bleve query.
func parseQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return bleve.NewRegexpQuery(queryString[1 : len(queryString)-1])
	}
	if strings.HasPrefix(queryString, `"`) && strings.HasSuffix(queryString, `"`) && len(queryString) > 2 {
		return bleve.NewMatchPhraseQuery(queryString[1 : len(queryString)-1])
	}
	return bleve.NewMatchQuery(queryString)
}

// matchingLines scans content for the raw search term and returns 1-based
// line matches with surrounding context.
func matchingLines(content, queryString string, contextLines int) []LineMatch {
	term := strings.ToLower(rawTerm(queryString))
	lines := strings.Split(content, "\n")

	var matches []LineMatch
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), term) {
			continue
		}
		match := LineMatch{LineNumber: i + 1, LineText: line}

		for j := max(0, i-contextLines); j < i; j++ {
			match.ContextBefore = append(match.ContextBefore, lines[j])
		}
		for j := i + 1; j < min(len(lines), i+contextLines+1); j++ {
			match.ContextAfter = append(match.ContextAfter, lines[j])
		}

		matches = append(matches, match)
	}
	return matches
}

// rawTerm strips regex or phrase delimiters for line-level scanning.
func rawTerm(queryString string) string {
	queryString = strings.TrimSpace(queryString)
	for _, delim := range []string{"/", `"`} {
		if strings.HasPrefix(queryString, delim) && strings.HasSuffix(queryString, delim) && len(queryString) > 2 {
			return queryString[1 : len(queryString)-1]
		}
	}
	return queryString
}

// Content returns the stored raw content for a path.
func (ci *ContentIndex) Content(relPath string) (string, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	content, ok := ci.contents[strings.ReplaceAll(relPath, "\\", "/")]
	return content, ok
}

// DocumentCount returns the number of indexed documents.
func (ci *ContentIndex) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// Clear drops all documents and recreates the underlying index.
func (ci *ContentIndex) Clear() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.index.Close(); err != nil {
		return fmt.Errorf("closing content index: %w", err)
	}
	fresh, err := bleve.NewMemOnly(contentMapping())
	if err != nil {
		return fmt.Errorf("recreating content index: %w", err)
	}
	ci.index = fresh
	ci.contents = make(map[string]string)
	return nil
}

// Close releases the underlying index.
func (ci *ContentIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}
