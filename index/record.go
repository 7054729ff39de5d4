package index

import (
	"sort"
	"strings"
	"time"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/cache"
	"github.com/codebrief/codebrief/schema"
)

// FileRecord is one indexed file: identity, fingerprint, and the structural
// payload extracted from its content.
type FileRecord struct {
	Path        string            `json:"path"` // relative to the project root, forward slashes
	Language    string            `json:"language"`
	SizeBytes   int64             `json:"size_bytes"`
	ModTime     time.Time         `json:"mod_time"`
	LineCount   int               `json:"line_count"`
	Fingerprint cache.Fingerprint `json:"fingerprint"`
	Payload     *analyzer.Payload `json:"payload,omitempty"`
	Degraded    bool              `json:"degraded,omitempty"`
	FromCache   bool              `json:"-"` // true when the payload was reused, not recomputed
}

// LanguageStat aggregates per-language totals.
type LanguageStat struct {
	Files int `json:"files"`
	Lines int `json:"lines"`
}

// ProjectIndex is the complete index of one project tree at one point in
// time: the per-file records plus the aggregates derived from them.
type ProjectIndex struct {
	Root        string    `json:"root"`
	GeneratedAt time.Time `json:"generated_at"`

	Files []*FileRecord `json:"files"` // sorted by Path

	TotalFiles           int                     `json:"total_files"`
	TotalLines           int                     `json:"total_lines"`
	Languages            map[string]LanguageStat `json:"languages"`
	DependencyMap        map[string][]string     `json:"dependency_map,omitempty"`
	ExternalDependencies []string                `json:"external_dependencies,omitempty"`
	SchemaTables         []schema.Table          `json:"schema_tables,omitempty"`
}

// NewProjectIndex assembles a project index from file records: sorts them,
// computes language totals, and resolves the dependency map. Aggregation is
// deterministic, so two indexes built from identical records are identical.
func NewProjectIndex(root string, files []*FileRecord) *ProjectIndex {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	idx := &ProjectIndex{
		Root:        root,
		GeneratedAt: time.Now().UTC(),
		Files:       files,
		Languages:   make(map[string]LanguageStat),
	}

	for _, file := range files {
		idx.TotalFiles++
		idx.TotalLines += file.LineCount

		stat := idx.Languages[file.Language]
		stat.Files++
		stat.Lines += file.LineCount
		idx.Languages[file.Language] = stat
	}

	idx.DependencyMap, idx.ExternalDependencies = resolveDependencies(files)
	return idx
}

// Lookup returns the record for a relative path, or nil.
func (idx *ProjectIndex) Lookup(relPath string) *FileRecord {
	i := sort.Search(len(idx.Files), func(i int) bool { return idx.Files[i].Path >= relPath })
	if i < len(idx.Files) && idx.Files[i].Path == relPath {
		return idx.Files[i]
	}
	return nil
}

// resolveDependencies builds the per-file import map and the deduplicated,
// sorted list of imports that do not resolve to files inside the project.
func resolveDependencies(files []*FileRecord) (map[string][]string, []string) {
	internal := internalModuleNames(files)

	dependencyMap := make(map[string][]string)
	externalSet := make(map[string]struct{})

	for _, file := range files {
		if file.Payload == nil || len(file.Payload.Imports) == 0 {
			continue
		}
		dependencyMap[file.Path] = file.Payload.Imports

		for _, imp := range file.Payload.Imports {
			if isInternalImport(imp, internal) {
				continue
			}
			externalSet[rootModule(imp)] = struct{}{}
		}
	}

	external := make([]string, 0, len(externalSet))
	for dep := range externalSet {
		external = append(external, dep)
	}
	sort.Strings(external)

	if len(dependencyMap) == 0 {
		dependencyMap = nil
	}
	return dependencyMap, external
}

// internalModuleNames collects the names an import could use to refer to a
// project file: the path stem and each directory component.
func internalModuleNames(files []*FileRecord) map[string]struct{} {
	names := make(map[string]struct{})
	for _, file := range files {
		path := file.Path
		if dot := strings.LastIndex(path, "."); dot > 0 {
			path = path[:dot]
		}
		for _, part := range strings.Split(path, "/") {
			if part != "" {
				names[part] = struct{}{}
			}
		}
	}
	return names
}

// isInternalImport reports whether an import refers to the project itself:
// a relative path, an absolute include, or a name matching a project module.
func isInternalImport(imp string, internal map[string]struct{}) bool {
	if strings.HasPrefix(imp, ".") || strings.HasPrefix(imp, "/") {
		return true
	}
	if _, ok := internal[rootModule(imp)]; ok {
		return true
	}
	return false
}

// rootModule reduces an import to its leading module name: "a.b.c" and
// "a/b/c" both yield "a". Header imports keep their basename without
// extension so <sys/types.h> groups under "types".
func rootModule(imp string) string {
	if strings.HasSuffix(imp, ".h") || strings.HasSuffix(imp, ".hpp") {
		base := imp
		if idx := strings.LastIndex(base, "/"); idx >= 0 {
			base = base[idx+1:]
		}
		if dot := strings.LastIndex(base, "."); dot > 0 {
			base = base[:dot]
		}
		return base
	}
	for _, sep := range []string{"/", ".", "\\"} {
		if idx := strings.Index(imp, sep); idx > 0 {
			return imp[:idx]
		}
	}
	return imp
}
