// Package report renders a built project index into the output document:
// an LLM-oriented JSON file with per-section truncation limits, plus a
// console summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/index"
	"github.com/codebrief/codebrief/schema"
)

// Truncation limits keep the document useful as LLM context. Full payloads
// stay in the cache; only the document is trimmed.
const (
	maxDescriptionChars = 200
	maxDocChars         = 100
	maxImports          = 10
	maxFunctions        = 20
	maxClasses          = 10
	maxMethods          = 15
	maxProperties       = 10
	maxComponents       = 15
	maxDefines          = 10
	maxStructs          = 10
	maxStructMembers    = 10
	maxNamespaces       = 10
	maxVariables        = 10
)

// Document is the saved index document.
type Document struct {
	ProjectOverview Overview            `json:"project_overview"`
	DependencyMap   map[string][]string `json:"dependency_map,omitempty"`
	Files           []FileSummary       `json:"files"`
	DatabaseSchema  []schema.Table      `json:"database_schema,omitempty"`
}

// Overview aggregates whole-project numbers.
type Overview struct {
	TotalFiles           int                      `json:"total_files"`
	TotalLOC             int                      `json:"total_loc"`
	Languages            map[string]LanguageStats `json:"languages"`
	ExternalDependencies []string                 `json:"external_dependencies"`
}

// LanguageStats is the per-language breakdown in the overview.
type LanguageStats struct {
	Files int `json:"files"`
	LOC   int `json:"loc"`
}

// FunctionSummary is the truncated per-function entry.
type FunctionSummary struct {
	Name       string   `json:"name"`
	Args       []string `json:"args,omitempty"`
	Doc        string   `json:"doc,omitempty"`
	ReturnType string   `json:"return_type,omitempty"`
}

// ClassSummary is the truncated per-class entry. Methods collapse to names.
type ClassSummary struct {
	Name       string   `json:"name"`
	Namespace  string   `json:"namespace,omitempty"`
	Bases      []string `json:"bases,omitempty"`
	Implements []string `json:"implements,omitempty"`
	Methods    []string `json:"methods,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Doc        string   `json:"doc,omitempty"`
	IsTemplate bool     `json:"is_template,omitempty"`
}

// ComponentSummary is the truncated per-component entry.
type ComponentSummary struct {
	Name       string   `json:"name"`
	Props      []string `json:"props,omitempty"`
	Hooks      []string `json:"hooks,omitempty"`
	ExportType string   `json:"export_type,omitempty"`
}

// StructSummary is the truncated per-struct entry.
type StructSummary struct {
	Name      string   `json:"name"`
	Members   []string `json:"members,omitempty"`
	IsTypedef bool     `json:"is_typedef,omitempty"`
}

// FileSummary is one file's entry in the document.
type FileSummary struct {
	Path         string             `json:"path"`
	Language     string             `json:"language"`
	LOC          int                `json:"loc"`
	Description  string             `json:"description,omitempty"`
	Imports      []string           `json:"imports,omitempty"`
	Functions    []FunctionSummary  `json:"functions,omitempty"`
	Classes      []ClassSummary     `json:"classes,omitempty"`
	Components   []ComponentSummary `json:"react_components,omitempty"`
	Defines      []string           `json:"defines,omitempty"`
	Structs      []StructSummary    `json:"structs,omitempty"`
	Namespaces   []string           `json:"namespaces,omitempty"`
	KeyVariables []string           `json:"key_variables,omitempty"`
	Degraded     bool               `json:"degraded,omitempty"`
}

// NewDocument builds the output document from a project index, applying the
// truncation limits section by section.
func NewDocument(idx *index.ProjectIndex) *Document {
	doc := &Document{
		ProjectOverview: Overview{
			TotalFiles:           idx.TotalFiles,
			TotalLOC:             idx.TotalLines,
			Languages:            make(map[string]LanguageStats, len(idx.Languages)),
			ExternalDependencies: idx.ExternalDependencies,
		},
		DependencyMap:  idx.DependencyMap,
		Files:          make([]FileSummary, 0, len(idx.Files)),
		DatabaseSchema: idx.SchemaTables,
	}
	if doc.ProjectOverview.ExternalDependencies == nil {
		doc.ProjectOverview.ExternalDependencies = []string{}
	}

	for lang, stat := range idx.Languages {
		doc.ProjectOverview.Languages[lang] = LanguageStats{Files: stat.Files, LOC: stat.Lines}
	}

	for _, record := range idx.Files {
		doc.Files = append(doc.Files, summarizeFile(record))
	}
	return doc
}

func summarizeFile(record *index.FileRecord) FileSummary {
	summary := FileSummary{
		Path:     record.Path,
		Language: record.Language,
		LOC:      record.LineCount,
		Degraded: record.Degraded,
	}
	payload := record.Payload
	if payload == nil {
		return summary
	}

	summary.Description = truncate(payload.Description, maxDescriptionChars)
	summary.Imports = capStrings(payload.Imports, maxImports)
	summary.Defines = capStrings(payload.Defines, maxDefines)
	summary.Namespaces = capStrings(payload.Namespaces, maxNamespaces)
	summary.KeyVariables = capStrings(payload.Variables, maxVariables)

	for _, fn := range capFunctions(payload.Functions) {
		summary.Functions = append(summary.Functions, FunctionSummary{
			Name:       fn.Name,
			Args:       fn.Args,
			Doc:        truncate(fn.Doc, maxDocChars),
			ReturnType: fn.ReturnType,
		})
	}

	classes := payload.Classes
	if len(classes) > maxClasses {
		classes = classes[:maxClasses]
	}
	for _, class := range classes {
		methods := class.Methods
		if len(methods) > maxMethods {
			methods = methods[:maxMethods]
		}
		methodNames := make([]string, 0, len(methods))
		for _, m := range methods {
			methodNames = append(methodNames, m.Name)
		}
		summary.Classes = append(summary.Classes, ClassSummary{
			Name:       class.Name,
			Namespace:  class.Namespace,
			Bases:      class.Bases,
			Implements: class.Implements,
			Methods:    methodNames,
			Properties: capStrings(class.Properties, maxProperties),
			Doc:        truncate(class.Doc, maxDocChars),
			IsTemplate: class.IsTemplate,
		})
	}

	components := payload.Components
	if len(components) > maxComponents {
		components = components[:maxComponents]
	}
	for _, c := range components {
		summary.Components = append(summary.Components, ComponentSummary{
			Name:       c.Name,
			Props:      c.Props,
			Hooks:      c.Hooks,
			ExportType: c.Export,
		})
	}

	structs := payload.Structs
	if len(structs) > maxStructs {
		structs = structs[:maxStructs]
	}
	for _, s := range structs {
		summary.Structs = append(summary.Structs, StructSummary{
			Name:      s.Name,
			Members:   capStrings(s.Members, maxStructMembers),
			IsTypedef: s.IsTypedef,
		})
	}

	return summary
}

func capFunctions(functions []analyzer.Function) []analyzer.Function {
	if len(functions) > maxFunctions {
		return functions[:maxFunctions]
	}
	return functions
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

// Save writes the document as indented JSON, atomically: a temp file in the
// destination directory is renamed over the target.
func (doc *Document) Save(path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".codebrief-index-*.tmp")
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

// Write serializes the document to a writer (stdout in one-shot mode when
// no output path is set).
func (doc *Document) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// PrintSummary writes a human-readable recap of the document.
func PrintSummary(w io.Writer, doc *Document) {
	overview := doc.ProjectOverview

	fmt.Fprintln(w, "CODEBASE ANALYSIS SUMMARY")
	fmt.Fprintln(w, "=========================")
	fmt.Fprintf(w, "Total files: %d\n", overview.TotalFiles)
	fmt.Fprintf(w, "Total lines: %d\n", overview.TotalLOC)

	if len(overview.Languages) > 0 {
		fmt.Fprintln(w, "\nLanguage breakdown:")
		langs := make([]string, 0, len(overview.Languages))
		for lang := range overview.Languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			stat := overview.Languages[lang]
			fmt.Fprintf(w, "  %s: %d files (%d lines)\n", lang, stat.Files, stat.LOC)
		}
	}

	if len(overview.ExternalDependencies) > 0 {
		fmt.Fprintf(w, "\nExternal dependencies: %d\n", len(overview.ExternalDependencies))
	}

	componentCount := 0
	hookSet := make(map[string]struct{})
	for _, file := range doc.Files {
		componentCount += len(file.Components)
		for _, c := range file.Components {
			for _, h := range c.Hooks {
				hookSet[h] = struct{}{}
			}
		}
	}
	if componentCount > 0 {
		fmt.Fprintf(w, "\nReact components: %d\n", componentCount)
		if len(hookSet) > 0 {
			hooks := make([]string, 0, len(hookSet))
			for h := range hookSet {
				hooks = append(hooks, h)
			}
			sort.Strings(hooks)
			if len(hooks) > 8 {
				hooks = hooks[:8]
			}
			fmt.Fprintf(w, "  Common hooks: %v\n", hooks)
		}
	}

	if len(doc.DatabaseSchema) > 0 {
		fmt.Fprintf(w, "\nDatabase tables: %d\n", len(doc.DatabaseSchema))
	}
}
