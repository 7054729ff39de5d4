package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codebrief/codebrief/analyzer"
	"github.com/codebrief/codebrief/index"
)

func sampleIndex() *index.ProjectIndex {
	return index.NewProjectIndex("/proj", []*index.FileRecord{
		{
			Path:      "src/app.py",
			Language:  "python",
			LineCount: 40,
			Payload: &analyzer.Payload{
				Description: "App entrypoint.",
				Imports:     []string{"os", "requests"},
				Functions:   []analyzer.Function{{Name: "main", Args: []string{"argv"}}},
			},
		},
		{
			Path:      "web/view.jsx",
			Language:  "react",
			LineCount: 25,
			Payload: &analyzer.Payload{
				Components: []analyzer.Component{{Name: "View", Hooks: []string{"useState"}, Export: "default"}},
			},
		},
	})
}

func Test_NewDocument_Overview(t *testing.T) {
	doc := NewDocument(sampleIndex())

	if doc.ProjectOverview.TotalFiles != 2 || doc.ProjectOverview.TotalLOC != 65 {
		t.Errorf("unexpected overview %+v", doc.ProjectOverview)
	}
	python := doc.ProjectOverview.Languages["python"]
	if python.Files != 1 || python.LOC != 40 {
		t.Errorf("unexpected python stats %+v", python)
	}
	if len(doc.ProjectOverview.ExternalDependencies) != 2 {
		t.Errorf("unexpected external deps %v", doc.ProjectOverview.ExternalDependencies)
	}
	if len(doc.Files) != 2 || doc.Files[0].Path != "src/app.py" {
		t.Errorf("unexpected files %v", doc.Files)
	}
}

func Test_NewDocument_TruncationLimits(t *testing.T) {
	var functions []analyzer.Function
	for i := 0; i < 30; i++ {
		functions = append(functions, analyzer.Function{Name: fmt.Sprintf("fn%d", i)})
	}
	var imports []string
	for i := 0; i < 15; i++ {
		imports = append(imports, fmt.Sprintf("mod%d", i))
	}

	idx := index.NewProjectIndex("/proj", []*index.FileRecord{{
		Path:     "big.py",
		Language: "python",
		Payload: &analyzer.Payload{
			Description: strings.Repeat("d", 300),
			Imports:     imports,
			Functions:   functions,
		},
	}})
	doc := NewDocument(idx)

	file := doc.Files[0]
	if len(file.Description) != maxDescriptionChars {
		t.Errorf("description length = %d, want %d", len(file.Description), maxDescriptionChars)
	}
	if len(file.Imports) != maxImports {
		t.Errorf("imports = %d, want %d", len(file.Imports), maxImports)
	}
	if len(file.Functions) != maxFunctions {
		t.Errorf("functions = %d, want %d", len(file.Functions), maxFunctions)
	}
}

func Test_NewDocument_ClassMethodsCollapseToNames(t *testing.T) {
	idx := index.NewProjectIndex("/proj", []*index.FileRecord{{
		Path:     "m.py",
		Language: "python",
		Payload: &analyzer.Payload{
			Classes: []analyzer.Class{{
				Name:    "Store",
				Methods: []analyzer.Function{{Name: "get"}, {Name: "put"}},
			}},
		},
	}})
	doc := NewDocument(idx)

	class := doc.Files[0].Classes[0]
	if len(class.Methods) != 2 || class.Methods[0] != "get" || class.Methods[1] != "put" {
		t.Errorf("expected method names only, got %v", class.Methods)
	}
}

func Test_Document_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebase_index.json")
	doc := NewDocument(sampleIndex())

	if err := doc.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	var loaded Document
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if loaded.ProjectOverview.TotalFiles != 2 {
		t.Errorf("unexpected reloaded overview %+v", loaded.ProjectOverview)
	}
}

func Test_Document_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	doc := NewDocument(sampleIndex())
	if err := doc.Save(filepath.Join(dir, "out.json")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only out.json, got %d entries", len(entries))
	}
}

func Test_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, NewDocument(sampleIndex()))

	out := buf.String()
	for _, want := range []string{"Total files: 2", "Total lines: 65", "python: 1 files", "React components: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q in:\n%s", want, out)
		}
	}
}
