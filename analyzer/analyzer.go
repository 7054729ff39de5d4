package analyzer

import "fmt"

// Payload is the normalized structural record extracted from one file.
// Every analyzer produces this same shape; sections an analyzer does not
// populate stay empty, so consumers never need to know which analyzer ran.
type Payload struct {
	Description string      `json:"description,omitempty"`
	Imports     []string    `json:"imports,omitempty"`
	Functions   []Function  `json:"functions,omitempty"`
	Classes     []Class     `json:"classes,omitempty"`
	Components  []Component `json:"components,omitempty"`
	Structs     []Struct    `json:"structs,omitempty"`
	Defines     []string    `json:"defines,omitempty"`
	Namespaces  []string    `json:"namespaces,omitempty"`
	Variables   []string    `json:"variables,omitempty"`
}

// Function describes a free function or a method.
type Function struct {
	Name       string   `json:"name"`
	Args       []string `json:"args,omitempty"`
	Doc        string   `json:"doc,omitempty"`
	ReturnType string   `json:"return_type,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	Line       int      `json:"line,omitempty"`
}

// Class describes a class-like declaration: a Python/JS/PHP class, a Go
// struct or interface with its method set, or a C++ class.
type Class struct {
	Name       string     `json:"name"`
	Namespace  string     `json:"namespace,omitempty"`
	Bases      []string   `json:"bases,omitempty"`
	Implements []string   `json:"implements,omitempty"`
	Methods    []Function `json:"methods,omitempty"`
	Properties []string   `json:"properties,omitempty"`
	Doc        string     `json:"doc,omitempty"`
	IsTemplate bool       `json:"is_template,omitempty"`
	Line       int        `json:"line,omitempty"`
}

// Component describes a UI component: name, declared props, and hook calls.
// These are heuristic text extractions, not type resolution.
type Component struct {
	Name   string   `json:"name"`
	Props  []string `json:"props,omitempty"`
	Hooks  []string `json:"hooks,omitempty"`
	Export string   `json:"export,omitempty"` // default, named, both, none
	Line   int      `json:"line,omitempty"`
}

// Struct describes a plain C struct.
type Struct struct {
	Name      string   `json:"name"`
	Members   []string `json:"members,omitempty"`
	IsTypedef bool     `json:"is_typedef,omitempty"`
	Line      int      `json:"line,omitempty"`
}

// Result carries an analysis outcome. Failure is represented as data
// rather than an error so callers cannot forget to handle it: a degraded
// result still holds a usable (basic) payload plus the reason extraction
// fell back.
type Result struct {
	Payload  *Payload
	Degraded bool
	Reason   string
}

// Analyzer turns file content into a structural payload. Implementations
// must be deterministic: identical content yields an identical payload,
// with no dependence on ambient state.
type Analyzer interface {
	Analyze(content []byte) (*Payload, error)
}

// Dispatch selects the analyzer for a language tag and guards the analysis
// boundary: no analyzer failure, including a panic, escapes past Analyze.
type Dispatch struct {
	registry map[string]Analyzer
}

// NewDispatch creates a dispatch with all built-in language analyzers
// registered. Unregistered tags fall back to a basic payload.
func NewDispatch() *Dispatch {
	d := &Dispatch{registry: make(map[string]Analyzer)}

	d.Register("go", &GoAnalyzer{})
	d.Register("python", &PythonAnalyzer{})

	js := &JSAnalyzer{}
	d.Register("javascript", js)
	d.Register("typescript", js)

	react := &ReactAnalyzer{}
	d.Register("react", react)
	d.Register("react_ts", react)

	d.Register("php", &PHPAnalyzer{})

	c := &CAnalyzer{}
	d.Register("c", c)
	d.Register("c_header", c)

	cpp := &CppAnalyzer{}
	d.Register("cpp", cpp)
	d.Register("cpp_header", cpp)

	return d
}

// Register adds or replaces the analyzer for a language tag. Adding a
// language is a local change: one analyzer, one registration.
func (d *Dispatch) Register(tag string, a Analyzer) {
	d.registry[tag] = a
}

// Supported reports whether a structural analyzer is registered for the tag.
func (d *Dispatch) Supported(tag string) bool {
	_, ok := d.registry[tag]
	return ok
}

// Analyze runs the analyzer registered for lang over content. It never
// panics and never returns a nil payload: unsupported languages get an
// empty basic payload, and any analyzer error or panic is downgraded to a
// basic payload with Degraded set and the reason recorded.
func (d *Dispatch) Analyze(relPath string, content []byte, lang string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Payload:  &Payload{},
				Degraded: true,
				Reason:   fmt.Sprintf("analyzer panic on %s: %v", relPath, r),
			}
		}
	}()

	a, ok := d.registry[lang]
	if !ok {
		// Unrecognized language: basic payload, not a degradation.
		return Result{Payload: &Payload{}}
	}

	payload, err := a.Analyze(content)
	if err != nil {
		if payload == nil {
			payload = &Payload{}
		}
		return Result{
			Payload:  payload,
			Degraded: true,
			Reason:   fmt.Sprintf("%s analysis of %s degraded: %v", lang, relPath, err),
		}
	}
	if payload == nil {
		payload = &Payload{}
	}
	return Result{Payload: payload}
}

// CountLines returns the number of lines in content, counting a trailing
// partial line. Empty content has zero lines.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	lines := 1
	for _, b := range content {
		if b == '\n' {
			lines++
		}
	}
	if content[len(content)-1] == '\n' {
		lines--
	}
	return lines
}
