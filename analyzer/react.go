package analyzer

import (
	"regexp"
	"strings"
)

// ReactAnalyzer extracts structure from JSX/TSX sources. It runs the plain
// JS extraction first, then reinterprets capitalized declarations as
// components with their props, hook calls, and export form.
type ReactAnalyzer struct {
	js JSAnalyzer
}

var (
	reactFuncComponentRe  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?function\s+([A-Z][\w$]*)\s*\(([^)]*)\)`)
	reactArrowComponentRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let)\s+([A-Z][\w$]*)\s*(?::\s*[\w<>,.\[\]\s|&]+)?=\s*(?:React\.)?(?:memo\(|forwardRef\()?\s*(?:async\s+)?\(([^)]*)\)\s*(?::\s*[\w<>,.\[\]\s|&]+)?\s*=>`)
	reactClassComponentRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Z][\w$]*)\s+extends\s+(?:React\.)?(?:Pure)?Component`)

	reactHookRe          = regexp.MustCompile(`\b(use[A-Z]\w*)\s*\(`)
	reactDefaultExportRe = regexp.MustCompile(`(?m)^\s*export\s+default\s+(?:function\s+|class\s+)?([A-Z][\w$]*)`)
	reactNamedExportRe   = regexp.MustCompile(`(?m)^\s*export\s+(?:const|let|function|class)\s+([A-Z][\w$]*)`)
)

func (r *ReactAnalyzer) Analyze(content []byte) (*Payload, error) {
	payload, err := r.js.Analyze(content)
	if err != nil {
		return payload, err
	}

	src := string(content)
	defaultExports, namedExports := reactExportSets(src)

	seen := make(map[string]bool)
	// bodyFrom must point past the parameter list so the hook scan finds the
	// function body brace, not a destructured-props brace.
	addComponent := func(name, params string, start, bodyFrom int) {
		if seen[name] {
			return
		}
		seen[name] = true

		component := Component{
			Name:   name,
			Props:  reactProps(params),
			Hooks:  reactHooksInBody(src, bodyFrom),
			Export: reactExportForm(name, defaultExports, namedExports),
			Line:   lineAt(src, start),
		}
		payload.Components = append(payload.Components, component)
	}

	for _, m := range reactFuncComponentRe.FindAllStringSubmatchIndex(src, -1) {
		addComponent(src[m[2]:m[3]], sliceGroup(src, m, 2), m[0], m[1])
	}
	for _, m := range reactArrowComponentRe.FindAllStringSubmatchIndex(src, -1) {
		addComponent(src[m[2]:m[3]], sliceGroup(src, m, 2), m[0], m[1])
	}
	for _, m := range reactClassComponentRe.FindAllStringSubmatchIndex(src, -1) {
		addComponent(src[m[2]:m[3]], "", m[0], m[1])
	}

	// Drop extracted functions that are really components; they are reported
	// once, in the components section.
	filtered := payload.Functions[:0]
	for _, fn := range payload.Functions {
		if seen[fn.Name] {
			continue
		}
		filtered = append(filtered, fn)
	}
	payload.Functions = filtered

	return payload, nil
}

// reactProps extracts prop names from a destructured first parameter, or
// returns the parameter name itself for `props`-style signatures.
func reactProps(params string) []string {
	params = strings.TrimSpace(params)
	if params == "" {
		return nil
	}
	if !strings.HasPrefix(params, "{") {
		name := params
		if idx := strings.IndexAny(name, ",:"); idx >= 0 {
			name = name[:idx]
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil
		}
		return []string{name}
	}

	inner := strings.TrimPrefix(params, "{")
	if idx := strings.Index(inner, "}"); idx >= 0 {
		inner = inner[:idx]
	}
	var props []string
	for _, prop := range strings.Split(inner, ",") {
		prop = strings.TrimSpace(prop)
		if idx := strings.IndexAny(prop, ":="); idx >= 0 {
			prop = strings.TrimSpace(prop[:idx])
		}
		if prop == "" || prop == "..." {
			continue
		}
		prop = strings.TrimPrefix(prop, "...")
		props = append(props, prop)
	}
	return props
}

// reactHooksInBody collects distinct hook calls in the brace block following
// the declaration at pos.
func reactHooksInBody(src string, pos int) []string {
	body := jsBodyAfter(src, pos)
	if body == "" {
		return nil
	}
	var hooks []string
	seen := make(map[string]bool)
	for _, m := range reactHookRe.FindAllStringSubmatch(body, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		hooks = append(hooks, m[1])
	}
	return hooks
}

func reactExportSets(src string) (defaults, named map[string]bool) {
	defaults = make(map[string]bool)
	named = make(map[string]bool)
	for _, m := range reactDefaultExportRe.FindAllStringSubmatch(src, -1) {
		defaults[m[1]] = true
	}
	for _, m := range reactNamedExportRe.FindAllStringSubmatch(src, -1) {
		named[m[1]] = true
	}
	return defaults, named
}

func reactExportForm(name string, defaults, named map[string]bool) string {
	switch {
	case defaults[name] && named[name]:
		return "both"
	case defaults[name]:
		return "default"
	case named[name]:
		return "named"
	default:
		return "none"
	}
}

// sliceGroup returns submatch group g from an index match, or "" when the
// group did not participate.
func sliceGroup(src string, m []int, g int) string {
	lo, hi := m[2*g], m[2*g+1]
	if lo < 0 {
		return ""
	}
	return src[lo:hi]
}
