package analyzer

import (
	"regexp"
	"strings"
)

// JSAnalyzer extracts structure from JavaScript and TypeScript sources with
// regular expressions. It targets the declaration forms that matter for an
// index (imports, requires, named functions, arrow functions bound to a
// name, classes, exported constants) and ignores everything inside bodies.
type JSAnalyzer struct{}

var (
	jsImportRe  = regexp.MustCompile(`(?m)^\s*import\s+(?:[\w${},*\s]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe = regexp.MustCompile(`(?:const|let|var)\s+[\w${},\s]+\s*=\s*require\(\s*['"]([^'"]+)['"]\s*\)`)

	jsFunctionRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(([^)]*)\)`)
	jsArrowRe    = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\(([^)]*)\)|([A-Za-z_$][\w$]*))\s*(?::\s*[\w<>,\[\]\s.|&]+)?\s*=>`)

	jsClassRe  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)(?:\s+extends\s+([\w$.]+))?(?:\s+implements\s+([\w$.,\s]+))?`)
	jsMethodRe = regexp.MustCompile(`(?m)^\s{2,}(?:public\s+|private\s+|protected\s+|static\s+|readonly\s+)*(?:async\s+)?([A-Za-z_$][\w$]*)\s*\(([^)]*)\)\s*(?::\s*[\w<>,\[\]\s.|&]+)?\s*\{`)

	jsConstRe = regexp.MustCompile(`(?m)^(?:export\s+)?(?:const|let|var)\s+([A-Z_][A-Z0-9_]*)\s*[=:]`)
)

func (j *JSAnalyzer) Analyze(content []byte) (*Payload, error) {
	src := string(content)
	payload := &Payload{}

	for _, m := range jsImportRe.FindAllStringSubmatch(src, -1) {
		payload.Imports = append(payload.Imports, m[1])
	}
	for _, m := range jsRequireRe.FindAllStringSubmatch(src, -1) {
		payload.Imports = append(payload.Imports, m[1])
	}

	classRanges := jsClassBodies(src)

	for _, m := range jsFunctionRe.FindAllStringSubmatchIndex(src, -1) {
		if insideAny(classRanges, m[0]) {
			continue
		}
		name := src[m[2]:m[3]]
		fn := Function{Name: name, Line: lineAt(src, m[0])}
		if m[4] >= 0 {
			fn.Args = splitParamNames(src[m[4]:m[5]])
		}
		payload.Functions = append(payload.Functions, fn)
	}

	for _, m := range jsArrowRe.FindAllStringSubmatchIndex(src, -1) {
		if insideAny(classRanges, m[0]) {
			continue
		}
		name := src[m[2]:m[3]]
		fn := Function{Name: name, Line: lineAt(src, m[0])}
		if m[4] >= 0 {
			fn.Args = splitParamNames(src[m[4]:m[5]])
		} else if m[6] >= 0 {
			fn.Args = []string{src[m[6]:m[7]]}
		}
		payload.Functions = append(payload.Functions, fn)
	}

	for _, m := range jsClassRe.FindAllStringSubmatchIndex(src, -1) {
		class := Class{Name: src[m[2]:m[3]], Line: lineAt(src, m[0])}
		if m[4] >= 0 {
			class.Bases = []string{src[m[4]:m[5]]}
		}
		if m[6] >= 0 {
			for _, iface := range strings.Split(src[m[6]:m[7]], ",") {
				class.Implements = append(class.Implements, strings.TrimSpace(iface))
			}
		}
		body := jsBodyAfter(src, m[1])
		for _, method := range jsMethodRe.FindAllStringSubmatch(body, -1) {
			name := method[1]
			if name == "if" || name == "for" || name == "while" || name == "switch" || name == "catch" {
				continue
			}
			class.Methods = append(class.Methods, Function{
				Name: name,
				Args: splitParamNames(method[2]),
			})
		}
		payload.Classes = append(payload.Classes, class)
	}

	for _, m := range jsConstRe.FindAllStringSubmatch(src, -1) {
		payload.Variables = append(payload.Variables, m[1])
	}

	return payload, nil
}

// jsClassBodies returns the [start,end) ranges of class bodies so function
// matching can skip methods.
func jsClassBodies(src string) [][2]int {
	var ranges [][2]int
	for _, m := range jsClassRe.FindAllStringIndex(src, -1) {
		open := strings.Index(src[m[1]:], "{")
		if open < 0 {
			continue
		}
		start := m[1] + open
		end := matchBrace(src, start)
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// jsBodyAfter returns the brace-delimited block starting at or after pos.
func jsBodyAfter(src string, pos int) string {
	open := strings.Index(src[pos:], "{")
	if open < 0 {
		return ""
	}
	start := pos + open
	return src[start:matchBrace(src, start)]
}

// matchBrace returns the index one past the brace that closes the one at
// start. Brace counting ignores strings and comments; for indexing purposes
// an occasional overshoot is harmless.
func matchBrace(src string, start int) int {
	depth := 0
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(src)
}

// insideAny reports whether pos falls inside any of the ranges.
func insideAny(ranges [][2]int, pos int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// lineAt returns the 1-based line number of byte offset pos.
func lineAt(src string, pos int) int {
	return strings.Count(src[:pos], "\n") + 1
}

// splitParamNames splits a parameter list on top-level commas and reduces
// each parameter to its bare name (destructured parameters keep their
// braces, defaults and type annotations are dropped).
func splitParamNames(paramList string) []string {
	paramList = strings.TrimSpace(paramList)
	if paramList == "" {
		return nil
	}
	var names []string
	depth := 0
	start := 0
	flush := func(end int) {
		param := strings.TrimSpace(paramList[start:end])
		if param == "" {
			return
		}
		if idx := strings.IndexAny(param, ":="); idx >= 0 {
			param = strings.TrimSpace(param[:idx])
		}
		if param != "" {
			names = append(names, param)
		}
	}
	for i, r := range paramList {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(paramList))
	return names
}
