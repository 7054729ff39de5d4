package analyzer

import (
	"regexp"
	"strings"
)

// PHPAnalyzer extracts structure from PHP sources with regular expressions:
// namespace, use/require imports, free functions, and classes with their
// extends/implements clauses, methods, and properties.
type PHPAnalyzer struct{}

var (
	phpNamespaceRe = regexp.MustCompile(`(?m)^\s*namespace\s+([\w\\]+)\s*;`)
	phpUseRe       = regexp.MustCompile(`(?m)^\s*use\s+([\w\\]+)(?:\s+as\s+\w+)?\s*;`)
	phpRequireRe   = regexp.MustCompile(`(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`)

	phpFunctionRe = regexp.MustCompile(`(?m)^\s*function\s+(\w+)\s*\(([^)]*)\)`)
	phpClassRe    = regexp.MustCompile(`(?m)^\s*(?:abstract\s+|final\s+)?(class|interface|trait)\s+(\w+)(?:\s+extends\s+([\w\\]+))?(?:\s+implements\s+([\w\\,\s]+))?`)
	phpMethodRe   = regexp.MustCompile(`(?m)^\s+(?:public\s+|private\s+|protected\s+|static\s+|abstract\s+|final\s+)*function\s+(\w+)\s*\(([^)]*)\)`)
	phpPropertyRe = regexp.MustCompile(`(?m)^\s+(?:public|private|protected)(?:\s+static)?(?:\s+\??[\w\\]+)?\s+\$(\w+)`)
)

func (p *PHPAnalyzer) Analyze(content []byte) (*Payload, error) {
	src := string(content)
	payload := &Payload{}

	namespace := ""
	if m := phpNamespaceRe.FindStringSubmatch(src); m != nil {
		namespace = m[1]
		payload.Namespaces = append(payload.Namespaces, namespace)
	}

	for _, m := range phpUseRe.FindAllStringSubmatch(src, -1) {
		payload.Imports = append(payload.Imports, m[1])
	}
	for _, m := range phpRequireRe.FindAllStringSubmatch(src, -1) {
		payload.Imports = append(payload.Imports, m[1])
	}

	classRanges := phpClassBodies(src)

	for _, m := range phpFunctionRe.FindAllStringSubmatchIndex(src, -1) {
		if insideAny(classRanges, m[0]) {
			continue
		}
		payload.Functions = append(payload.Functions, Function{
			Name: src[m[2]:m[3]],
			Args: phpParamNames(src[m[4]:m[5]]),
			Line: lineAt(src, m[0]),
		})
	}

	for _, m := range phpClassRe.FindAllStringSubmatchIndex(src, -1) {
		class := Class{
			Name:      src[m[4]:m[5]],
			Namespace: namespace,
			Line:      lineAt(src, m[0]),
		}
		if m[6] >= 0 {
			class.Bases = []string{src[m[6]:m[7]]}
		}
		if m[8] >= 0 {
			for _, iface := range strings.Split(src[m[8]:m[9]], ",") {
				class.Implements = append(class.Implements, strings.TrimSpace(iface))
			}
		}

		body := jsBodyAfter(src, m[1])
		for _, method := range phpMethodRe.FindAllStringSubmatch(body, -1) {
			class.Methods = append(class.Methods, Function{
				Name: method[1],
				Args: phpParamNames(method[2]),
			})
		}
		for _, property := range phpPropertyRe.FindAllStringSubmatch(body, -1) {
			class.Properties = append(class.Properties, property[1])
		}

		payload.Classes = append(payload.Classes, class)
	}

	return payload, nil
}

// phpClassBodies returns the body ranges of class-like declarations so free
// function matching can skip methods.
func phpClassBodies(src string) [][2]int {
	var ranges [][2]int
	for _, m := range phpClassRe.FindAllStringIndex(src, -1) {
		open := strings.Index(src[m[1]:], "{")
		if open < 0 {
			continue
		}
		start := m[1] + open
		ranges = append(ranges, [2]int{start, matchBrace(src, start)})
	}
	return ranges
}

// phpParamNames reduces a parameter list to bare names with the $ sigil and
// type hints and defaults stripped.
func phpParamNames(paramList string) []string {
	paramList = strings.TrimSpace(paramList)
	if paramList == "" {
		return nil
	}
	var names []string
	for _, param := range strings.Split(paramList, ",") {
		param = strings.TrimSpace(param)
		if idx := strings.Index(param, "="); idx >= 0 {
			param = strings.TrimSpace(param[:idx])
		}
		dollar := strings.Index(param, "$")
		if dollar < 0 {
			continue
		}
		name := param[dollar+1:]
		if idx := strings.IndexAny(name, " \t"); idx >= 0 {
			name = name[:idx]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
