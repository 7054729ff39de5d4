package analyzer

import (
	"regexp"
	"strings"
)

// CAnalyzer extracts structure from C sources and headers: includes, macro
// defines, function definitions, structs, and file-scope globals.
type CAnalyzer struct{}

var (
	cIncludeRe = regexp.MustCompile(`(?m)^\s*#\s*include\s*[<"]([^>"]+)[>"]`)
	cDefineRe  = regexp.MustCompile(`(?m)^\s*#\s*define\s+(\w+)`)

	// Function definitions only: a body brace follows the signature. The
	// return type may span several tokens (static unsigned long, etc).
	cFunctionRe = regexp.MustCompile(`(?m)^(?:static\s+|inline\s+|extern\s+)*[\w]+(?:\s+[\w]+)*[\s*]+(\w+)\s*\(([^;{)]*)\)\s*\{`)

	cStructRe  = regexp.MustCompile(`(?m)^\s*(typedef\s+)?struct\s+(\w*)\s*\{`)
	cTypedefRe = regexp.MustCompile(`\}\s*(\w+)\s*;`)

	cGlobalRe = regexp.MustCompile(`(?m)^(?:static\s+|extern\s+|const\s+)*[\w]+(?:\s+[\w]+)*[\s*]+(\w+)(?:\[\w*\])?\s*(?:=[^;]*)?;`)

	cKeywords = map[string]bool{
		"if": true, "for": true, "while": true, "switch": true,
		"return": true, "sizeof": true, "else": true, "do": true,
	}
)

func (c *CAnalyzer) Analyze(content []byte) (*Payload, error) {
	src := stripCComments(string(content))
	payload := &Payload{}

	for _, m := range cIncludeRe.FindAllStringSubmatch(src, -1) {
		payload.Imports = append(payload.Imports, m[1])
	}
	for _, m := range cDefineRe.FindAllStringSubmatch(src, -1) {
		payload.Defines = append(payload.Defines, m[1])
	}

	cExtractStructs(src, payload)
	cExtractFunctions(src, payload)
	cExtractGlobals(src, payload)

	return payload, nil
}

// CppAnalyzer extends C extraction with classes (bases, template flag,
// methods) and namespaces.
type CppAnalyzer struct {
	c CAnalyzer
}

var (
	cppNamespaceRe = regexp.MustCompile(`(?m)^\s*namespace\s+(\w+)`)
	cppClassRe     = regexp.MustCompile(`(?m)^\s*(template\s*<[^>]*>\s*)?class\s+(\w+)(?:\s*(?:final)?\s*:\s*([^{]+))?\s*\{`)
	cppMethodRe    = regexp.MustCompile(`(?m)^\s+(?:virtual\s+|static\s+|inline\s+|explicit\s+|constexpr\s+)*[\w:<>,~&]+(?:\s+[\w:<>,&]+)*[\s*&]+(\w+|~\w+|operator\S+)\s*\(([^;{)]*)\)`)
)

func (cp *CppAnalyzer) Analyze(content []byte) (*Payload, error) {
	payload, err := cp.c.Analyze(content)
	if err != nil {
		return payload, err
	}

	src := stripCComments(string(content))

	for _, m := range cppNamespaceRe.FindAllStringSubmatch(src, -1) {
		payload.Namespaces = append(payload.Namespaces, m[1])
	}

	for _, m := range cppClassRe.FindAllStringSubmatchIndex(src, -1) {
		class := Class{
			Name:       src[m[4]:m[5]],
			IsTemplate: m[2] >= 0,
			Line:       lineAt(src, m[0]),
		}
		if m[6] >= 0 {
			for _, base := range strings.Split(src[m[6]:m[7]], ",") {
				base = strings.TrimSpace(base)
				base = strings.TrimPrefix(base, "public ")
				base = strings.TrimPrefix(base, "private ")
				base = strings.TrimPrefix(base, "protected ")
				base = strings.TrimPrefix(base, "virtual ")
				if base = strings.TrimSpace(base); base != "" {
					class.Bases = append(class.Bases, base)
				}
			}
		}

		open := m[1] - 1 // the match ends right after the opening brace
		body := src[open:matchBrace(src, open)]
		for _, method := range cppMethodRe.FindAllStringSubmatch(body, -1) {
			name := method[1]
			if cKeywords[name] {
				continue
			}
			class.Methods = append(class.Methods, Function{
				Name: name,
				Args: splitParamNames(method[2]),
			})
		}

		payload.Classes = append(payload.Classes, class)
	}

	return payload, nil
}

func cExtractStructs(src string, payload *Payload) {
	for _, m := range cStructRe.FindAllStringSubmatchIndex(src, -1) {
		st := Struct{
			IsTypedef: m[2] >= 0,
			Line:      lineAt(src, m[0]),
		}
		if m[4] >= 0 {
			st.Name = src[m[4]:m[5]]
		}

		open := m[1] - 1
		end := matchBrace(src, open)
		body := src[open:end]

		// typedef struct { ... } name;
		if st.Name == "" && end < len(src) {
			tail := src[end-1:]
			if t := cTypedefRe.FindStringSubmatch(tail); t != nil {
				st.Name = t[1]
			}
		}
		if st.Name == "" {
			continue
		}

		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || line == "{" || line == "}" || !strings.HasSuffix(line, ";") {
				continue
			}
			fields := strings.Fields(strings.TrimSuffix(line, ";"))
			if len(fields) < 2 {
				continue
			}
			member := strings.TrimLeft(fields[len(fields)-1], "*")
			if idx := strings.IndexAny(member, "[:"); idx >= 0 {
				member = member[:idx]
			}
			if member != "" {
				st.Members = append(st.Members, member)
			}
		}

		payload.Structs = append(payload.Structs, st)
	}
}

func cExtractFunctions(src string, payload *Payload) {
	braceDepths := cDepthMap(src)
	for _, m := range cFunctionRe.FindAllStringSubmatchIndex(src, -1) {
		if braceDepths[m[0]] > 0 {
			continue // inside another body or a struct
		}
		name := src[m[2]:m[3]]
		if cKeywords[name] {
			continue
		}
		payload.Functions = append(payload.Functions, Function{
			Name: name,
			Args: splitParamNames(src[m[4]:m[5]]),
			Line: lineAt(src, m[0]),
		})
	}
}

func cExtractGlobals(src string, payload *Payload) {
	braceDepths := cDepthMap(src)
	for _, m := range cGlobalRe.FindAllStringSubmatchIndex(src, -1) {
		if braceDepths[m[0]] > 0 {
			continue
		}
		name := src[m[2]:m[3]]
		if cKeywords[name] || name == "void" {
			continue
		}
		payload.Variables = append(payload.Variables, name)
	}
}

// cDepthMap maps each byte offset to its brace nesting depth at that point.
func cDepthMap(src string) []int {
	depths := make([]int, len(src)+1)
	depth := 0
	for i := 0; i < len(src); i++ {
		depths[i] = depth
		switch src[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	depths[len(src)] = depth
	return depths
}

// stripCComments blanks out // and /* */ comments, preserving offsets and
// newlines so line numbers stay accurate.
func stripCComments(src string) string {
	out := []byte(src)
	for i := 0; i < len(out); i++ {
		if out[i] != '/' || i+1 >= len(out) {
			continue
		}
		switch out[i+1] {
		case '/':
			for i < len(out) && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		case '*':
			out[i], out[i+1] = ' ', ' '
			i += 2
			for i < len(out) {
				if out[i] == '*' && i+1 < len(out) && out[i+1] == '/' {
					out[i], out[i+1] = ' ', ' '
					i++
					break
				}
				if out[i] != '\n' {
					out[i] = ' '
				}
				i++
			}
		}
	}
	return string(out)
}
