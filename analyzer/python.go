package analyzer

import (
	"strings"
)

// PythonAnalyzer extracts structure from Python sources with a deterministic
// top-level line scanner. It reads only column-zero declarations (plus the
// methods one indent level inside a class), so it never misreads nested or
// conditional definitions as module structure.
type PythonAnalyzer struct{}

func (p *PythonAnalyzer) Analyze(content []byte) (*Payload, error) {
	lines := strings.Split(string(content), "\n")
	payload := &Payload{}

	payload.Description = pyModuleDocstring(lines)

	var pendingDecorators []string
	var currentClass *Class

	flushClass := func() {
		if currentClass != nil {
			payload.Classes = append(payload.Classes, *currentClass)
			currentClass = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indented := line != trimmed

		switch {
		case !indented && strings.HasPrefix(trimmed, "@"):
			flushClass()
			pendingDecorators = append(pendingDecorators, pyDecoratorName(trimmed))

		case !indented && (strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ")):
			flushClass()
			if module := pyImportModule(trimmed); module != "" {
				payload.Imports = append(payload.Imports, module)
			}
			pendingDecorators = nil

		case !indented && (strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def ")):
			flushClass()
			fn := pyFunction(lines, i, trimmed)
			fn.Decorators = pendingDecorators
			pendingDecorators = nil
			payload.Functions = append(payload.Functions, fn)

		case !indented && strings.HasPrefix(trimmed, "class "):
			flushClass()
			class := pyClass(lines, i, trimmed)
			pendingDecorators = nil
			currentClass = &class

		case indented && currentClass != nil:
			// One indent level inside the open class: collect methods.
			inner := strings.TrimSpace(line)
			if strings.HasPrefix(inner, "def ") || strings.HasPrefix(inner, "async def ") {
				method := pyFunction(lines, i, inner)
				currentClass.Methods = append(currentClass.Methods, method)
			}

		case !indented:
			// Any other column-zero statement closes an open class body.
			flushClass()
			pendingDecorators = nil
			if name := pyAssignmentTarget(trimmed); name != "" {
				payload.Variables = append(payload.Variables, name)
			}
		}
	}
	flushClass()

	return payload, nil
}

// pyModuleDocstring returns the module-level docstring first line, if the
// file opens with one (comments and blanks may precede it).
func pyModuleDocstring(lines []string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, quote := range []string{`"""`, "'''"} {
			if strings.HasPrefix(trimmed, quote) {
				body := strings.TrimPrefix(trimmed, quote)
				if idx := strings.Index(body, quote); idx >= 0 {
					body = body[:idx]
				}
				return strings.TrimSpace(body)
			}
		}
		return ""
	}
	return ""
}

// pyDecoratorName strips the @ and any call arguments.
func pyDecoratorName(trimmed string) string {
	name := strings.TrimPrefix(trimmed, "@")
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// pyImportModule returns the imported module for "import x" and "from x
// import y" statements.
func pyImportModule(trimmed string) string {
	if strings.HasPrefix(trimmed, "from ") {
		rest := strings.TrimPrefix(trimmed, "from ")
		if idx := strings.Index(rest, " import"); idx >= 0 {
			return strings.TrimSpace(rest[:idx])
		}
		return ""
	}
	rest := strings.TrimPrefix(trimmed, "import ")
	if idx := strings.Index(rest, " as "); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, ","); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, "#"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

// pyFunction parses a def line at lines[i] plus the docstring below it.
func pyFunction(lines []string, i int, trimmed string) Function {
	fn := Function{Line: i + 1}

	decl := strings.TrimPrefix(trimmed, "async ")
	decl = strings.TrimPrefix(decl, "def ")

	open := strings.Index(decl, "(")
	if open < 0 {
		fn.Name = strings.TrimSuffix(strings.TrimSpace(decl), ":")
		return fn
	}
	fn.Name = strings.TrimSpace(decl[:open])

	// The signature may span lines; join until the paren depth closes.
	sig := decl[open:]
	for j := i + 1; j < len(lines) && strings.Count(sig, "(") > strings.Count(sig, ")"); j++ {
		sig += " " + strings.TrimSpace(lines[j])
	}

	close := strings.LastIndex(sig, ")")
	if close > 0 {
		fn.Args = pySplitArgs(sig[1:close])
		rest := sig[close+1:]
		if idx := strings.Index(rest, "->"); idx >= 0 {
			ret := rest[idx+2:]
			ret = strings.TrimSuffix(strings.TrimSpace(ret), ":")
			fn.ReturnType = strings.TrimSpace(ret)
		}
	}

	fn.Doc = pyDocstringBelow(lines, i)
	return fn
}

// pySplitArgs splits a parameter list on top-level commas and keeps bare
// names, dropping defaults and annotations.
func pySplitArgs(paramList string) []string {
	var args []string
	depth := 0
	start := 0
	flush := func(end int) {
		arg := strings.TrimSpace(paramList[start:end])
		if arg == "" {
			return
		}
		if idx := strings.IndexAny(arg, ":="); idx >= 0 {
			arg = strings.TrimSpace(arg[:idx])
		}
		if arg == "" || arg == "/" {
			return
		}
		args = append(args, arg)
	}
	for i, r := range paramList {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(paramList))
	return args
}

// pyClass parses a class line at lines[i] plus the docstring below it.
func pyClass(lines []string, i int, trimmed string) Class {
	class := Class{Line: i + 1}

	decl := strings.TrimPrefix(trimmed, "class ")
	decl = strings.TrimSuffix(strings.TrimSpace(decl), ":")

	if open := strings.Index(decl, "("); open >= 0 {
		class.Name = strings.TrimSpace(decl[:open])
		bases := decl[open+1:]
		if close := strings.LastIndex(bases, ")"); close >= 0 {
			bases = bases[:close]
		}
		for _, base := range strings.Split(bases, ",") {
			base = strings.TrimSpace(base)
			if base == "" || strings.Contains(base, "=") {
				continue // metaclass= and other keyword arguments
			}
			class.Bases = append(class.Bases, base)
		}
	} else {
		class.Name = strings.TrimSpace(decl)
	}

	class.Doc = pyDocstringBelow(lines, i)
	return class
}

// pyDocstringBelow returns the first line of a docstring that opens right
// after the declaration at lines[i].
func pyDocstringBelow(lines []string, i int) string {
	for j := i + 1; j < len(lines) && j <= i+3; j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		for _, quote := range []string{`"""`, "'''"} {
			if strings.HasPrefix(trimmed, quote) {
				body := strings.TrimPrefix(trimmed, quote)
				if idx := strings.Index(body, quote); idx >= 0 {
					body = body[:idx]
				}
				body = strings.TrimSpace(body)
				if body == "" && j+1 < len(lines) {
					body = strings.TrimSpace(lines[j+1])
				}
				return body
			}
		}
		return ""
	}
	return ""
}

// pyAssignmentTarget returns the name of a simple top-level assignment like
// "VERSION = ..." or "count: int = 0". Tuple targets and comparisons are
// skipped.
func pyAssignmentTarget(trimmed string) string {
	eq := strings.Index(trimmed, "=")
	if eq <= 0 || trimmed[eq-1] == '!' || trimmed[eq-1] == '<' || trimmed[eq-1] == '>' {
		return ""
	}
	if eq+1 < len(trimmed) && trimmed[eq+1] == '=' {
		return ""
	}
	target := strings.TrimSpace(trimmed[:eq])
	if idx := strings.Index(target, ":"); idx >= 0 {
		target = strings.TrimSpace(target[:idx])
	}
	if target == "" || strings.ContainsAny(target, " ,.([{") {
		return ""
	}
	return target
}
