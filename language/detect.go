package language

import (
	"path/filepath"
	"strings"
)

// Unknown is the tag assigned to files whose extension is not recognized.
// Files tagged Unknown still get a basic record (path, size, line count).
const Unknown = "unknown"

// extensionToTag maps file extensions (without dot) to language tags.
// Tags are lowercase identifiers consumed by the analyzer registry.
var extensionToTag = map[string]string{
	// Go
	"go": "go",
	// Python
	"py": "python", "pyi": "python", "pyw": "python",
	// JavaScript / TypeScript
	"js": "javascript", "mjs": "javascript", "cjs": "javascript",
	"ts": "typescript", "mts": "typescript", "cts": "typescript",
	// React component files get their own tags so the component
	// analyzer is selected instead of the plain JS one.
	"jsx": "react",
	"tsx": "react_ts",
	// PHP
	"php": "php",
	// C / C++ (headers are tagged separately; the C-family analyzer handles both)
	"c": "c", "h": "c_header",
	"cpp": "cpp", "cc": "cpp", "cxx": "cpp",
	"hpp": "cpp_header", "hh": "cpp_header", "hxx": "cpp_header",
	// Other languages indexed without structural extraction
	"cs": "csharp", "java": "java", "kt": "kotlin", "rs": "rust",
	"rb": "ruby", "swift": "swift", "scala": "scala",
	"sh": "shell", "bash": "shell", "zsh": "shell",
	"sql": "sql",
	// Data / config / markup
	"json": "json", "yaml": "yaml", "yml": "yaml", "toml": "toml",
	"xml": "xml", "html": "html", "css": "css", "md": "markdown",
}

// Detect returns the language tag for a file path based on its extension.
// Returns Unknown if the extension is not recognized.
func Detect(filePath string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		// Filename-based detection for extension-less files
		switch strings.ToLower(filepath.Base(filePath)) {
		case "makefile", "gnumakefile":
			return "makefile"
		case "dockerfile":
			return "dockerfile"
		case "gemfile", "rakefile":
			return "ruby"
		}
		return Unknown
	}

	if tag, ok := extensionToTag[ext]; ok {
		return tag
	}
	return Unknown
}
