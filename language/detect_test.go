package language

import "testing"

func Test_Detect_KnownExtensions(t *testing.T) {
	cases := map[string]string{
		"main.go":            "go",
		"app.py":             "python",
		"index.js":           "javascript",
		"index.ts":           "typescript",
		"App.jsx":            "react",
		"App.tsx":            "react_ts",
		"index.php":          "php",
		"util.c":             "c",
		"util.h":             "c_header",
		"engine.cpp":         "cpp",
		"engine.hpp":         "cpp_header",
		"schema.sql":         "sql",
		"config.yaml":        "yaml",
		"src/nested/main.go": "go",
	}

	for path, want := range cases {
		if got := Detect(path); got != want {
			t.Errorf("Detect(%q) = %q, want %q", path, got, want)
		}
	}
}

func Test_Detect_CaseInsensitiveExtension(t *testing.T) {
	if got := Detect("LEGACY.PHP"); got != "php" {
		t.Errorf("expected php for uppercase extension, got %q", got)
	}
}

func Test_Detect_FilenameSpecials(t *testing.T) {
	if got := Detect("Makefile"); got != "makefile" {
		t.Errorf("expected makefile, got %q", got)
	}
	if got := Detect("sub/dir/Dockerfile"); got != "dockerfile" {
		t.Errorf("expected dockerfile, got %q", got)
	}
}

func Test_Detect_UnknownExtension(t *testing.T) {
	if got := Detect("data.xyz"); got != Unknown {
		t.Errorf("expected %q, got %q", Unknown, got)
	}
	if got := Detect("LICENSE"); got != Unknown {
		t.Errorf("expected %q for extension-less file, got %q", Unknown, got)
	}
}
