package analyzer

import (
	"errors"
	"strings"
	"testing"
)

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(content []byte) (*Payload, error) { panic("boom") }

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(content []byte) (*Payload, error) {
	return nil, errors.New("no parser available")
}

func Test_Analyze_UnsupportedLanguageGetsBasicPayload(t *testing.T) {
	d := NewDispatch()
	result := d.Analyze("notes.txt", []byte("hello\nworld\n"), "unknown")

	if result.Payload == nil {
		t.Fatal("expected non-nil payload for unsupported language")
	}
	if result.Degraded {
		t.Error("unsupported language must not be reported as degraded")
	}
}

func Test_Analyze_PanicIsContained(t *testing.T) {
	d := NewDispatch()
	d.Register("volatile", panicAnalyzer{})

	result := d.Analyze("a.vol", []byte("x"), "volatile")
	if result.Payload == nil {
		t.Fatal("expected fallback payload after panic")
	}
	if !result.Degraded {
		t.Error("expected Degraded after analyzer panic")
	}
	if !strings.Contains(result.Reason, "panic") {
		t.Errorf("expected panic reason, got %q", result.Reason)
	}
}

func Test_Analyze_ErrorDowngradesToBasic(t *testing.T) {
	d := NewDispatch()
	d.Register("flaky", failingAnalyzer{})

	result := d.Analyze("a.fl", []byte("x"), "flaky")
	if result.Payload == nil {
		t.Fatal("expected fallback payload after analyzer error")
	}
	if !result.Degraded {
		t.Error("expected Degraded after analyzer error")
	}
}

func Test_Analyze_Deterministic(t *testing.T) {
	d := NewDispatch()
	content := []byte("def f(a, b):\n    return a + b\n")

	first := d.Analyze("m.py", content, "python")
	second := d.Analyze("m.py", content, "python")

	if len(first.Payload.Functions) != len(second.Payload.Functions) {
		t.Fatal("repeated analysis of identical content diverged")
	}
	if first.Payload.Functions[0].Name != second.Payload.Functions[0].Name {
		t.Error("repeated analysis produced different function names")
	}
}

func Test_Supported_BuiltinTags(t *testing.T) {
	d := NewDispatch()
	for _, tag := range []string{"go", "python", "javascript", "typescript", "react", "react_ts", "php", "c", "c_header", "cpp", "cpp_header"} {
		if !d.Supported(tag) {
			t.Errorf("expected built-in tag %q to be supported", tag)
		}
	}
	if d.Supported("cobol") {
		t.Error("did not expect cobol to be supported")
	}
}

func Test_CountLines(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one line", 1},
		{"a\nb\n", 2},
		{"a\nb\nc", 3},
		{"\n", 1},
	}
	for _, c := range cases {
		if got := CountLines([]byte(c.content)); got != c.want {
			t.Errorf("CountLines(%q) = %d, want %d", c.content, got, c.want)
		}
	}
}
