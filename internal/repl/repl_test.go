package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sunholo/zion/internal/config"
)

func TestCheckSubmissionOKOnWellTypedBody(t *testing.T) {
	r := New(&config.Config{NoStdLib: true})
	var buf bytes.Buffer
	r.checkSubmission("def add(a: int, b: int) int:\n    return a + b\n", &buf)
	if !strings.Contains(buf.String(), "ok") {
		t.Fatalf("expected ok output, got: %q", buf.String())
	}
}

func TestCheckSubmissionReportsParseError(t *testing.T) {
	r := New(&config.Config{NoStdLib: true})
	var buf bytes.Buffer
	r.checkSubmission("def (", &buf)
	if !strings.Contains(buf.String(), "parse error") {
		t.Fatalf("expected a parse error to be reported, got: %q", buf.String())
	}
}

func TestCheckSubmissionReportsTypeError(t *testing.T) {
	r := New(&config.Config{NoStdLib: true})
	var buf bytes.Buffer
	r.checkSubmission("def f() int:\n    return undefined_name\n", &buf)
	if strings.Contains(buf.String(), "ok") {
		t.Fatalf("expected a type error to be reported, got: %q", buf.String())
	}
}

func TestCheckSubmissionIncrementsCounter(t *testing.T) {
	r := New(&config.Config{NoStdLib: true})
	var buf bytes.Buffer
	r.checkSubmission("def a() int:\n    return 1\n", &buf)
	r.checkSubmission("def b() int:\n    return 2\n", &buf)
	if r.count != 2 {
		t.Fatalf("expected count to reach 2, got %d", r.count)
	}
}
