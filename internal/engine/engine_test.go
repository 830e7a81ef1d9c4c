package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/frostime/gosession/internal/fshelp"
)

func newTestEngine(t *testing.T) (*Engine, *fshelp.Workdir) {
	t.Helper()
	wd, err := fshelp.NewWorkdir(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkdir: %v", err)
	}
	e, err := New("abc123def456", wd)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, wd
}

func TestEvalExpression(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "1 + 2")
	if !res.OK {
		t.Fatalf("not ok: %+v", res.Error)
	}
	if res.ResultRepr == nil || *res.ResultRepr != "3" {
		t.Fatalf("result_repr = %v, want 3", res.ResultRepr)
	}
}

func TestEvalStatementsThenExpression(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "x := 10\ny := 20\nx + y")
	if !res.OK {
		t.Fatalf("not ok: %+v", res.Error)
	}
	if res.ResultRepr == nil || *res.ResultRepr != "30" {
		t.Fatalf("result_repr = %v, want 30", res.ResultRepr)
	}

	// x persists into the next call.
	res = e.Eval(context.Background(), "x + 1")
	if res.ResultRepr == nil || *res.ResultRepr != "11" {
		t.Fatalf("persisted x: result_repr = %v, want 11", res.ResultRepr)
	}
}

func TestEvalStatementOnlyHasNoRepr(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "z := 5")
	if !res.OK {
		t.Fatalf("not ok: %+v", res.Error)
	}
	if res.ResultRepr != nil {
		t.Fatalf("statement produced repr %q", *res.ResultRepr)
	}
}

func TestEvalStdoutCapture(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "import \"fmt\"\nfmt.Println(\"hello\")\n42")
	if !res.OK {
		t.Fatalf("not ok: %+v", res.Error)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if res.ResultRepr == nil || *res.ResultRepr != "42" {
		t.Fatalf("result_repr = %v, want 42", res.ResultRepr)
	}
}

func TestEvalImportBlockWithStatements(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "import (\n\"fmt\"\n\"strings\"\n)\ns := strings.ToUpper(\"hi\")\nfmt.Println(s)\nlen(s)")
	if !res.OK {
		t.Fatalf("not ok: %+v", res.Error)
	}
	if res.Stdout != "HI\n" {
		t.Fatalf("stdout = %q, want %q", res.Stdout, "HI\n")
	}
	if res.ResultRepr == nil || *res.ResultRepr != "2" {
		t.Fatalf("result_repr = %v, want 2", res.ResultRepr)
	}

	// The imported packages stay usable in later calls.
	res = e.Eval(context.Background(), "strings.Repeat(\"a\", 3)")
	if !res.OK {
		t.Fatalf("not ok: %+v", res.Error)
	}
	if res.ResultRepr == nil || *res.ResultRepr != `"aaa"` {
		t.Fatalf("result_repr = %v, want %q", res.ResultRepr, `"aaa"`)
	}
}

func TestEvalRuntimeError(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "a := 0\n1 / a")
	if res.OK {
		t.Fatal("divide by zero reported ok")
	}
	if res.Error == nil || res.Error.Name != "RuntimeError" {
		t.Fatalf("error = %+v, want RuntimeError", res.Error)
	}
	if res.Stderr == "" {
		t.Fatal("traceback not appended to stderr")
	}
}

func TestEvalSyntaxError(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "1 +")
	if res.OK {
		t.Fatal("unparsable source reported ok")
	}
	if res.Error == nil || res.Error.Name != "SyntaxError" {
		t.Fatalf("error = %+v, want SyntaxError", res.Error)
	}
}

func TestEvalTimeout(t *testing.T) {
	e, _ := newTestEngine(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	res := e.Eval(ctx, "for {\n}")
	if res.OK || !res.TimedOut {
		t.Fatalf("timed_out = %v, ok = %v", res.TimedOut, res.OK)
	}

	// The interpreter keeps working after an interrupted evaluation.
	res = e.Eval(context.Background(), "1 + 1")
	if !res.OK || res.ResultRepr == nil || *res.ResultRepr != "2" {
		t.Fatalf("eval after timeout: %+v", res)
	}
}

func TestEvalHelperError(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), `cat("no-such-file.txt")`)
	if res.OK {
		t.Fatal("cat of missing file reported ok")
	}
	if res.Error == nil || res.Error.Name != "FileNotFoundError" {
		t.Fatalf("error = %+v, want FileNotFoundError", res.Error)
	}
	if !strings.Contains(res.Error.Message, "File not found") {
		t.Fatalf("message = %q", res.Error.Message)
	}
}

func TestEvalHelpersShareWorkdir(t *testing.T) {
	e, wd := newTestEngine(t)

	res := e.Eval(context.Background(), `pwd()`)
	if !res.OK || res.ResultRepr == nil {
		t.Fatalf("pwd failed: %+v", res)
	}
	want := `"` + wd.Path() + `"`
	if *res.ResultRepr != want {
		t.Fatalf("pwd repr = %q, want %q", *res.ResultRepr, want)
	}

	res = e.Eval(context.Background(), `mkdir("sub")`+"\n"+`cd("sub")`)
	if !res.OK {
		t.Fatalf("mkdir+cd failed: %+v", res.Error)
	}
	if !strings.HasSuffix(wd.Path(), "/sub") {
		t.Fatalf("workdir after cd = %q", wd.Path())
	}
}

func TestEvalEmptySource(t *testing.T) {
	e, _ := newTestEngine(t)
	res := e.Eval(context.Background(), "   \n\t")
	if !res.OK || res.ResultRepr != nil || res.Error != nil {
		t.Fatalf("empty source: %+v", res)
	}
}

func TestResetClearsNamespace(t *testing.T) {
	e, _ := newTestEngine(t)
	if res := e.Eval(context.Background(), "x := 1"); !res.OK {
		t.Fatalf("setup eval failed: %+v", res.Error)
	}
	if _, ok := e.Globals()["x"]; !ok {
		t.Fatal("x missing before reset")
	}

	if err := e.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok := e.Globals()["x"]; ok {
		t.Fatal("x survived reset")
	}
	// Sentinels and helpers are re-injected.
	if _, ok := e.Globals()["__session_id__"]; !ok {
		t.Fatal("__session_id__ missing after reset")
	}
	if res := e.Eval(context.Background(), "pwd()"); !res.OK {
		t.Fatalf("helpers missing after reset: %+v", res.Error)
	}
}

func TestIsHidden(t *testing.T) {
	for _, name := range []string{"cd", "abspath", "__name__", "__doc__", "__session_id__", "_tmp"} {
		if !IsHidden(name) {
			t.Fatalf("IsHidden(%q) = false", name)
		}
	}
	for _, name := range []string{"x", "myVar", "catalog"} {
		if IsHidden(name) {
			t.Fatalf("IsHidden(%q) = true", name)
		}
	}
}
