package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/frostime/gosession/internal/fshelp"
)

// helperNames are the identifiers bound into every namespace, in the order
// they appear in the prelude. The hidden-names set below must stay in
// exact correspondence so the vars endpoints never expose them.
var helperNames = []string{
	"cd", "pwd", "ls", "cat", "mkdir", "touch", "rm",
	"cp", "mv", "write", "exists", "isfile", "isdir", "abspath",
}

var hiddenNames = func() map[string]bool {
	m := map[string]bool{
		"__name__":       true,
		"__doc__":        true,
		"__session_id__": true,
	}
	for _, n := range helperNames {
		m[n] = true
	}
	return m
}()

// IsHidden reports whether a namespace entry is internal: an injected
// helper, a sentinel, or any underscore-prefixed name.
func IsHidden(name string) bool {
	return hiddenNames[name] || strings.HasPrefix(name, "_")
}

// Engine wraps one yaegi interpreter whose REPL global scope is the
// session namespace. It is not safe for concurrent evaluation; the owning
// session serializes calls.
type Engine struct {
	sessionID string
	wd        *fshelp.Workdir

	interp *interp.Interpreter
	stdout *swapWriter
	stderr *swapWriter
}

// New builds an engine for the given session: a fresh interpreter with the
// Go standard library, the filesystem helpers bound over wd, and the
// namespace sentinels.
func New(sessionID string, wd *fshelp.Workdir) (*Engine, error) {
	e := &Engine{
		sessionID: sessionID,
		wd:        wd,
		stdout:    &swapWriter{},
		stderr:    &swapWriter{},
	}
	if err := e.initInterp(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset discards the namespace and rebuilds the interpreter with a clean
// one. Helpers and sentinels are re-injected; the workdir is untouched.
func (e *Engine) Reset() error {
	return e.initInterp()
}

func (e *Engine) initInterp() error {
	i := interp.New(interp.Options{Stdout: e.stdout, Stderr: e.stderr})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("load stdlib symbols: %w", err)
	}

	h := fshelp.New(e.wd)
	err := i.Use(interp.Exports{
		"sessionfs/sessionfs": {
			"Cd":      reflect.ValueOf(h.Cd),
			"Pwd":     reflect.ValueOf(h.Pwd),
			"Ls":      reflect.ValueOf(h.Ls),
			"Cat":     reflect.ValueOf(h.Cat),
			"Mkdir":   reflect.ValueOf(h.Mkdir),
			"Touch":   reflect.ValueOf(h.Touch),
			"Rm":      reflect.ValueOf(h.Rm),
			"Cp":      reflect.ValueOf(h.Cp),
			"Mv":      reflect.ValueOf(h.Mv),
			"Write":   reflect.ValueOf(h.Write),
			"Exists":  reflect.ValueOf(h.Exists),
			"Isfile":  reflect.ValueOf(h.Isfile),
			"Isdir":   reflect.ValueOf(h.Isdir),
			"Abspath": reflect.ValueOf(h.Abspath),
		},
	})
	if err != nil {
		return fmt.Errorf("bind helpers: %w", err)
	}

	if _, err := i.Eval(`import "sessionfs"`); err != nil {
		return fmt.Errorf("import helpers: %w", err)
	}
	if _, err := i.Eval(e.prelude()); err != nil {
		return fmt.Errorf("inject prelude: %w", err)
	}

	e.interp = i
	return nil
}

func (e *Engine) prelude() string {
	var b strings.Builder
	for _, n := range helperNames {
		// cd := sessionfs.Cd
		fmt.Fprintf(&b, "%s := sessionfs.%s%s\n", n, strings.ToUpper(n[:1]), n[1:])
	}
	fmt.Fprintf(&b, "__name__ := %q\n", "__main__")
	b.WriteString("var __doc__ interface{}\n")
	fmt.Fprintf(&b, "__session_id__ := %q\n", e.sessionID)
	return b.String()
}

// Globals returns a live view of the namespace. Callers must hold the
// session's execution serialization while reading it.
func (e *Engine) Globals() map[string]reflect.Value {
	return e.interp.Globals()
}

// Eval runs one snippet against the namespace and returns its structured
// result. User-code failures of every sort land in the result; Eval itself
// never fails. The process cwd is pinned to the session workdir for the
// duration of the user-code window, under the global chdir arbiter.
//
// Cancellation is cooperative: when ctx expires the interpreter is told to
// stop and Eval returns a timed-out result promptly, but code blocked in a
// native call may straggle. The swapped-out capture buffers and the
// session-level serialization keep stragglers harmless.
func (e *Engine) Eval(ctx context.Context, src string) *Result {
	res := &Result{OK: true}
	src = strings.TrimSpace(src)
	if src == "" {
		return res
	}

	prefix, expr := split(src)

	// Import declarations cannot share an Eval call with statements, so
	// peel them off the head of the block and run them on their own.
	var imports string
	if n := leadingImportsEnd(prefix); n > 0 {
		imports = prefix[:n]
		prefix = strings.TrimSpace(prefix[n:])
	}

	var out, errOut bytes.Buffer
	e.stdout.Swap(&out)
	e.stderr.Swap(&errOut)

	var value reflect.Value
	var evalErr error
	chdirErr := pinCwd(e.wd.Path(), func() {
		if imports != "" {
			_, evalErr = e.interp.EvalWithContext(ctx, imports)
		}
		if evalErr == nil && prefix != "" {
			_, evalErr = e.interp.EvalWithContext(ctx, prefix)
		}
		if evalErr == nil && expr != "" {
			value, evalErr = e.interp.EvalWithContext(ctx, expr)
		}
	})

	// Detach the buffers before reading so straggling user code cannot
	// write into them concurrently.
	e.stdout.Swap(nil)
	e.stderr.Swap(nil)
	res.Stdout = out.String()
	res.Stderr = errOut.String()

	switch {
	case chdirErr != nil:
		res.OK = false
		msg := chdirErr.Error()
		res.Error = &ErrorInfo{
			Name:      "FileNotFoundError",
			Message:   msg,
			Traceback: []string{"FileNotFoundError: " + msg + "\n"},
		}
		res.Stderr += "FileNotFoundError: " + msg + "\n"
	case evalErr != nil && (errors.Is(evalErr, context.DeadlineExceeded) || errors.Is(evalErr, context.Canceled)):
		res.OK = false
		res.TimedOut = true
	case evalErr != nil:
		res.OK = false
		res.Error = toErrorInfo(evalErr)
		res.Stderr += strings.Join(res.Error.Traceback, "")
	default:
		if expr != "" && value.IsValid() && !isNilValue(value) {
			r := SafeRepr(unwrap(value))
			res.ResultRepr = &r
		}
	}
	return res
}
