package engine

import (
	"errors"
	"fmt"
	"go/scanner"
	"runtime"
	"strings"

	"github.com/traefik/yaegi/interp"

	"github.com/frostime/gosession/internal/fshelp"
)

// toErrorInfo converts an interpreter failure into the structured error
// reported to clients. Panics raised by user code (including helper
// failures and runtime errors) carry their own kind; parse failures map to
// SyntaxError; anything else the interpreter rejects (undefined names,
// type mismatches) is an EvalError.
func toErrorInfo(err error) *ErrorInfo {
	var p interp.Panic
	if errors.As(err, &p) {
		name, msg := panicKind(p.Value)
		tb := []string{name + ": " + msg + "\n"}
		for _, line := range strings.SplitAfter(string(p.Stack), "\n") {
			if line != "" {
				tb = append(tb, line)
			}
		}
		return &ErrorInfo{Name: name, Message: msg, Traceback: tb}
	}

	var list scanner.ErrorList
	if errors.As(err, &list) {
		tb := make([]string, 0, len(list))
		for _, e := range list {
			tb = append(tb, e.Error()+"\n")
		}
		return &ErrorInfo{Name: "SyntaxError", Message: list.Error(), Traceback: tb}
	}

	msg := err.Error()
	return &ErrorInfo{Name: "EvalError", Message: msg, Traceback: []string{"EvalError: " + msg + "\n"}}
}

func panicKind(v any) (name, msg string) {
	switch x := v.(type) {
	case *fshelp.Error:
		return x.Kind, x.Message
	case runtime.Error:
		return "RuntimeError", x.Error()
	case error:
		return "RuntimeError", x.Error()
	default:
		return "Panic", fmt.Sprint(x)
	}
}
