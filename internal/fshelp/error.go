package fshelp

import "fmt"

// Error is the failure value helpers panic with. The execution engine
// recovers it and reports Kind as the structured error's kind name, so a
// failed cat() surfaces as e.g. {ename: "FileNotFoundError", ...} instead
// of a bare panic message.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// errf builds an *Error and panics with it.
func errf(kind, format string, args ...any) {
	panic(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
