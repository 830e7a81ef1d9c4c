// Package engine evaluates code snippets against a session's interpreter
// namespace with interactive-shell semantics: a snippet whose last
// statement is an expression yields that expression's printed value, while
// pure statement sequences yield none. Output, errors, and timeouts are
// captured into a structured Result; user failures never escape as Go
// errors.
package engine

// Result is the outcome of evaluating one snippet.
type Result struct {
	OK             bool
	Stdout         string
	Stderr         string
	ResultRepr     *string
	Error          *ErrorInfo
	TimedOut       bool
	ExecutionCount int
}

// ErrorInfo describes a user-code failure: a short kind name, the message,
// and formatted traceback lines (each line terminated with "\n").
type ErrorInfo struct {
	Name      string
	Message   string
	Traceback []string
}
