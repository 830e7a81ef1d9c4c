// Package session implements isolated code-execution sessions and their
// registry. A session owns an interpreter namespace, a virtual working
// directory, a bounded execution history, and a serialization primitive
// that admits at most one in-flight execution; the manager owns the id ->
// session map.
package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frostime/gosession/internal/engine"
	"github.com/frostime/gosession/internal/fshelp"
)

// maxHistory bounds the per-session execution history ring.
const maxHistory = 100

// ErrClosed is returned by every operation on a closed session.
var ErrClosed = errors.New("session is closed")

// VarInfo describes one namespace entry for the inspection endpoints.
type VarInfo struct {
	Name string
	Type string
	Repr string
}

// Info is the snapshot reported by the info and list endpoints.
type Info struct {
	SessionID      string
	CreatedAt      time.Time
	ExecutionCount int
	IsClosed       bool
	UptimeSeconds  float64
	Workdir        string
}

// Session is one isolated execution context.
type Session struct {
	ID        string
	CreatedAt time.Time

	wd             *fshelp.Workdir
	eng            *engine.Engine
	defaultTimeout int

	// execMu admits one execution at a time; mu guards the mutable
	// bookkeeping below and is never held across an evaluation.
	execMu  sync.Mutex
	mu      sync.Mutex
	count   int
	closed  bool
	history *ring
}

func newSession(workdir string, defaultTimeout int) (*Session, error) {
	wd, err := fshelp.NewWorkdir(workdir)
	if err != nil {
		return nil, err
	}
	id := newID()
	eng, err := engine.New(id, wd)
	if err != nil {
		return nil, fmt.Errorf("init interpreter: %w", err)
	}
	return &Session{
		ID:             id,
		CreatedAt:      time.Now(),
		wd:             wd,
		eng:            eng,
		defaultTimeout: defaultTimeout,
		history:        newRing(maxHistory),
	}, nil
}

// newID returns a short opaque session id: 12 hex chars of a random UUID.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

// Workdir returns the session's current virtual working directory.
func (s *Session) Workdir() string {
	return s.wd.Path()
}

// Info returns the current session snapshot.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		SessionID:      s.ID,
		CreatedAt:      s.CreatedAt,
		ExecutionCount: s.count,
		IsClosed:       s.closed,
		UptimeSeconds:  time.Since(s.CreatedAt).Seconds(),
		Workdir:        s.wd.Path(),
	}
}

// Execute runs code with an effective timeout of timeoutSecs if non-nil,
// else the session default; 0 disables the timeout. Executions within a
// session are strictly serialized. The execution counter increments once
// per call, success or not, and the result is always appended to history.
func (s *Session) Execute(code string, timeoutSecs *int) (*engine.Result, error) {
	if err := s.failIfClosed(); err != nil {
		return nil, err
	}

	secs := s.defaultTimeout
	if timeoutSecs != nil {
		secs = *timeoutSecs
	}

	s.execMu.Lock()
	defer s.execMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.count++
	n := s.count
	s.mu.Unlock()

	ctx := context.Background()
	if secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	res := s.eng.Eval(ctx, code)
	res.ExecutionCount = n
	if res.TimedOut {
		// Output captured before the deadline is discarded; a timed-out
		// result reports only the timeout itself.
		res.Stdout = ""
		res.Stderr = fmt.Sprintf("Execution timed out after %d seconds", secs)
		res.Error = &engine.ErrorInfo{
			Name:      "TimeoutError",
			Message:   fmt.Sprintf("Code execution exceeded %d seconds", secs),
			Traceback: []string{fmt.Sprintf("TimeoutError: Code execution exceeded %d seconds\n", secs)},
		}
	}

	s.mu.Lock()
	s.history.append(HistoryEntry{
		ExecutionCount: n,
		Code:           code,
		Stdout:         res.Stdout,
		Stderr:         res.Stderr,
		ResultRepr:     res.ResultRepr,
		Error:          res.Error,
		OK:             res.OK,
	})
	s.mu.Unlock()

	return res, nil
}

// ListVariables returns descriptors for every user-visible namespace
// entry, sorted by name. Injected helpers, sentinels, and
// underscore-prefixed names are hidden.
func (s *Session) ListVariables() ([]VarInfo, error) {
	if err := s.failIfClosed(); err != nil {
		return nil, err
	}
	s.execMu.Lock()
	defer s.execMu.Unlock()

	vars := []VarInfo{}
	for name, v := range s.eng.Globals() {
		if engine.IsHidden(name) {
			continue
		}
		typeName, repr := engine.DescribeValue(v)
		vars = append(vars, VarInfo{Name: name, Type: typeName, Repr: repr})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars, nil
}

// GetVariables returns a descriptor for each requested name, or nil for
// names absent from the namespace.
func (s *Session) GetVariables(names []string) (map[string]*VarInfo, error) {
	if err := s.failIfClosed(); err != nil {
		return nil, err
	}
	s.execMu.Lock()
	defer s.execMu.Unlock()

	globals := s.eng.Globals()
	out := make(map[string]*VarInfo, len(names))
	for _, name := range names {
		v, ok := globals[name]
		if !ok {
			out[name] = nil
			continue
		}
		typeName, repr := engine.DescribeValue(v)
		out[name] = &VarInfo{Name: name, Type: typeName, Repr: repr}
	}
	return out, nil
}

// History returns the last n entries, oldest first; n <= 0 returns all.
func (s *Session) History(n int) ([]HistoryEntry, error) {
	if err := s.failIfClosed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.last(n), nil
}

// HistoryLen returns the number of retained history entries.
func (s *Session) HistoryLen() (int, error) {
	if err := s.failIfClosed(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.len(), nil
}

// Reset rebuilds the namespace (sentinels and helpers re-injected), zeroes
// the execution counter, and clears history. The virtual workdir keeps its
// current value.
func (s *Session) Reset() error {
	if err := s.failIfClosed(); err != nil {
		return err
	}
	s.execMu.Lock()
	defer s.execMu.Unlock()

	if err := s.eng.Reset(); err != nil {
		return err
	}
	s.mu.Lock()
	s.count = 0
	s.history.clear()
	s.mu.Unlock()
	return nil
}

// Close marks the session closed. Idempotent; every other operation fails
// fast afterwards. The namespace is released when the manager drops the
// session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) failIfClosed() error {
	if s.IsClosed() {
		return ErrClosed
	}
	return nil
}
