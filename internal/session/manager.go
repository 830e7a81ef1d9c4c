package session

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrInvalidWorkdir reports a session-creation workdir that does not name
// an existing directory.
var ErrInvalidWorkdir = errors.New("invalid workdir")

// Manager owns the id -> session registry. Create and Close are mutually
// exclusive with each other; executions run outside the manager lock.
type Manager struct {
	defaultWorkdir string
	defaultTimeout int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager whose sessions default to the given workdir
// and per-call timeout (seconds; 0 disables).
func NewManager(defaultWorkdir string, defaultTimeout int) *Manager {
	return &Manager{
		defaultWorkdir: defaultWorkdir,
		defaultTimeout: defaultTimeout,
		sessions:       make(map[string]*Session),
	}
}

// Create allocates and registers a new session. A non-empty workdir must
// name an existing directory, otherwise ErrInvalidWorkdir is returned.
func (m *Manager) Create(workdir string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wd := m.defaultWorkdir
	if workdir != "" {
		info, err := os.Stat(workdir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidWorkdir, workdir)
		}
		wd = workdir
	}

	s, err := newSession(wd, m.defaultTimeout)
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID] = s
	return s, nil
}

// Get returns the session for id, or nil if it is unknown or closed.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	s := m.sessions[id]
	m.mu.Unlock()
	if s == nil || s.IsClosed() {
		return nil
	}
	return s
}

// Close closes the session and removes it from the registry. It reports
// whether the id was present.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.Close()
	delete(m.sessions, id)
	return true
}

// List returns snapshots for all non-closed sessions.
func (m *Manager) List() []Info {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		if info := s.Info(); !info.IsClosed {
			infos = append(infos, info)
		}
	}
	return infos
}

// CleanupClosed drops sessions that were closed without being removed and
// returns how many it dropped.
func (m *Manager) CleanupClosed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.IsClosed() {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
