// Package fshelp implements the filesystem helpers injected into every
// session namespace (cd, pwd, ls, cat, ...) and the virtual working
// directory they resolve relative paths against. Helpers never touch the
// process working directory; they close over a Workdir reference instead.
package fshelp

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Workdir is a session's virtual working directory. It is shared between
// the injected helpers (which may change it via cd) and the session itself
// (which reports it and pins the process cwd to it during execution).
type Workdir struct {
	mu   sync.Mutex
	path string
}

// NewWorkdir canonicalizes path and returns a Workdir pointing at it.
// The path must name an existing directory.
func NewWorkdir(path string) (*Workdir, error) {
	abs, err := Canonicalize(path)
	if err != nil {
		return nil, fmt.Errorf("resolve workdir: %w", err)
	}
	if !isDir(abs) {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}
	return &Workdir{path: abs}, nil
}

// Path returns the current directory as an absolute path.
func (w *Workdir) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *Workdir) set(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.path = path
}

// Canonicalize returns the absolute, symlink-resolved form of path.
// Components that do not exist yet are kept verbatim while the longest
// existing ancestor is resolved, so targets of mkdir/touch/write can be
// canonicalized before they are created.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	var tail []string
	p := abs
	for {
		parent := filepath.Dir(p)
		if parent == p {
			return abs, nil
		}
		tail = append([]string{filepath.Base(p)}, tail...)
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		p = parent
	}
}
