package session

import (
	"errors"
	"testing"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(t.TempDir(), 30)

	s, err := m.Create("")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.Count())
	}
	if got := m.Get(s.ID); got != s {
		t.Fatalf("Get returned %v", got)
	}
	if m.Get("nonexistent") != nil {
		t.Fatal("Get of unknown id returned a session")
	}
}

func TestManagerCreateWithWorkdir(t *testing.T) {
	m := NewManager(t.TempDir(), 30)
	dir := t.TempDir()

	s, err := m.Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Workdir() == "" {
		t.Fatal("empty workdir")
	}

	_, err = m.Create("/no/such/directory")
	if !errors.Is(err, ErrInvalidWorkdir) {
		t.Fatalf("Create with bad workdir: %v", err)
	}
}

func TestManagerClose(t *testing.T) {
	m := NewManager(t.TempDir(), 30)
	s, err := m.Create("")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !m.Close(s.ID) {
		t.Fatal("Close returned false for live session")
	}
	if m.Close(s.ID) {
		t.Fatal("second Close returned true")
	}
	if m.Get(s.ID) != nil {
		t.Fatal("Get returned a closed session")
	}
	if m.Count() != 0 {
		t.Fatalf("Count = %d after close", m.Count())
	}
}

func TestManagerList(t *testing.T) {
	m := NewManager(t.TempDir(), 30)
	a, err := m.Create("")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := len(m.List()); got != 2 {
		t.Fatalf("List = %d sessions, want 2", got)
	}

	m.Close(a.ID)
	if got := len(m.List()); got != 1 {
		t.Fatalf("List after close = %d sessions, want 1", got)
	}
}

func TestManagerCleanupClosed(t *testing.T) {
	m := NewManager(t.TempDir(), 30)
	s, err := m.Create("")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Close the session directly, bypassing the registry removal.
	s.Close()
	if m.Count() != 1 {
		t.Fatalf("Count = %d before cleanup", m.Count())
	}
	if n := m.CleanupClosed(); n != 1 {
		t.Fatalf("CleanupClosed = %d, want 1", n)
	}
	if m.Count() != 0 {
		t.Fatalf("Count = %d after cleanup", m.Count())
	}
}
