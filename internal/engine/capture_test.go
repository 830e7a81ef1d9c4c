package engine

import (
	"bytes"
	"os"
	"testing"
)

func TestSwapWriterDiscardsWhenDetached(t *testing.T) {
	w := &swapWriter{}
	if n, err := w.Write([]byte("dropped")); err != nil || n != 7 {
		t.Fatalf("detached write: n=%d err=%v", n, err)
	}

	var buf bytes.Buffer
	w.Swap(&buf)
	if _, err := w.Write([]byte("kept")); err != nil {
		t.Fatalf("attached write: %v", err)
	}

	w.Swap(nil)
	// A straggler writing after detach must not reach the old buffer.
	if _, err := w.Write([]byte("late")); err != nil {
		t.Fatalf("straggler write: %v", err)
	}
	if got := buf.String(); got != "kept" {
		t.Fatalf("buffer = %q, want %q", got, "kept")
	}
}

func TestPinCwdRestores(t *testing.T) {
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir := t.TempDir()

	var inside string
	if err := pinCwd(dir, func() {
		inside, _ = os.Getwd()
	}); err != nil {
		t.Fatalf("pinCwd: %v", err)
	}

	resolved, _ := os.Getwd()
	if resolved != orig {
		t.Fatalf("cwd not restored: %q, want %q", resolved, orig)
	}
	if inside == orig {
		t.Fatal("cwd was not pinned during fn")
	}
}

func TestPinCwdMissingDir(t *testing.T) {
	ran := false
	err := pinCwd("/no/such/dir/at/all", func() { ran = true })
	if err == nil {
		t.Fatal("expected error for missing dir")
	}
	if ran {
		t.Fatal("fn ran despite chdir failure")
	}
}
