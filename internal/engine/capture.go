package engine

import (
	"io"
	"sync"
)

// swapWriter is the stream the interpreter is permanently wired to. Each
// evaluation swaps a capture buffer in for its own duration and swaps it
// back out before reading, so writes from user code that straggles past a
// timeout land in the void instead of a buffer someone is reading.
type swapWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *swapWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return len(p), nil
	}
	return s.w.Write(p)
}

// Swap redirects subsequent writes to w. A nil w discards them.
func (s *swapWriter) Swap(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}
