// Package hub fans out completed execution results to SSE subscribers.
// Each session keeps a small replay buffer so late-joining observers see
// recent results before live streaming begins.
package hub

import "sync"

const defaultBufferCap = 100

// stream holds the state for a single session's result stream.
type stream struct {
	buf     []string // circular buffer of serialized results
	pos     int      // next write position once full
	clients map[chan string]struct{}
	done    bool
}

// lines returns the buffered lines in order from oldest to newest.
func (s *stream) lines() []string {
	n := len(s.buf)
	if n == 0 || s.pos == 0 {
		// Empty, or pos wrapped exactly to 0: buf is already in order.
		return s.buf
	}
	out := make([]string, n)
	copy(out, s.buf[s.pos:])
	copy(out[n-s.pos:], s.buf[:s.pos])
	return out
}

// append adds a line to the circular buffer. O(1) regardless of size.
func (s *stream) append(line string) {
	if len(s.buf) < cap(s.buf) {
		s.buf = append(s.buf, line)
		s.pos = (s.pos + 1) % cap(s.buf)
		return
	}
	s.buf[s.pos] = line
	s.pos = (s.pos + 1) % cap(s.buf)
}

// Hub fans out per-session lines to multiple SSE subscribers.
type Hub struct {
	mu      sync.Mutex
	streams map[string]*stream
}

// New creates a Hub ready for use.
func New() *Hub {
	return &Hub{streams: make(map[string]*stream)}
}

// getOrCreate returns the stream for id, creating it if needed.
// Caller must hold h.mu.
func (h *Hub) getOrCreate(id string) *stream {
	s, ok := h.streams[id]
	if !ok {
		s = &stream{
			buf:     make([]string, 0, defaultBufferCap),
			clients: make(map[chan string]struct{}),
		}
		h.streams[id] = s
	}
	return s
}

// Publish sends a line to all current subscribers of the session and
// appends it to the replay buffer.
func (h *Hub) Publish(sessionID, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.getOrCreate(sessionID)
	if s.done {
		return
	}
	s.append(line)

	// Non-blocking send so a slow consumer cannot stall publishing.
	for ch := range s.clients {
		select {
		case ch <- line:
		default:
		}
	}
}

// Subscribe returns a channel that receives future lines for the session
// and an unsubscribe function. Buffered lines are replayed immediately;
// if the session is already done, the channel is closed after the replay.
func (h *Hub) Subscribe(sessionID string) (<-chan string, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.getOrCreate(sessionID)
	ch := make(chan string, defaultBufferCap+64)
	for _, line := range s.lines() {
		ch <- line
	}

	if s.done {
		close(ch)
		return ch, func() {}
	}

	s.clients[ch] = struct{}{}
	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := s.clients[ch]; ok {
			delete(s.clients, ch)
		}
	}
	return ch, unsubscribe
}

// Done marks the session's stream complete, closing all subscriber
// channels and dropping the stream state.
func (h *Hub) Done(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.streams[sessionID]
	if !ok {
		return
	}
	s.done = true
	for ch := range s.clients {
		close(ch)
	}
	s.clients = make(map[chan string]struct{})
	delete(h.streams, sessionID)
}
