package session

import "github.com/frostime/gosession/internal/engine"

// HistoryEntry is a flattened execution result plus the source that
// produced it. Entries are recorded for every completed call, including
// failures and timeouts.
type HistoryEntry struct {
	ExecutionCount int
	Code           string
	Stdout         string
	Stderr         string
	ResultRepr     *string
	Error          *engine.ErrorInfo
	OK             bool
}

// ring is a bounded FIFO of history entries. Once full, appends overwrite
// the oldest entry in place.
type ring struct {
	buf []HistoryEntry
	pos int // next write position once the buffer is full
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]HistoryEntry, 0, capacity)}
}

// append adds an entry. O(1) regardless of size.
func (r *ring) append(e HistoryEntry) {
	if len(r.buf) < cap(r.buf) {
		r.buf = append(r.buf, e)
		return
	}
	r.buf[r.pos] = e
	r.pos = (r.pos + 1) % cap(r.buf)
}

// entries returns a copy of the buffered entries, oldest first.
func (r *ring) entries() []HistoryEntry {
	n := len(r.buf)
	out := make([]HistoryEntry, n)
	if r.pos == 0 {
		// Not yet wrapped (or wrapped exactly to 0): buf is in order.
		copy(out, r.buf)
		return out
	}
	copy(out, r.buf[r.pos:])
	copy(out[n-r.pos:], r.buf[:r.pos])
	return out
}

// last returns the most recent n entries, oldest first. n <= 0 returns
// everything.
func (r *ring) last(n int) []HistoryEntry {
	all := r.entries()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

func (r *ring) len() int {
	return len(r.buf)
}

func (r *ring) clear() {
	r.buf = r.buf[:0]
	r.pos = 0
}
