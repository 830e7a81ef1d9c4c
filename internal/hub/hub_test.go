package hub

import (
	"fmt"
	"testing"
	"time"
)

func recvOne(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-ch:
		if !ok {
			t.Fatal("channel closed early")
		}
		return line
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for line")
		return ""
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	h := New()
	ch, unsub := h.Subscribe("s1")
	defer unsub()

	h.Publish("s1", "one")
	h.Publish("s1", "two")

	if got := recvOne(t, ch); got != "one" {
		t.Fatalf("first line = %q", got)
	}
	if got := recvOne(t, ch); got != "two" {
		t.Fatalf("second line = %q", got)
	}
}

func TestSubscribeReplaysBuffer(t *testing.T) {
	h := New()
	h.Publish("s1", "early")
	h.Publish("s1", "later")

	ch, unsub := h.Subscribe("s1")
	defer unsub()

	if got := recvOne(t, ch); got != "early" {
		t.Fatalf("replayed[0] = %q", got)
	}
	if got := recvOne(t, ch); got != "later" {
		t.Fatalf("replayed[1] = %q", got)
	}
}

func TestReplayBufferBounded(t *testing.T) {
	h := New()
	for i := 0; i < defaultBufferCap+50; i++ {
		h.Publish("s1", fmt.Sprintf("line-%d", i))
	}

	ch, unsub := h.Subscribe("s1")
	defer unsub()

	if got := recvOne(t, ch); got != "line-50" {
		t.Fatalf("oldest replayed = %q, want line-50", got)
	}
	n := 1
	for len(ch) > 0 {
		<-ch
		n++
	}
	if n != defaultBufferCap {
		t.Fatalf("replayed %d lines, want %d", n, defaultBufferCap)
	}
}

func TestStreamsAreIndependent(t *testing.T) {
	h := New()
	ch1, unsub1 := h.Subscribe("a")
	defer unsub1()
	ch2, unsub2 := h.Subscribe("b")
	defer unsub2()

	h.Publish("a", "for-a")
	if got := recvOne(t, ch1); got != "for-a" {
		t.Fatalf("a got %q", got)
	}
	select {
	case line := <-ch2:
		t.Fatalf("b received %q", line)
	default:
	}
}

func TestDoneClosesSubscribers(t *testing.T) {
	h := New()
	ch, _ := h.Subscribe("s1")

	h.Done("s1")

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("received a line instead of close")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Done")
	}

	// The stream state is dropped; publishing afterwards starts fresh.
	h.Publish("s1", "again")
	ch2, unsub := h.Subscribe("s1")
	defer unsub()
	if got := recvOne(t, ch2); got != "again" {
		t.Fatalf("fresh stream line = %q", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New()
	ch, unsub := h.Subscribe("s1")
	unsub()

	h.Publish("s1", "after-unsub")
	select {
	case line := <-ch:
		t.Fatalf("received %q after unsubscribe", line)
	default:
	}
}
