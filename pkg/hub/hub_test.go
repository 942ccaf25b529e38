package hub

import (
	"testing"
	"time"

	"github.com/driftworks/stackpulse/pkg/types"
)

func recvOne(t *testing.T, sub *Subscriber) *types.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := New()
	defer h.Close()

	a := h.Subscribe()
	b := h.Subscribe()

	snap := types.EmptySnapshot()
	h.Publish(snap)

	if got := recvOne(t, a); got != snap {
		t.Error("subscriber a received a different snapshot")
	}
	if got := recvOne(t, b); got != snap {
		t.Error("subscriber b received a different snapshot")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	defer h.Close()

	sub := h.Subscribe()
	h.Unsubscribe(sub)

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Error("expected closed channel, got a value")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// A second unsubscribe of the same subscriber is a no-op.
	h.Unsubscribe(sub)
}

func TestSlowSubscriberIsDroppedNotBlocking(t *testing.T) {
	h := New()
	defer h.Close()

	slow := h.Subscribe() // never drained
	fast := h.Subscribe()

	// Drain the fast subscriber continuously so only the slow one overflows.
	received := make(chan int, 1)
	go func() {
		n := 0
		for range fast.C() {
			n++
		}
		received <- n
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Overflow the slow subscriber's buffer; publishing must not block.
		for i := 0; i < subscriberBuffer+2; i++ {
			h.Publish(types.EmptySnapshot())
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	h.Unsubscribe(fast)
	if n := <-received; n == 0 {
		t.Error("fast subscriber received nothing")
	}

	// The slow subscriber's channel ends in a close once its buffer is drained.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-slow.ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("slow subscriber was not dropped")
		}
	}
}

func TestCloseClosesAllSubscribers(t *testing.T) {
	h := New()
	sub := h.Subscribe()

	h.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.C():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed on hub close")
		}
	}
}

func TestSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	h := New()
	h.Close()

	sub := h.Subscribe()
	select {
	case _, ok := <-sub.C():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed for post-close subscribe")
	}
}
