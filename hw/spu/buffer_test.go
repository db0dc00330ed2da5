package spu

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestExchangeRoundTrip(t *testing.T) {
	var x exchange

	x.getSamples(4) // sizes the buffers

	for i := uint32(0); i < 4; i++ {
		x.push(i)
	}
	got := x.getSamples(4)
	if diff := cmp.Diff([]uint32{0, 1, 2, 3}, got); diff != "" {
		t.Errorf("first block mismatch (-want +got):\n%s", diff)
	}

	for i := uint32(4); i < 8; i++ {
		x.push(i)
	}
	got = x.getSamples(4)
	if diff := cmp.Diff([]uint32{4, 5, 6, 7}, got); diff != "" {
		t.Errorf("second block mismatch (-want +got):\n%s", diff)
	}
}

// A starved consumer gets the last played sample, not silence.
func TestExchangeStarvation(t *testing.T) {
	var x exchange

	x.getSamples(4)
	for i := uint32(0); i < 4; i++ {
		x.push(i + 10)
	}
	x.getSamples(4)

	start := time.Now()
	got := x.getSamples(4)
	if elapsed := time.Since(start); elapsed < drainTimeout {
		t.Errorf("starved getSamples returned after %v, want at least %v", elapsed, drainTimeout)
	}
	if diff := cmp.Diff([]uint32{13, 13, 13, 13}, got); diff != "" {
		t.Errorf("starved block mismatch (-want +got):\n%s", diff)
	}
}

// A swap that lands after the consumer gave up waiting is dropped: the
// starved copy-out still marks the front buffer played, so the late block
// does not come back one cycle stale.
func TestExchangeLateSwapDiscarded(t *testing.T) {
	var x exchange

	x.getSamples(2)
	x.push(20)
	x.push(21)
	x.getSamples(2)

	x.mu.Lock()
	x.ready = true // swap landing between the deadline and the copy-out
	x.mu.Unlock()

	got := x.take(2, false)
	if diff := cmp.Diff([]uint32{21, 21}, got); diff != "" {
		t.Errorf("starved block mismatch (-want +got):\n%s", diff)
	}

	start := time.Now()
	x.getSamples(2)
	if elapsed := time.Since(start); elapsed < drainTimeout {
		t.Errorf("late block served after %v, want starvation of at least %v", elapsed, drainTimeout)
	}
}

// Changing the block size discards whatever was buffered.
func TestExchangeRealloc(t *testing.T) {
	var x exchange

	x.getSamples(4)
	for i := uint32(0); i < 4; i++ {
		x.push(i + 1)
	}

	got := x.getSamples(8)
	if diff := cmp.Diff(make([]uint32, 8), got); diff != "" {
		t.Errorf("block after realloc mismatch (-want +got):\n%s", diff)
	}
}

// Frames pushed before the first consumer call are dropped.
func TestExchangeUnsized(t *testing.T) {
	var x exchange

	x.push(42)
	x.push(43)

	got := x.getSamples(2)
	if diff := cmp.Diff([]uint32{0, 0}, got); diff != "" {
		t.Errorf("block mismatch (-want +got):\n%s", diff)
	}
}

// With the rate limit on, the producer stalls on a full buffer until the
// consumer drains the previous one.
func TestExchangeRateLimit(t *testing.T) {
	var x exchange
	x.limit.Store(true)

	x.getSamples(2)

	done := make(chan struct{})
	go func() {
		for i := uint32(0); i < 6; i++ {
			x.push(i)
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("producer should block on the second full buffer")
	case <-time.After(20 * time.Millisecond):
	}

	if diff := cmp.Diff([]uint32{0, 1}, x.getSamples(2)); diff != "" {
		t.Errorf("first block mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{2, 3}, x.getSamples(2)); diff != "" {
		t.Errorf("second block mismatch (-want +got):\n%s", diff)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer should finish once the consumer drains")
	}

	if diff := cmp.Diff([]uint32{4, 5}, x.getSamples(2)); diff != "" {
		t.Errorf("third block mismatch (-want +got):\n%s", diff)
	}
}
