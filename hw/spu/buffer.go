package spu

import (
	"sync"
	"sync/atomic"
	"time"
)

// getSamples gives up waiting for the producer after this long, roughly one
// 60 Hz frame, and repeats the last played sample instead.
const drainTimeout = 500000 * time.Microsecond / 60

// pollInterval bounds how often the wait loops re-check the shared state.
// A condition variable would wake cleaner but puts latency at the mercy of
// the scheduler; a short sleep keeps the exit from the wait state swift.
const pollInterval = 50 * time.Microsecond

// exchange hands stereo frames from the producer (the emulation tick) to
// the consumer (the host audio callback) through a pair of equally sized
// buffers. The producer fills the back buffer one frame at a time and swaps
// it to the front when full; the consumer copies the front buffer out and
// marks it played. Both run at their own pace and only meet here.
type exchange struct {
	mu    sync.Mutex
	bufs  [2][]uint32
	front int  // index of the consumer-facing buffer
	ready bool // front buffer is filled and unplayed

	ptr  int // producer write cursor into the back buffer
	size int // frames per buffer; set by the consumer

	limit atomic.Bool // pace the producer to the consumer
}

// push appends one frame to the back buffer, swapping buffers when it fills
// up. With the rate limit on, a swap against a still-unplayed front buffer
// blocks until the consumer drains it, which throttles the whole emulation
// to the audio rate.
func (x *exchange) push(frame uint32) {
	x.mu.Lock()
	if x.size == 0 {
		x.mu.Unlock()
		return
	}

	x.bufs[x.front^1][x.ptr] = frame
	x.ptr++
	if x.ptr < x.size {
		x.mu.Unlock()
		return
	}

	if x.limit.Load() {
		for x.ready {
			x.mu.Unlock()
			time.Sleep(pollInterval)
			x.mu.Lock()
		}
	}

	x.front ^= 1
	x.ready = true
	x.ptr = 0
	x.mu.Unlock()
}

// getSamples returns count frames, preferring a freshly produced buffer but
// falling back after drainTimeout to repeating the last played sample so a
// slow producer causes silence-shaped output instead of crackles. The
// returned slice is owned by the caller.
func (x *exchange) getSamples(count int) []uint32 {
	x.mu.Lock()
	if x.size != count {
		x.bufs[0] = make([]uint32, count)
		x.bufs[1] = make([]uint32, count)
		x.size = count
		x.ptr = 0
		x.ready = false
	}
	x.mu.Unlock()

	deadline := time.Now().Add(drainTimeout)
	filled := false
	for {
		x.mu.Lock()
		if x.ready {
			filled = true
			x.mu.Unlock()
			break
		}
		x.mu.Unlock()
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(pollInterval)
	}

	return x.take(count, filled)
}

// take copies the front buffer out, or repeats its last frame when the wait
// timed out. Either way the front buffer counts as played: a swap that lands
// between the deadline and this point is dropped, not served a cycle late.
func (x *exchange) take(count int, filled bool) []uint32 {
	out := make([]uint32, count)

	x.mu.Lock()
	if filled {
		copy(out, x.bufs[x.front])
	} else if count > 0 {
		last := x.bufs[x.front][count-1]
		for i := range out {
			out[i] = last
		}
	}
	x.ready = false
	x.mu.Unlock()

	return out
}
