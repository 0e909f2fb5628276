package audio

import (
	"sync/atomic"
	"time"
)

// Queue is a bounded single-producer/single-consumer frame queue. The
// capture callback must never block, so Offer drops the frame when the
// consumer falls behind.
type Queue struct {
	ch      chan Frame
	dropped atomic.Uint64
}

func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = 1
	}
	return &Queue{ch: make(chan Frame, depth)}
}

// Offer enqueues without blocking. Returns false when the queue is
// full and the frame was dropped.
func (q *Queue) Offer(f Frame) bool {
	select {
	case q.ch <- f:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Poll waits up to timeout for a frame. ok is false on an empty queue,
// which callers treat as a no-op iteration.
func (q *Queue) Poll(timeout time.Duration) (Frame, bool) {
	select {
	case f := <-q.ch:
		return f, true
	case <-time.After(timeout):
		return Frame{}, false
	}
}

// Dropped reports how many frames were discarded by Offer.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len reports the number of buffered frames.
func (q *Queue) Len() int {
	return len(q.ch)
}
