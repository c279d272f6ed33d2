package core

import "sync/atomic"

// EdgeSampler supplies input level observations to the edge timer.
// Poll must not block; ok is false when there is nothing to report yet.
type EdgeSampler interface {
	Poll(now uint64) (t Transition, ok bool)
}

// PinSampler reads the input pin once per control loop pass.
// Sampling jitter is bounded by the loop period.
type PinSampler struct {
	gpio GPIODriver
	pin  GPIOPin
}

// NewPinSampler creates a polling sampler
func NewPinSampler(gpio GPIODriver, pin GPIOPin) *PinSampler {
	return &PinSampler{gpio: gpio, pin: pin}
}

// Poll returns the current pin level stamped with now
func (s *PinSampler) Poll(now uint64) (Transition, bool) {
	return Transition{Level: s.gpio.ReadPin(s.pin), At: now}, true
}

// EdgeQueueSize is the number of pending edges an EdgeQueue can hold
const EdgeQueueSize = 64

// EdgeQueue is an EdgeSampler fed from an interrupt or event handler.
// Push is the producer side (one writer), Poll the consumer side (the
// control loop). Edges carry the timestamp captured by the handler, so
// measurements do not depend on the loop rate.
type EdgeQueue struct {
	buf     [EdgeQueueSize]Transition
	head    atomic.Uint32 // next write
	tail    atomic.Uint32 // next read
	dropped atomic.Uint32

	// last level pushed, reported when the queue is empty so a level
	// rejected by debounce is seen again once the window has passed
	last     atomic.Bool
	haveLast atomic.Bool
}

// NewEdgeQueue creates an empty queue
func NewEdgeQueue() *EdgeQueue {
	return &EdgeQueue{}
}

// Push records a level change. Safe to call from interrupt context.
func (q *EdgeQueue) Push(level bool, at uint64) {
	h := q.head.Load()
	if h-q.tail.Load() >= EdgeQueueSize {
		q.dropped.Add(1)
		return
	}
	q.buf[h%EdgeQueueSize] = Transition{Level: level, At: at}
	q.head.Store(h + 1)
	q.last.Store(level)
	q.haveLast.Store(true)
}

// Poll pops the oldest queued edge, or reports the last known level at now
func (q *EdgeQueue) Poll(now uint64) (Transition, bool) {
	t := q.tail.Load()
	if t != q.head.Load() {
		tr := q.buf[t%EdgeQueueSize]
		q.tail.Store(t + 1)
		return tr, true
	}
	if !q.haveLast.Load() {
		return Transition{}, false
	}
	return Transition{Level: q.last.Load(), At: now}, true
}

// Dropped returns the number of edges lost to a full queue
func (q *EdgeQueue) Dropped() uint32 {
	return q.dropped.Load()
}
