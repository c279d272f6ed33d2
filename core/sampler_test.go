package core

import "testing"

func TestEdgeQueueOrderAndLastLevel(t *testing.T) {
	q := NewEdgeQueue()
	if _, ok := q.Poll(0); ok {
		t.Fatalf("empty queue reported an observation")
	}

	q.Push(true, 100)
	q.Push(false, 200)

	tr, ok := q.Poll(1000)
	if !ok || !tr.Level || tr.At != 100 {
		t.Errorf("first = %+v, %v", tr, ok)
	}
	tr, _ = q.Poll(1000)
	if tr.Level || tr.At != 200 {
		t.Errorf("second = %+v", tr)
	}
	// drained: the last level is reported at the poll time
	tr, ok = q.Poll(5000)
	if !ok || tr.Level || tr.At != 5000 {
		t.Errorf("drained = %+v, %v", tr, ok)
	}
}

func TestEdgeQueueOverflow(t *testing.T) {
	q := NewEdgeQueue()
	for i := 0; i < EdgeQueueSize+3; i++ {
		q.Push(i%2 == 0, uint64(i))
	}
	if q.Dropped() != 3 {
		t.Errorf("Dropped = %d, want 3", q.Dropped())
	}
}

func TestEdgeQueueFeedsTimer(t *testing.T) {
	q := NewEdgeQueue()
	e := NewEdgeTimer(DefaultDebounceMicros)
	e.Reset(0)

	// 50 Hz with a glitch 100µs after each rising edge
	for k := uint64(1); k <= 100; k++ {
		rise := k * 20000
		q.Push(true, rise)
		q.Push(false, rise+100)
		q.Push(true, rise+150)
		q.Push(false, rise+10000)
		for {
			tr, ok := q.Poll(rise + 10001)
			if !ok || tr.At > rise+10000 {
				break
			}
			e.Observe(tr)
		}
	}
	if hz := e.Frequency(); hz < 49.5 || hz > 50.5 {
		t.Errorf("frequency = %v, want 50", hz)
	}
}

func TestPinSamplerReadsLevel(t *testing.T) {
	clock := &fakeClock{now: 77}
	g := newFakeGPIO(clock)
	g.levels[14] = true
	tr, ok := NewPinSampler(g, 14).Poll(clock.now)
	if !ok || !tr.Level || tr.At != 77 {
		t.Errorf("Poll = %+v, %v", tr, ok)
	}
}
