package core

import "errors"

var ErrWindow = errors.New("counter: gate window must be > 0 ms")

// GateCounter implements FrequencyCounter over a free-running edge count.
// Each window is closed by a scheduler timer; the frequency is the edge
// delta over the measured window length, so a late poll stretches the
// window instead of skewing the result.
type GateCounter struct {
	clock  Clock
	source EdgeCounter
	sched  Scheduler
	gate   Timer

	window     uint64
	startAt    uint64
	startCount uint32

	hz      float64
	edges   uint32
	ready   bool
	windows uint32
}

// NewGateCounter wraps an edge count source
func NewGateCounter(clock Clock, source EdgeCounter) *GateCounter {
	g := &GateCounter{clock: clock, source: source}
	g.gate.Handler = g.closeWindow
	return g
}

// Begin starts counting edges on pin with the given gate window
func (g *GateCounter) Begin(pin GPIOPin, windowMs uint32) error {
	if windowMs == 0 {
		return ErrWindow
	}
	if err := g.source.Start(pin); err != nil {
		return err
	}

	g.sched.Cancel(&g.gate)
	g.window = MicrosFromMillis(windowMs)
	g.startAt = g.clock.Micros()
	g.startCount = g.source.Count()
	g.ready = false

	g.gate.WakeTime = g.startAt + g.window
	g.sched.Schedule(&g.gate)
	return nil
}

func (g *GateCounter) closeWindow(t *Timer) uint8 {
	now := g.clock.Micros()
	count := g.source.Count()

	g.edges = count - g.startCount
	if span := Elapsed(g.startAt, now); span > 0 {
		g.hz = float64(g.edges) * microsPerSecond / float64(span)
	}
	g.ready = true
	g.windows++

	g.startAt = now
	g.startCount = count
	t.WakeTime = now + g.window
	return SF_RESCHEDULE
}

// Available closes any due window and reports whether a result is pending
func (g *GateCounter) Available() bool {
	g.sched.Dispatch(g.clock.Micros())
	return g.ready
}

// Read consumes the pending result
func (g *GateCounter) Read() float64 {
	g.ready = false
	return g.hz
}

// LastEdges returns the edge count of the last completed window
func (g *GateCounter) LastEdges() uint32 {
	return g.edges
}

// Windows returns the number of completed windows
func (g *GateCounter) Windows() uint32 {
	return g.windows
}
