package core

// Low-frequency measurement by timing rising edges on the input pin.
// Works down to a fraction of a Hz; above ~250 Hz the gated counter takes over.

const (
	// DefaultDebounceMicros is the minimum time from the last rising edge
	// before another level change is accepted
	DefaultDebounceMicros = 800

	microsPerSecond = 1000000.0

	// Smoothing regimes, selected by the previous frequency estimate
	slowSmoothAboveHz = 49.0 // interval = 0.95*interval + 0.05*new
	fastSmoothAboveHz = 9.0  // interval = 0.90*interval + 0.10*new
)

// Transition is an input level observed at a point in time
type Transition struct {
	Level bool
	At    uint64 // microseconds
}

// EdgeTimer is the debounced level state machine plus the smoothed
// rising-edge interval. It never blocks; a stalled input simply stops
// updating the estimate.
type EdgeTimer struct {
	debounce uint64
	level    bool
	ref      uint64  // last accepted rising edge + 1
	interval float64 // smoothed microseconds between rising edges
	hz       float64
	edges    uint32
}

// NewEdgeTimer creates an edge timer with the given debounce window
func NewEdgeTimer(debounceMicros uint32) *EdgeTimer {
	return &EdgeTimer{debounce: uint64(debounceMicros)}
}

// Reset clears the estimate and starts timing from now
func (e *EdgeTimer) Reset(now uint64) {
	e.level = false
	e.ref = now
	e.interval = 0
	e.hz = 0
	e.edges = 0
}

// Observe feeds one level observation. It returns true when the
// observation was accepted as a transition.
func (e *EdgeTimer) Observe(t Transition) bool {
	if t.Level == e.level {
		return false
	}
	// signed so a timestamp just behind ref counts as inside the window
	if int64(t.At-e.ref) <= int64(e.debounce) {
		return false
	}

	e.level = t.Level
	if t.Level {
		e.rising(t.At)
	}
	return true
}

func (e *EdgeTimer) rising(at uint64) {
	d := float64(Elapsed(e.ref, at))

	switch {
	case e.hz > slowSmoothAboveHz:
		e.interval = 0.95*e.interval + 0.05*d
	case e.hz > fastSmoothAboveHz:
		e.interval = 0.90*e.interval + 0.10*d
	default:
		e.interval = d
	}

	e.ref = at + 1
	e.edges++
	if e.interval > 0 {
		e.hz = microsPerSecond / e.interval
	}
}

// Frequency returns the current estimate in Hz (0 until the first rising edge)
func (e *EdgeTimer) Frequency() float64 {
	return e.hz
}

// Interval returns the smoothed rising-edge interval in microseconds
func (e *EdgeTimer) Interval() float64 {
	return e.interval
}

// Level returns the last accepted input level
func (e *EdgeTimer) Level() bool {
	return e.level
}

// Edges returns the number of accepted rising edges
func (e *EdgeTimer) Edges() uint32 {
	return e.edges
}
