package core

// Source says which instrument produced a measurement
type Source uint8

const (
	SourceUnavailable Source = iota
	SourceEdgeTimer
	SourceCounter
)

func (s Source) String() string {
	switch s {
	case SourceEdgeTimer:
		return "edge"
	case SourceCounter:
		return "counter"
	default:
		return "none"
	}
}

const (
	// CounterMinHz is the lowest counter reading trusted for display
	CounterMinHz = 169.0

	// EdgeMinHz is the lowest edge timer reading trusted for display
	EdgeMinHz = 0.099
)

// Measurement is the measured input frequency and where it came from.
// Hz is meaningless when Source is SourceUnavailable.
type Measurement struct {
	Source Source
	Hz     float64
}

// SelectMeasurement prefers the counter when it sees enough edges per
// window, then the edge timer, then reports no signal.
func SelectMeasurement(counterHz, edgeHz float64) Measurement {
	switch {
	case counterHz > CounterMinHz:
		return Measurement{Source: SourceCounter, Hz: counterHz}
	case edgeHz > EdgeMinHz:
		return Measurement{Source: SourceEdgeTimer, Hz: edgeHz}
	default:
		return Measurement{Source: SourceUnavailable}
	}
}
