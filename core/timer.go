package core

// Clock is a monotonic microsecond timestamp source.
// Implementations may wrap; callers only ever subtract timestamps.
type Clock interface {
	Micros() uint64
}

// ClockFunc adapts a plain function to the Clock interface
type ClockFunc func() uint64

// Micros returns f()
func (f ClockFunc) Micros() uint64 {
	return f()
}

// Elapsed returns the time from 'from' to 'to' in microseconds.
// Unsigned subtraction keeps the result correct across a counter wrap.
func Elapsed(from, to uint64) uint64 {
	return to - from
}

// reached reports whether now is at or past deadline, tolerating wrap
func reached(now, deadline uint64) bool {
	return int64(now-deadline) >= 0
}

// MicrosFromMillis converts milliseconds to microseconds
func MicrosFromMillis(ms uint32) uint64 {
	return uint64(ms) * 1000
}
