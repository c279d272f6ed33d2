//go:build linux && !tinygo

package main

import "golang.org/x/sys/unix"

// monoClock reads CLOCK_MONOTONIC, the clock gpiocdev stamps edge events
// with, so event timestamps and loop time share one timeline
type monoClock struct{}

// Micros returns CLOCK_MONOTONIC in microseconds
func (monoClock) Micros() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return uint64(ts.Sec)*1_000_000 + uint64(ts.Nsec)/1000
}
