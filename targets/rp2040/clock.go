//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerRawHAddr)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerRawLAddr)))
)

// hwClock is the 64-bit 1 MHz hardware timer. It does not wrap in the
// lifetime of the device.
type hwClock struct{}

// Micros reads the full 64-bit timer
func (hwClock) Micros() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
