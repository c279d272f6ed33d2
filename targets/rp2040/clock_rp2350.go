//go:build rp2350

package main

// RP2350 TIMER0 raw (unlatched) registers. TIMER0 moved from the RP2040
// address.
const (
	timerBase     = 0x400B0000
	timerRawHAddr = timerBase + 0x24
	timerRawLAddr = timerBase + 0x28

	mcuName = "rp2350"
)
