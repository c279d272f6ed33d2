//go:build rp2040 || rp2350

package main

import (
	"machine"

	"freqgen/core"
)

// InitUSB initializes USB serial communication
// TinyGo automatically sets up USB CDC-ACM on RP2040
func InitUSB() core.LinkPort {
	// machine.Serial is USB CDC on RP2040, not a UART
	machine.Serial.Configure(machine.UARTConfig{})
	return machine.Serial
}
