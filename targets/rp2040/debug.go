//go:build rp2040 || rp2350

package main

import (
	"machine"

	"freqgen/core"
)

// InitDebugUART routes core debug output to UART0 (TX=GP0, RX=GP1) at
// 115200 baud. USB carries the remote link, so debug text cannot share it.
func InitDebugUART(enabled bool) {
	uart := machine.UART0
	err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		uart.Write([]byte(s))
		uart.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(enabled)
	core.DebugPrintln("=== " + mcuName + " debug UART ===")
}
