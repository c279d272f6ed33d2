//go:build rp2040 || rp2350

package main

import (
	"machine"

	"freqgen/core"
)

// RPGPIODriver implements core.GPIODriver over machine.Pin
type RPGPIODriver struct{}

// NewRPGPIODriver creates a new GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

// ConfigureOutput configures a pin as a digital output. Always reconfigures:
// the pin may be coming back from the PWM function.
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

// ConfigureInput configures a pin as a floating input
func (d *RPGPIODriver) ConfigureInput(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machine.Pin(pin).Set(value)
	return nil
}

// ReadPin reads the current pin level
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

// WatchEdges feeds both edges of pin into q, stamped in the interrupt
func (d *RPGPIODriver) WatchEdges(pin core.GPIOPin, q *core.EdgeQueue, clock core.Clock) error {
	return machine.Pin(pin).SetInterrupt(machine.PinToggle, func(p machine.Pin) {
		q.Push(p.Get(), clock.Micros())
	})
}
