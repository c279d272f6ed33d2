//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"freqgen/core"
)

var (
	ErrPWMNotAttached = errors.New("pwm: channel not attached")
	ErrPWMFrequency   = errors.New("pwm: frequency out of range")
)

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// pwmRoute is one attached channel
type pwmRoute struct {
	pin     machine.Pin
	slice   pwmPeripheral
	channel uint8
	bits    uint8
}

// RPPWMDriver implements core.PWMDriver over the RP2040's 8 PWM slices.
// Each GPIO pin is hard-wired to one slice output, so the channel is only
// a handle for the route set up by Attach.
type RPPWMDriver struct {
	routes map[core.PWMChannel]*pwmRoute
}

// NewRPPWMDriver creates a new PWM driver
func NewRPPWMDriver() *RPPWMDriver {
	return &RPPWMDriver{routes: make(map[core.PWMChannel]*pwmRoute)}
}

// Attach routes the pin's slice output to the channel handle
func (d *RPPWMDriver) Attach(ch core.PWMChannel, pin core.GPIOPin) error {
	p := machine.Pin(pin)

	// GPIO pin N maps to slice (N >> 1) & 0x7, output A/B = N & 1
	slice := getPWMPeripheral(uint8((pin >> 1) & 0x7))
	channel, err := slice.Channel(p)
	if err != nil {
		return err
	}
	d.routes[ch] = &pwmRoute{pin: p, slice: slice, channel: channel}
	return nil
}

// Configure sets the slice period. The hardware works in whole
// nanoseconds, so the returned frequency is the one the period gives.
func (d *RPPWMDriver) Configure(ch core.PWMChannel, hz float64, bits uint8) (float64, error) {
	r, ok := d.routes[ch]
	if !ok {
		return 0, ErrPWMNotAttached
	}
	if hz <= 0 {
		return 0, ErrPWMFrequency
	}
	period := uint64(1e9/hz + 0.5)
	if period == 0 {
		return 0, ErrPWMFrequency
	}
	if err := r.slice.Configure(machine.PWMConfig{Period: period}); err != nil {
		return 0, err
	}
	r.bits = bits
	return 1e9 / float64(period), nil
}

// SetDuty sets the duty level out of 2^bits
func (d *RPPWMDriver) SetDuty(ch core.PWMChannel, level uint32) error {
	r, ok := d.routes[ch]
	if !ok {
		return ErrPWMNotAttached
	}
	// TinyGo compares against Top(); scale the level to Top()+1 steps
	top := r.slice.Top()
	r.slice.Set(r.channel, uint32((uint64(top)+1)*uint64(level)>>r.bits))
	return nil
}

// Detach drives the slice output low and forgets the route. The pin
// stays in PWM function until it is reconfigured as a GPIO.
func (d *RPPWMDriver) Detach(pin core.GPIOPin) error {
	for ch, r := range d.routes {
		if r.pin == machine.Pin(pin) {
			r.slice.Set(r.channel, 0)
			delete(d.routes, ch)
		}
	}
	return nil
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
// RP2040 has 8 PWM slices: PWM0-PWM7
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
