// Package sim runs the instrument against a simulated board: a clock that
// can be real or mocked, a square-wave input source, a recording PWM
// peripheral and an analytic edge counter.
package sim

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"freqgen/core"
)

// PWMClockHz is the simulated PWM source clock
const PWMClockHz = 125_000_000

var (
	ErrPinMode  = errors.New("sim: pin not configured for this use")
	ErrPWMRange = errors.New("sim: pwm frequency out of range")
	ErrChannel  = errors.New("sim: pwm channel not attached")
)

// BoardConfig selects what the input pin sees
type BoardConfig struct {
	InputPin  core.GPIOPin
	OutputPin core.GPIOPin

	// Loopback wires the output pin to the input pin
	Loopback bool

	// SignalHz is the external input frequency when Loopback is off.
	// Zero leaves the input low.
	SignalHz float64

	// FailPWM makes every Configure call fail
	FailPWM bool
}

// PWMState is the simulated peripheral's register state
type PWMState struct {
	Attached bool
	Pin      core.GPIOPin
	Channel  core.PWMChannel
	Hz       float64
	Bits     uint8
	Duty     uint32
}

// Board implements the GPIO, PWM and edge counter drivers
type Board struct {
	clk   clock.Clock
	epoch time.Time
	cfg   BoardConfig

	mu      sync.Mutex
	outputs map[core.GPIOPin]bool
	inputs  map[core.GPIOPin]bool
	levels  map[core.GPIOPin]bool
	pwm     PWMState

	attaches   int
	detaches   int
	configures int

	counting bool
	countPin core.GPIOPin
	counted  uint32
	wave     float64 // current input square wave, 0 when none
	waveFrom uint64
}

// NewBoard creates a board whose time starts at zero on clk
func NewBoard(clk clock.Clock, cfg BoardConfig) *Board {
	b := &Board{
		clk:     clk,
		epoch:   clk.Now(),
		cfg:     cfg,
		outputs: make(map[core.GPIOPin]bool),
		inputs:  make(map[core.GPIOPin]bool),
		levels:  make(map[core.GPIOPin]bool),
	}
	if !cfg.Loopback {
		b.wave = cfg.SignalHz
	}
	return b
}

// Micros returns microseconds since the board was created
func (b *Board) Micros() uint64 {
	return uint64(b.clk.Since(b.epoch).Microseconds())
}

// risingEdges counts rising edges of a square wave started at time zero,
// matching the phase of core.Phase
func risingEdges(hz float64, now uint64) uint64 {
	if hz <= 0 {
		return 0
	}
	return uint64(math.Floor(hz*float64(now)/1e6 + 0.5))
}

// switchWave folds the edges of the current wave into the count and starts
// a new one. Caller holds mu.
func (b *Board) switchWave(hz float64, now uint64) {
	b.counted += uint32(risingEdges(b.wave, now) - risingEdges(b.wave, b.waveFrom))
	b.wave = hz
	b.waveFrom = now
}

func (b *Board) loopsBack(pin core.GPIOPin) bool {
	return b.cfg.Loopback && pin == b.cfg.OutputPin
}

// ConfigureOutput implements core.GPIODriver
func (b *Board) ConfigureOutput(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputs[pin] = true
	delete(b.inputs, pin)
	return nil
}

// ConfigureInput implements core.GPIODriver
func (b *Board) ConfigureInput(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputs[pin] = true
	delete(b.outputs, pin)
	return nil
}

// SetPin implements core.GPIODriver. Rising edges on a looped back output
// are counted directly.
func (b *Board) SetPin(pin core.GPIOPin, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.outputs[pin] {
		return ErrPinMode
	}
	if value && !b.levels[pin] && b.loopsBack(pin) {
		b.counted++
	}
	b.levels[pin] = value
	return nil
}

// ReadPin implements core.GPIODriver
func (b *Board) ReadPin(pin core.GPIOPin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levelLocked(pin, b.Micros())
}

func (b *Board) levelLocked(pin core.GPIOPin, now uint64) bool {
	if pin != b.cfg.InputPin {
		return b.levels[pin]
	}
	if b.cfg.Loopback && !b.pwm.Attached {
		return b.levels[b.cfg.OutputPin]
	}
	if b.wave <= 0 {
		return false
	}
	return core.Phase(b.wave, now)
}

// Attach implements core.PWMDriver
func (b *Board) Attach(ch core.PWMChannel, pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attaches++
	b.pwm = PWMState{Attached: true, Pin: pin, Channel: ch}
	delete(b.outputs, pin)
	if b.loopsBack(pin) {
		b.switchWave(0, b.Micros())
	}
	return nil
}

// Configure implements core.PWMDriver. The frequency is quantized to a
// whole number of source clock ticks.
func (b *Board) Configure(ch core.PWMChannel, hz float64, bits uint8) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configures++
	if !b.pwm.Attached || b.pwm.Channel != ch {
		return 0, ErrChannel
	}
	if b.cfg.FailPWM || hz <= 0 || hz*float64(uint64(1)<<bits) > PWMClockHz {
		return 0, ErrPWMRange
	}
	ticks := math.Round(PWMClockHz / hz)
	actual := PWMClockHz / ticks

	b.pwm.Hz = actual
	b.pwm.Bits = bits
	b.pwm.Duty = 0
	return actual, nil
}

// SetDuty implements core.PWMDriver. The input sees the wave once the
// duty is non-zero.
func (b *Board) SetDuty(ch core.PWMChannel, level uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pwm.Attached || b.pwm.Channel != ch {
		return ErrChannel
	}
	b.pwm.Duty = level
	if b.loopsBack(b.pwm.Pin) {
		hz := 0.0
		if level > 0 {
			hz = b.pwm.Hz
		}
		b.switchWave(hz, b.Micros())
	}
	return nil
}

// Detach implements core.PWMDriver
func (b *Board) Detach(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detaches++
	if !b.pwm.Attached || b.pwm.Pin != pin {
		return nil
	}
	b.pwm = PWMState{}
	if b.loopsBack(pin) {
		b.switchWave(0, b.Micros())
	}
	return nil
}

// Start implements core.EdgeCounter
func (b *Board) Start(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pin != b.cfg.InputPin {
		return ErrPinMode
	}
	b.counting = true
	b.countPin = pin
	return nil
}

// Count implements core.EdgeCounter
func (b *Board) Count() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.counting {
		return 0
	}
	now := b.Micros()
	return b.counted + uint32(risingEdges(b.wave, now)-risingEdges(b.wave, b.waveFrom))
}

// SetSignal changes the external input frequency. It has no effect in
// loopback mode.
func (b *Board) SetSignal(hz float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cfg.Loopback {
		return
	}
	b.cfg.SignalHz = hz
	b.switchWave(hz, b.Micros())
}

// PWM returns the peripheral state
func (b *Board) PWM() PWMState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pwm
}

// PWMCalls returns how often Attach, Configure and Detach were called
func (b *Board) PWMCalls() (attaches, configures, detaches int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attaches, b.configures, b.detaches
}
