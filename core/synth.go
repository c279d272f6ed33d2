package core

import "errors"

// Output synthesis: slow targets are bit-banged from the loop,
// fast targets are handed to the PWM peripheral.

const (
	// DefaultBoundaryHz is the lowest target generated by hardware PWM
	DefaultBoundaryHz = 250.0

	// DefaultResolutionBits is the PWM counter resolution. Two bits keep
	// the top frequency achievable on slow peripheral clocks.
	DefaultResolutionBits = 2

	halfPeriodScale = 500000.0 // µs per half second
)

var ErrNoTarget = errors.New("synth: target frequency must be positive")

// Regime is the active output path
type Regime uint8

const (
	RegimeIdle Regime = iota
	RegimeSoftware
	RegimeHardware
)

func (r Regime) String() string {
	switch r {
	case RegimeSoftware:
		return "software"
	case RegimeHardware:
		return "pwm"
	default:
		return "idle"
	}
}

// SynthConfig selects the output pin and PWM resources
type SynthConfig struct {
	Pin            GPIOPin
	Channel        PWMChannel
	ResolutionBits uint8
	BoundaryHz     float64
}

// Synthesizer owns the output pin. SetTarget is called on position
// changes only; Tick is called on every loop pass.
type Synthesizer struct {
	gpio GPIODriver
	pwm  PWMDriver
	cfg  SynthConfig

	regime Regime
	target float64
	pwmHz  float64 // frequency reported by the PWM driver
	duty   uint32
	level  bool
}

// NewSynthesizer creates an idle synthesizer. The output path is set up
// by the first SetTarget.
func NewSynthesizer(gpio GPIODriver, pwm PWMDriver, cfg SynthConfig) *Synthesizer {
	if cfg.ResolutionBits == 0 {
		cfg.ResolutionBits = DefaultResolutionBits
	}
	if cfg.BoundaryHz <= 0 {
		cfg.BoundaryHz = DefaultBoundaryHz
	}
	return &Synthesizer{gpio: gpio, pwm: pwm, cfg: cfg}
}

// SetTarget switches to a new target frequency. The same target twice
// is a no-op, so the peripheral is only touched when something changed.
// If the PWM path fails the synthesizer keeps producing its previous
// output and returns the driver error.
func (s *Synthesizer) SetTarget(hz float64) error {
	if hz <= 0 {
		return ErrNoTarget
	}
	if s.regime != RegimeIdle && hz == s.target {
		return nil
	}

	if hz >= s.cfg.BoundaryHz {
		return s.enterHardware(hz)
	}
	return s.enterSoftware(hz)
}

// enterHardware (re)attaches the channel for every new hardware target.
// State is committed only after every driver call succeeded.
func (s *Synthesizer) enterHardware(hz float64) error {
	actual, err := s.startPWM(hz)
	if err == nil {
		s.regime = RegimeHardware
		s.target = hz
		s.pwmHz = actual
		return nil
	}

	switch s.regime {
	case RegimeHardware:
		if prev, rerr := s.startPWM(s.target); rerr == nil {
			s.pwmHz = prev
			return err
		}
		s.fallBack(s.target)
	case RegimeSoftware:
		s.fallBack(s.target)
	default:
		// nothing to go back to: bit-bang the new target
		s.fallBack(hz)
	}
	return err
}

// startPWM runs the attach, configure and duty sequence at 50% duty
func (s *Synthesizer) startPWM(hz float64) (float64, error) {
	if err := s.pwm.Attach(s.cfg.Channel, s.cfg.Pin); err != nil {
		return 0, err
	}
	actual, err := s.pwm.Configure(s.cfg.Channel, hz, s.cfg.ResolutionBits)
	if err != nil {
		return 0, err
	}

	// midpoint of the 2^bits levels is a 50% duty cycle
	duty := (uint32(1) << s.cfg.ResolutionBits) / 2
	if err := s.pwm.SetDuty(s.cfg.Channel, duty); err != nil {
		return 0, err
	}
	s.duty = duty
	return actual, nil
}

// fallBack puts the pin back under software control after a failed
// attempt may have handed it to the PWM peripheral
func (s *Synthesizer) fallBack(hz float64) {
	s.regime = RegimeIdle
	s.enterSoftware(hz)
}

// enterSoftware releases the PWM channel once per crossing
func (s *Synthesizer) enterSoftware(hz float64) error {
	s.target = hz
	if s.regime == RegimeSoftware {
		return nil
	}
	s.regime = RegimeSoftware
	s.pwmHz = 0
	s.duty = 0

	err := s.pwm.Detach(s.cfg.Pin)
	if cerr := s.gpio.ConfigureOutput(s.cfg.Pin); cerr != nil {
		return cerr
	}
	return err
}

// Tick drives the pin in software mode. The level is a pure function of
// time, so a late pass never accumulates phase error.
func (s *Synthesizer) Tick(now uint64) {
	if s.regime != RegimeSoftware {
		return
	}
	s.level = Phase(s.target, now)
	s.gpio.SetPin(s.cfg.Pin, s.level)
}

// Phase returns the square-wave level for hz at time now (µs)
func Phase(hz float64, now uint64) bool {
	return int64(hz*float64(now)/halfPeriodScale)%2 == 1
}

// Regime returns the active output path
func (s *Synthesizer) Regime() Regime {
	return s.regime
}

// Target returns the current target frequency
func (s *Synthesizer) Target() float64 {
	return s.target
}

// PWMFrequency returns the frequency the PWM driver reported, or 0
func (s *Synthesizer) PWMFrequency() float64 {
	return s.pwmHz
}

// Duty returns the configured PWM duty level
func (s *Synthesizer) Duty() uint32 {
	return s.duty
}

// Level returns the last level written in software mode
func (s *Synthesizer) Level() bool {
	return s.level
}
