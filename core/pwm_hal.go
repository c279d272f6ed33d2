package core

// PWMChannel identifies a hardware PWM channel (LEDC channel, RP2040 slice, sysfs pwmN)
type PWMChannel uint8

// PWMDriver is the abstract PWM interface used by the output synthesizer.
// Every call is assumed to be expensive (peripheral reset, audible glitch)
// and is only issued when the target frequency changes.
type PWMDriver interface {
	// Attach routes the channel to the pin
	Attach(ch PWMChannel, pin GPIOPin) error

	// Configure sets the channel frequency and duty resolution.
	// Returns the frequency the hardware actually produces.
	Configure(ch PWMChannel, hz float64, resolutionBits uint8) (float64, error)

	// SetDuty sets the duty level, 0 to (1<<resolutionBits)-1
	SetDuty(ch PWMChannel, level uint32) error

	// Detach releases the pin from the PWM peripheral
	Detach(pin GPIOPin) error
}
