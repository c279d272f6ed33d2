package core

// FrequencyCounter is a gated frequency counting peripheral.
// Available reports true once per completed window, until Read consumes it.
type FrequencyCounter interface {
	// Begin starts counting rising edges on pin with the given gate window
	Begin(pin GPIOPin, windowMs uint32) error

	// Available reports whether a finished window is waiting to be read
	Available() bool

	// Read returns the frequency of the last finished window in Hz
	Read() float64
}

// EdgeCounter is a free-running rising edge counter (PIO state machine,
// GPIO event stream, simulated signal). Count wraps at 2^32.
type EdgeCounter interface {
	Start(pin GPIOPin) error
	Count() uint32
}
