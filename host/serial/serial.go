// Package serial opens the serial device carrying the remote UI link
// (USB CDC, UART adapter or a Bluetooth RFCOMM tty).
package serial

import "io"

// Port is an open serial device
type Port interface {
	io.ReadWriteCloser

	// Flush discards data queued in the driver
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "/dev/rfcomm0", "COM3")
	Device string

	// Baud rate; USB CDC ignores it
	Baud int

	// ReadTimeout in milliseconds, 0 blocks
	ReadTimeout int
}

// DefaultConfig returns a configuration for device at 115200 baud
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
