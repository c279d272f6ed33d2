// Package config holds the instrument's wiring and tuning parameters.
package config

import (
	"encoding/json"
	"errors"

	"freqgen/core"
)

// InstrumentConfig is the on-disk configuration. Zero values are replaced
// by defaults; StartPosition is a pointer because 0 is a valid position.
type InstrumentConfig struct {
	Name           string  `json:"name,omitempty" yaml:"name"`
	OutputPin      uint32  `json:"output_pin,omitempty" yaml:"output_pin"`
	InputPin       uint32  `json:"input_pin,omitempty" yaml:"input_pin"`
	PWMChannel     uint8   `json:"pwm_channel,omitempty" yaml:"pwm_channel"`
	ResolutionBits uint8   `json:"resolution_bits,omitempty" yaml:"resolution_bits"`
	BoundaryHz     float64 `json:"boundary_hz,omitempty" yaml:"boundary_hz"`
	WindowMs       uint32  `json:"window_ms,omitempty" yaml:"window_ms"`
	DebounceUs     uint32  `json:"debounce_us,omitempty" yaml:"debounce_us"`
	StartPosition  *int    `json:"start_position,omitempty" yaml:"start_position"`
	HeartbeatMs    uint32  `json:"heartbeat_ms,omitempty" yaml:"heartbeat_ms"`
	Debug          bool    `json:"debug,omitempty" yaml:"debug"`
	OLED           bool    `json:"oled,omitempty" yaml:"oled"`

	Link  LinkConfig  `json:"link" yaml:"link"`
	Board BoardConfig `json:"board" yaml:"board"`
}

// LinkConfig selects the serial port of the remote UI link
type LinkConfig struct {
	Device string `json:"device,omitempty" yaml:"device"`
	Baud   int    `json:"baud,omitempty" yaml:"baud"`
}

// BoardConfig names Linux board resources; unused on microcontrollers
type BoardConfig struct {
	GPIOChip string `json:"gpio_chip,omitempty" yaml:"gpio_chip"`
	PWMChip  int    `json:"pwm_chip,omitempty" yaml:"pwm_chip"`
}

// Defaults
const (
	DefaultName       = core.DeviceName
	DefaultOutputPin  = 2
	DefaultInputPin   = 14
	DefaultWindowMs   = 1000
	DefaultBaud       = 115200
	DefaultGPIOChip   = "gpiochip0"
	DefaultLinkDevice = "/dev/rfcomm0"
	maxResolutionBits = 16
)

// LoadConfig parses JSON, applies defaults and validates
func LoadConfig(jsonData []byte) (*InstrumentConfig, error) {
	var cfg InstrumentConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the stock configuration
func DefaultConfig() *InstrumentConfig {
	var cfg InstrumentConfig
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *InstrumentConfig) {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.OutputPin == 0 {
		cfg.OutputPin = DefaultOutputPin
	}
	if cfg.InputPin == 0 {
		cfg.InputPin = DefaultInputPin
	}
	if cfg.ResolutionBits == 0 {
		cfg.ResolutionBits = core.DefaultResolutionBits
	}
	if cfg.BoundaryHz == 0 {
		cfg.BoundaryHz = core.DefaultBoundaryHz
	}
	if cfg.WindowMs == 0 {
		cfg.WindowMs = DefaultWindowMs
	}
	if cfg.DebounceUs == 0 {
		cfg.DebounceUs = core.DefaultDebounceMicros
	}
	if cfg.StartPosition == nil {
		p := int(core.PositionDefault)
		cfg.StartPosition = &p
	}
	if cfg.HeartbeatMs == 0 {
		cfg.HeartbeatMs = core.DefaultHeartbeatMs
	}
	if cfg.Link.Device == "" {
		cfg.Link.Device = DefaultLinkDevice
	}
	if cfg.Link.Baud == 0 {
		cfg.Link.Baud = DefaultBaud
	}
	if cfg.Board.GPIOChip == "" {
		cfg.Board.GPIOChip = DefaultGPIOChip
	}
}

// Validate checks ranges after defaults are applied
func (c *InstrumentConfig) Validate() error {
	if c.StartPosition != nil {
		if p := *c.StartPosition; p < int(core.PositionMin) || p > int(core.PositionMax) {
			return errors.New("start_position must be within [-100, 100]")
		}
	}
	if c.ResolutionBits > maxResolutionBits {
		return errors.New("resolution_bits must be <= 16")
	}
	if c.BoundaryHz < 0 {
		return errors.New("boundary_hz must be > 0")
	}
	if c.OutputPin == c.InputPin {
		return errors.New("output_pin and input_pin must differ")
	}
	if c.Link.Baud < 0 {
		return errors.New("link.baud must be > 0")
	}
	return nil
}

// Settings converts the configuration for core.New
func (c *InstrumentConfig) Settings() core.Settings {
	start := core.PositionDefault
	if c.StartPosition != nil {
		start = core.ClampPosition(*c.StartPosition)
	}
	return core.Settings{
		OutputPin:      core.GPIOPin(c.OutputPin),
		InputPin:       core.GPIOPin(c.InputPin),
		Channel:        core.PWMChannel(c.PWMChannel),
		ResolutionBits: c.ResolutionBits,
		BoundaryHz:     c.BoundaryHz,
		WindowMs:       c.WindowMs,
		DebounceMicros: c.DebounceUs,
		StartPosition:  start,
	}
}

// LinkSettings converts the configuration for core.NewRemoteLink
func (c *InstrumentConfig) LinkSettings() core.LinkConfig {
	return core.LinkConfig{
		Name:          c.Name,
		StartPosition: c.Settings().StartPosition,
		HeartbeatMs:   c.HeartbeatMs,
	}
}
