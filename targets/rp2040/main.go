//go:build rp2040 || rp2350

package main

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"freqgen/config"
	"freqgen/core"
)

// configJSON is the board configuration; override at build time with
// -ldflags "-X main.configJSON=..."
var configJSON = `{"output_pin": 25, "input_pin": 14, "oled": false}`

var (
	// loop failures recovered from
	msgerrors uint32
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	// This prevents issues with watchdog persisting across resets
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	port := InitUSB()

	cfg, err := config.LoadConfig([]byte(configJSON))
	if err != nil {
		cfg = config.DefaultConfig()
	}
	InitDebugUART(cfg.Debug)
	if err != nil {
		core.DebugPrintln("[FREQGEN] bad config, using defaults: " + err.Error())
	}

	clock := hwClock{}
	gpio := NewRPGPIODriver()
	pwm := NewRPPWMDriver()

	edges, err := NewPIOEdgeCounter(pio.PIO0)
	if err != nil {
		panic(err)
	}

	events := &core.EventRing{}
	link := core.NewRemoteLink(port, clock, cfg.LinkSettings(), events)
	link.Descriptor().AddConstant("MCU", mcuName)

	settings := cfg.Settings()
	sampler := core.NewEdgeQueue()
	inst := core.MustNew(settings, core.Hardware{
		Clock:   clock,
		GPIO:    gpio,
		PWM:     pwm,
		Counter: core.NewGateCounter(clock, edges),
		UI:      link,
		Sampler: sampler,
		Events:  events,
	})
	// after New: configuring the input pin must not clear the interrupt
	if err := gpio.WatchEdges(settings.InputPin, sampler, clock); err != nil {
		panic(err)
	}

	var mirror *oledMirror
	if cfg.OLED {
		if mirror, err = newOLEDMirror(); err != nil {
			core.DebugPrintln("[FREQGEN] oled: " + err.Error())
			mirror = nil
		}
	}

	// Main loop - start immediately
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					events.Dump()
				}
			}()

			inst.Step()
			if now := clock.Micros(); mirror != nil && mirror.Due(now) {
				st := inst.Status()
				mirror.Update(st.OutputText, st.InputText, now)
			}
		}()
	}
}
