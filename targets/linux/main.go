//go:build linux && !tinygo

// Command freqgen-linux runs the instrument on a Linux single-board
// computer: GPIO through the character device, PWM through sysfs and the
// remote UI over a serial tty (USB gadget, UART or Bluetooth RFCOMM).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"freqgen/config"
	"freqgen/core"
	"freqgen/host/serial"
)

var (
	configPath = flag.String("config", "/etc/freqgen.yaml", "YAML or JSON instrument config")
	pace       = flag.Duration("pace", 0, "Optional sleep between control loop passes to cap CPU use (0 runs free)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	zcfg := zap.NewProductionConfig()
	if *verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	zl, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		os.Exit(1)
	}
	log := zl.Sugar()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("freqgen stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.SugaredLogger) (err error) {
	cfg, err := config.LoadFile(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Warnw("no config file, using defaults", "path", *configPath)
		cfg, err = config.DefaultConfig(), nil
	}
	if err != nil {
		return err
	}

	core.SetDebugWriter(func(s string) { log.Debug(s) })
	core.SetDebugEnabled(cfg.Debug || *verbose)

	clock := monoClock{}
	sampler := core.NewEdgeQueue()
	gpio := newCdevGPIO(cfg.Board.GPIOChip, sampler, log)
	pwm := newSysfsPWM(cfg.Board.PWMChip, gpio)
	defer func() { err = multierr.Combine(err, pwm.Close(), gpio.Close()) }()

	scfg := serial.DefaultConfig(cfg.Link.Device)
	scfg.Baud = cfg.Link.Baud
	tty, err := serial.Open(scfg)
	if err != nil {
		return err
	}
	port := serial.NewStreamPort(tty)
	defer func() { err = multierr.Append(err, port.Close()) }()

	events := &core.EventRing{}
	link := core.NewRemoteLink(port, clock, cfg.LinkSettings(), events)
	link.Descriptor().AddConstant("MCU", "linux")
	link.Descriptor().AddConstant("GPIO_CHIP", cfg.Board.GPIOChip)

	settings := cfg.Settings()
	inst, err := core.New(settings, core.Hardware{
		Clock:   clock,
		GPIO:    gpio,
		PWM:     pwm,
		Counter: core.NewGateCounter(clock, gpio),
		UI:      link,
		Sampler: sampler,
		Events:  events,
	})
	if err != nil {
		return err
	}

	log.Infow("freqgen running",
		"output_pin", settings.OutputPin,
		"input_pin", settings.InputPin,
		"pwm_chip", cfg.Board.PWMChip,
		"link", cfg.Link.Device,
		"baud", cfg.Link.Baud)

	report := time.NewTicker(10 * time.Second)
	defer report.Stop()

	for {
		select {
		case <-ctx.Done():
			events.Dump()
			return ctx.Err()
		case <-report.C:
			st := inst.Status()
			log.Infow("status",
				"output", st.OutputText,
				"input", st.InputText,
				"regime", st.Regime.String(),
				"connected", st.Connected,
				"dropped_edges", sampler.Dropped())
		default:
		}
		if perr := port.Err(); perr != nil {
			return fmt.Errorf("link: %w", perr)
		}
		inst.Step()
		if *pace > 0 {
			time.Sleep(*pace)
		}
	}
}
