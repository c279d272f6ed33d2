package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"freqgen/config"
	"freqgen/core"
	"freqgen/host/serial"
	"freqgen/host/sim"
)

var (
	configPath = flag.String("config", "", "YAML or JSON instrument config (defaults if empty)")
	script     = flag.String("script", "0s=-77,3s=-40,6s=10,9s=40,12s=100", "Slider script, DURATION=POSITION,...")
	duration   = flag.Duration("duration", 15*time.Second, "Simulated time to run (0 = until interrupted)")
	signalHz   = flag.Float64("signal", 0, "External input frequency in Hz (disables loopback)")
	realtime   = flag.Bool("realtime", false, "Follow the wall clock instead of simulating as fast as possible")
	device     = flag.String("device", "", "Serve the remote UI link on this serial device (implies -realtime)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	zcfg := zap.NewDevelopmentConfig()
	if !*verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zl, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		os.Exit(1)
	}
	log := zl.Sugar()
	defer log.Sync()

	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) (err error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return err
		}
	}
	core.SetDebugWriter(func(s string) { log.Debug(s) })
	core.SetDebugEnabled(cfg.Debug || *verbose)

	steps, err := sim.ParseScript(*script)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var clk clock.Clock = clock.NewMock()
	if *realtime || *device != "" {
		clk = clock.New()
	}

	opts := sim.Options{
		Board: sim.BoardConfig{Loopback: *signalHz == 0, SignalHz: *signalHz},
	}
	events := &core.EventRing{}
	opts.Events = events

	if *device != "" {
		scfg := serial.DefaultConfig(*device)
		if cfg.Link.Baud > 0 {
			scfg.Baud = cfg.Link.Baud
		}
		port, err := serial.Open(scfg)
		if err != nil {
			return err
		}
		link := serial.NewStreamPort(port)
		defer func() { err = multierr.Append(err, link.Close()) }()

		start := clk.Now()
		micros := core.ClockFunc(func() uint64 { return uint64(clk.Since(start).Microseconds()) })
		opts.UI = core.NewRemoteLink(link, micros, cfg.LinkSettings(), events)
		steps = nil
		log.Infow("serving remote link", "device", *device, "baud", scfg.Baud)
	}

	s, err := sim.New(cfg.Settings(), opts, clk, log)
	if err != nil {
		return err
	}

	settings := cfg.Settings()
	log.Infow("simulating",
		"output_pin", settings.OutputPin,
		"input_pin", settings.InputPin,
		"loopback", opts.Board.Loopback,
		"duration", *duration)

	err = s.Run(ctx, steps, *duration)

	st := s.Instrument().Status()
	log.Infow("done",
		"elapsed", s.Elapsed(),
		"passes", st.Passes,
		"output", st.OutputText,
		"input", st.InputText)
	s.Instrument().Events().Dump()
	return err
}
