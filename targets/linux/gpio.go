//go:build linux && !tinygo

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"freqgen/core"
)

const consumer = "freqgen"

var ErrNotRequested = errors.New("gpio: line not requested")

// cdevGPIO drives BCM GPIO lines through the GPIO character device. Line
// offsets on the chip are the BCM pin numbers. It also implements
// core.EdgeCounter: the input line's edge events feed an EdgeQueue and a
// rising edge count.
type cdevGPIO struct {
	chip  string
	log   *zap.SugaredLogger
	edges *core.EdgeQueue

	mu      sync.Mutex
	outputs map[core.GPIOPin]*gpiocdev.Line
	inputs  map[core.GPIOPin]*gpiocdev.Line

	rising atomic.Uint32
}

func newCdevGPIO(chip string, edges *core.EdgeQueue, log *zap.SugaredLogger) *cdevGPIO {
	if filepath.Dir(chip) == "." {
		chip = filepath.Join("/dev", chip)
	}
	return &cdevGPIO{
		chip:    chip,
		log:     log,
		edges:   edges,
		outputs: make(map[core.GPIOPin]*gpiocdev.Line),
		inputs:  make(map[core.GPIOPin]*gpiocdev.Line),
	}
}

// ConfigureOutput requests the line as an output driven low
func (g *cdevGPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.outputs[pin]; ok {
		return nil
	}
	line, err := gpiocdev.RequestLine(g.chip, int(pin), gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
	if err != nil {
		return fmt.Errorf("gpio: request output %d on %s: %w", pin, g.chip, err)
	}
	g.outputs[pin] = line
	return nil
}

// ConfigureInput requests the line as an input reporting both edges
func (g *cdevGPIO) ConfigureInput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inputs[pin]; ok {
		return nil
	}
	line, err := gpiocdev.RequestLine(g.chip, int(pin),
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(g.onEdge),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return fmt.Errorf("gpio: request input %d on %s: %w", pin, g.chip, err)
	}
	g.inputs[pin] = line
	return nil
}

// onEdge runs on gpiocdev's event goroutine. Timestamps are
// CLOCK_MONOTONIC, matching monoClock.
func (g *cdevGPIO) onEdge(evt gpiocdev.LineEvent) {
	rising := evt.Type == gpiocdev.LineEventRisingEdge
	if rising {
		g.rising.Add(1)
	}
	g.edges.Push(rising, uint64(evt.Timestamp.Microseconds()))
}

// SetPin drives an output line
func (g *cdevGPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	line, ok := g.outputs[pin]
	g.mu.Unlock()
	if !ok {
		return ErrNotRequested
	}
	v := 0
	if value {
		v = 1
	}
	return line.SetValue(v)
}

// ReadPin reads an input or output line; unrequested lines read low
func (g *cdevGPIO) ReadPin(pin core.GPIOPin) bool {
	g.mu.Lock()
	line, ok := g.inputs[pin]
	if !ok {
		line, ok = g.outputs[pin]
	}
	g.mu.Unlock()
	if !ok {
		return false
	}
	v, err := line.Value()
	return err == nil && v == 1
}

// Release gives an output line back to the kernel, e.g. so the PWM
// function can take the pin
func (g *cdevGPIO) Release(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	line, ok := g.outputs[pin]
	if !ok {
		return nil
	}
	delete(g.outputs, pin)
	return line.Close()
}

// Start implements core.EdgeCounter. Counting starts when the input line
// is requested.
func (g *cdevGPIO) Start(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inputs[pin]; !ok {
		return ErrNotRequested
	}
	return nil
}

// Count implements core.EdgeCounter
func (g *cdevGPIO) Count() uint32 {
	return g.rising.Load()
}

// Close releases every line
func (g *cdevGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var err error
	for pin, line := range g.outputs {
		err = multierr.Append(err, line.SetValue(0))
		err = multierr.Append(err, line.Close())
		delete(g.outputs, pin)
	}
	for pin, line := range g.inputs {
		err = multierr.Append(err, line.Close())
		delete(g.inputs, pin)
	}
	if err != nil {
		g.log.Warnw("gpio close", "error", err)
	}
	return err
}
