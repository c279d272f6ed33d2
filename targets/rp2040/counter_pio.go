//go:build rp2040 || rp2350

package main

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"freqgen/core"
)

// edgeCountProgram decrements X on every rising edge of the in pin:
//
//	wait 0 pin 0
//	wait 1 pin 0
//	jmp x-- 0
//
// Three instructions per edge at the system clock, so the counter keeps
// up with inputs well above the top of the frequency table.
var edgeCountProgram = []uint16{
	pio.EncodeWaitPin(false, 0),
	pio.EncodeWaitPin(true, 0),
	pio.EncodeJmp(0, pio.JmpXNZeroDec),
}

// PIOEdgeCounter implements core.EdgeCounter on a PIO state machine
type PIOEdgeCounter struct {
	sm      pio.StateMachine
	offset  uint8
	started bool
}

// NewPIOEdgeCounter claims a state machine and loads the program
func NewPIOEdgeCounter(block *pio.PIO) (*PIOEdgeCounter, error) {
	sm, err := block.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	offset, err := block.AddProgram(edgeCountProgram, -1)
	if err != nil {
		sm.Unclaim()
		return nil, err
	}
	return &PIOEdgeCounter{sm: sm, offset: offset}, nil
}

// Start begins counting rising edges on pin from zero. The pin keeps its
// GPIO function; PIO only reads it.
func (c *PIOEdgeCounter) Start(pin core.GPIOPin) error {
	cfg := pio.DefaultStateMachineConfig()
	cfg.SetInPins(machine.Pin(pin))
	cfg.SetWrap(c.offset, c.offset+uint8(len(edgeCountProgram))-1)
	// the program never shifts in; autopush only serves GetX
	cfg.SetInShift(false, true, 32)

	c.sm.Init(c.offset, cfg)
	c.sm.Exec(pio.EncodeMov(pio.SrcDestX, pio.SrcDestNull))
	c.sm.SetEnabled(true)
	c.started = true
	return nil
}

// Count returns edges since Start. X counts down from zero, so the count
// is its negation. The machine is paused for a few cycles to read X.
func (c *PIOEdgeCounter) Count() uint32 {
	if !c.started {
		return 0
	}
	c.sm.SetEnabled(false)
	x := c.sm.GetX()
	c.sm.SetEnabled(true)
	return -x
}
