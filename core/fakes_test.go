package core

import "errors"

type fakeClock struct {
	now uint64
}

func (c *fakeClock) Micros() uint64     { return c.now }
func (c *fakeClock) Advance(us uint64) { c.now += us }

type fakeGPIO struct {
	clock   *fakeClock
	levels  map[GPIOPin]bool
	outputs map[GPIOPin]int
	inputs  map[GPIOPin]int
	edges   map[GPIOPin][]uint64 // times the written level changed
	input   func(now uint64) bool
}

func newFakeGPIO(clock *fakeClock) *fakeGPIO {
	return &fakeGPIO{
		clock:   clock,
		levels:  map[GPIOPin]bool{},
		outputs: map[GPIOPin]int{},
		inputs:  map[GPIOPin]int{},
		edges:   map[GPIOPin][]uint64{},
	}
}

func (g *fakeGPIO) ConfigureOutput(pin GPIOPin) error {
	g.outputs[pin]++
	return nil
}

func (g *fakeGPIO) ConfigureInput(pin GPIOPin) error {
	g.inputs[pin]++
	return nil
}

func (g *fakeGPIO) SetPin(pin GPIOPin, level bool) error {
	if g.levels[pin] != level {
		g.edges[pin] = append(g.edges[pin], g.clock.now)
	}
	g.levels[pin] = level
	return nil
}

func (g *fakeGPIO) ReadPin(pin GPIOPin) bool {
	if g.input != nil {
		return g.input(g.clock.now)
	}
	return g.levels[pin]
}

var (
	errAttach    = errors.New("attach failed")
	errConfigure = errors.New("configure failed")
)

type fakePWM struct {
	attaches, detaches, configures int
	hz                             float64
	bits                           uint8
	duty                           uint32
	attachErr                      error
	failHz                         float64 // Configure fails at this frequency
}

func (p *fakePWM) Attach(ch PWMChannel, pin GPIOPin) error {
	p.attaches++
	return p.attachErr
}

func (p *fakePWM) Configure(ch PWMChannel, hz float64, bits uint8) (float64, error) {
	p.configures++
	if hz == p.failHz {
		return 0, errConfigure
	}
	p.hz = hz
	p.bits = bits
	return hz, nil
}

func (p *fakePWM) SetDuty(ch PWMChannel, level uint32) error {
	p.duty = level
	return nil
}

func (p *fakePWM) Detach(pin GPIOPin) error {
	p.detaches++
	return nil
}

type fakeCounter struct {
	pin     GPIOPin
	window  uint32
	pending []float64
}

func (c *fakeCounter) Begin(pin GPIOPin, windowMs uint32) error {
	c.pin = pin
	c.window = windowMs
	return nil
}

func (c *fakeCounter) Available() bool { return len(c.pending) > 0 }

func (c *fakeCounter) Read() float64 {
	v := c.pending[0]
	c.pending = c.pending[1:]
	return v
}

type fakeEdgeCounter struct {
	pin     GPIOPin
	started int
	count   uint32
}

func (c *fakeEdgeCounter) Start(pin GPIOPin) error {
	c.pin = pin
	c.started++
	return nil
}

func (c *fakeEdgeCounter) Count() uint32 { return c.count }
