package core

import (
	"context"
	"errors"
)

var ErrMissingDriver = errors.New("instrument: missing driver")

// Settings are the instrument's fixed parameters
type Settings struct {
	OutputPin      GPIOPin
	InputPin       GPIOPin
	Channel        PWMChannel
	ResolutionBits uint8
	BoundaryHz     float64
	WindowMs       uint32
	DebounceMicros uint32
	StartPosition  Position
}

// DefaultSettings returns the stock wiring: output on pin 2, input on pin 14
func DefaultSettings() Settings {
	return Settings{
		OutputPin:      2,
		InputPin:       14,
		Channel:        0,
		ResolutionBits: DefaultResolutionBits,
		BoundaryHz:     DefaultBoundaryHz,
		WindowMs:       1000,
		DebounceMicros: DefaultDebounceMicros,
		StartPosition:  PositionDefault,
	}
}

// Hardware is the set of drivers the instrument runs on.
// Sampler is optional and defaults to polling the input pin. Events is
// optional; pass the ring shared with the remote link to expose it there.
type Hardware struct {
	Clock   Clock
	GPIO    GPIODriver
	PWM     PWMDriver
	Counter FrequencyCounter
	UI      RemoteUI
	Sampler EdgeSampler
	Events  *EventRing
}

// Instrument is the generator and meter control loop. It owns all loop
// state; nothing here is shared with other goroutines except through the
// RemoteUI and EdgeSampler contracts.
type Instrument struct {
	cfg     Settings
	hw      Hardware
	timer   *EdgeTimer
	synth   *Synthesizer
	sampler EdgeSampler
	events  *EventRing

	havePosition bool
	lastRaw      int
	position     Position
	measured     Measurement

	outText Text
	inText  Text
	scratch [TextSize]byte

	passes uint64
}

// Status is a snapshot of the instrument
type Status struct {
	Position   Position
	TargetHz   float64
	Regime     Regime
	PWMHz      float64
	Duty       uint32
	Measured   Measurement
	EdgeHz     float64
	OutputText string
	InputText  string
	Connected  bool
	Passes     uint64
}

// New wires an instrument to its hardware, configures the input pin and
// starts the counter. The output path is set up on the first Step.
func New(cfg Settings, hw Hardware) (*Instrument, error) {
	if hw.Clock == nil || hw.GPIO == nil || hw.PWM == nil || hw.Counter == nil || hw.UI == nil {
		return nil, ErrMissingDriver
	}
	if cfg.WindowMs == 0 {
		return nil, ErrWindow
	}

	in := &Instrument{
		cfg:   cfg,
		hw:    hw,
		timer: NewEdgeTimer(cfg.DebounceMicros),
		synth: NewSynthesizer(hw.GPIO, hw.PWM, SynthConfig{
			Pin:            cfg.OutputPin,
			Channel:        cfg.Channel,
			ResolutionBits: cfg.ResolutionBits,
			BoundaryHz:     cfg.BoundaryHz,
		}),
		sampler:  hw.Sampler,
		events:   hw.Events,
		position: cfg.StartPosition,
	}
	if in.events == nil {
		in.events = &EventRing{}
	}
	if in.sampler == nil {
		in.sampler = NewPinSampler(hw.GPIO, cfg.InputPin)
	}

	if err := hw.GPIO.ConfigureInput(cfg.InputPin); err != nil {
		return nil, err
	}
	if err := hw.Counter.Begin(cfg.InputPin, cfg.WindowMs); err != nil {
		return nil, err
	}
	in.timer.Reset(hw.Clock.Micros())

	in.measured = Measurement{Source: SourceUnavailable}
	in.inText.Set(AppendInput(in.scratch[:0], cfg.InputPin, in.measured))
	hw.UI.SetInputText(in.inText.Bytes())

	return in, nil
}

// MustNew is New for firmware entry points, where a wiring error is fatal
func MustNew(cfg Settings, hw Hardware) *Instrument {
	in, err := New(cfg, hw)
	if err != nil {
		panic(err)
	}
	return in
}

// Step runs one pass of the control loop. It never blocks.
func (in *Instrument) Step() {
	now := in.hw.Clock.Micros()
	in.passes++

	if t, ok := in.sampler.Poll(now); ok {
		in.timer.Observe(t)
	}

	in.synth.Tick(now)

	if raw := int(in.hw.UI.Position()); !in.havePosition || raw != in.lastRaw {
		in.applyPosition(raw, now)
	}

	if in.hw.Counter.Available() {
		counterHz := in.hw.Counter.Read()
		in.measured = SelectMeasurement(counterHz, in.timer.Frequency())
		in.events.Record(EvtWindow, now, uint32(counterHz))
		in.inText.Set(AppendInput(in.scratch[:0], in.cfg.InputPin, in.measured))
		in.hw.UI.SetInputText(in.inText.Bytes())
	}

	in.hw.UI.Sync()
}

func (in *Instrument) applyPosition(raw int, now uint64) {
	in.havePosition = true
	in.lastRaw = raw

	p := ClampPosition(raw)
	if int(p) != raw {
		in.events.Record(EvtPositionClamp, now, uint32(int32(raw)))
		DebugPrintln("[FREQGEN] position " + itoa(raw) + " clamped to " + itoa(int(p)))
	}
	in.position = p
	in.events.Record(EvtPosition, now, uint32(int32(p)))

	hz, _ := Lookup(p)
	before := in.synth.Regime()
	if err := in.synth.SetTarget(hz); err != nil {
		in.events.Record(EvtPWMError, now, uint32(int32(p)))
		DebugPrintln("[FREQGEN] output reconfigure failed: " + err.Error())
	}
	if r := in.synth.Regime(); r != before {
		in.events.Record(EvtRegime, now, uint32(r))
	}

	// a failed switch leaves the previous frequency on the pin
	in.outText.Set(AppendOutput(in.scratch[:0], in.cfg.OutputPin, in.synth.Target()))
	in.hw.UI.SetOutputText(in.outText.Bytes())
}

// Run steps the loop until ctx is done
func (in *Instrument) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		in.Step()
	}
}

// Status returns a snapshot of the instrument state
func (in *Instrument) Status() Status {
	return Status{
		Position:   in.position,
		TargetHz:   in.synth.Target(),
		Regime:     in.synth.Regime(),
		PWMHz:      in.synth.PWMFrequency(),
		Duty:       in.synth.Duty(),
		Measured:   in.measured,
		EdgeHz:     in.timer.Frequency(),
		OutputText: in.outText.String(),
		InputText:  in.inText.String(),
		Connected:  in.hw.UI.Connected(),
		Passes:     in.passes,
	}
}

// Events returns the event ring
func (in *Instrument) Events() *EventRing {
	return in.events
}

// Settings returns the settings the instrument was built with
func (in *Instrument) Settings() Settings {
	return in.cfg
}
