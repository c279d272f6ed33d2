package core

import (
	"context"
	"testing"
)

type rig struct {
	clock   *fakeClock
	gpio    *fakeGPIO
	pwm     *fakePWM
	counter *fakeCounter
	ui      *LocalUI
	in      *Instrument
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{clock: &fakeClock{}, pwm: &fakePWM{}, counter: &fakeCounter{}, ui: NewLocalUI(int8(PositionDefault))}
	r.gpio = newFakeGPIO(r.clock)

	in, err := New(DefaultSettings(), Hardware{
		Clock:   r.clock,
		GPIO:    r.gpio,
		PWM:     r.pwm,
		Counter: r.counter,
		UI:      r.ui,
	})
	if err != nil {
		t.Fatal(err)
	}
	r.in = in
	return r
}

func (r *rig) steps(n int, dt uint64) {
	for i := 0; i < n; i++ {
		r.clock.Advance(dt)
		r.in.Step()
	}
}

func TestInstrumentStartup(t *testing.T) {
	r := newRig(t)
	if r.gpio.inputs[14] != 1 || r.counter.pin != 14 || r.counter.window != 1000 {
		t.Fatalf("input not prepared: inputs=%d counter pin=%d window=%d", r.gpio.inputs[14], r.counter.pin, r.counter.window)
	}

	r.steps(1, 10)
	st := r.in.Status()
	if st.Position != PositionDefault || st.TargetHz != 1 || st.Regime != RegimeSoftware {
		t.Errorf("status = %+v", st)
	}
	if st.OutputText != "Pin 2 Output: 1.000 Hz." || r.ui.OutputText() != st.OutputText {
		t.Errorf("output text = %q / %q", st.OutputText, r.ui.OutputText())
	}
	if st.InputText != "Pin 14 Input freq too low." {
		t.Errorf("input text = %q", st.InputText)
	}
	if r.pwm.detaches != 1 || r.gpio.outputs[2] != 1 {
		t.Errorf("software mode setup: detaches=%d outputs=%d", r.pwm.detaches, r.gpio.outputs[2])
	}
	if r.ui.Syncs() != 1 {
		t.Errorf("Sync called %d times", r.ui.Syncs())
	}
}

func TestInstrumentDefaultTo15MHz(t *testing.T) {
	r := newRig(t)
	r.steps(5, 10)

	r.ui.SetPosition(100)
	r.steps(1, 10)

	st := r.in.Status()
	if st.Regime != RegimeHardware || r.pwm.hz != 15000000 || r.pwm.duty != 2 || r.pwm.bits != 2 {
		t.Fatalf("regime=%v hz=%v duty=%d bits=%d", st.Regime, r.pwm.hz, r.pwm.duty, r.pwm.bits)
	}
	if st.OutputText != "Pin 2 Output: 15.0000 MHz." {
		t.Errorf("output text = %q", st.OutputText)
	}

	// unchanged position: no further reconfiguration
	r.steps(200, 10)
	if r.pwm.attaches != 1 || r.pwm.configures != 1 {
		t.Errorf("attaches=%d configures=%d after idle passes", r.pwm.attaches, r.pwm.configures)
	}
}

func TestInstrumentClampsPosition(t *testing.T) {
	r := newRig(t)
	r.ui.SetPosition(120)
	r.steps(1, 10)

	st := r.in.Status()
	if st.Position != PositionMax || st.TargetHz != 15000000 {
		t.Errorf("position=%d target=%v", st.Position, st.TargetHz)
	}

	var clamped bool
	for _, e := range r.in.Events().Snapshot(nil) {
		if e.Type == EvtPositionClamp && int32(e.Value) == 120 {
			clamped = true
		}
	}
	if !clamped {
		t.Errorf("clamp not recorded")
	}
}

func TestInstrumentCounterReading(t *testing.T) {
	r := newRig(t)
	r.counter.pending = []float64{2500}
	r.steps(1, 10)

	st := r.in.Status()
	if st.Measured.Source != SourceCounter || st.InputText != "Pin 14 Input: 2.500 KHz." {
		t.Errorf("measured=%+v text=%q", st.Measured, st.InputText)
	}
	if r.ui.InputText() != st.InputText {
		t.Errorf("UI input text = %q", r.ui.InputText())
	}
}

func TestInstrumentEdgeTimerFallback(t *testing.T) {
	r := newRig(t)
	r.gpio.input = func(now uint64) bool { return Phase(2, now) }

	r.steps(30000, 100) // 3 s
	r.counter.pending = []float64{4} // too few edges for the counter
	r.steps(1, 100)

	st := r.in.Status()
	if st.Measured.Source != SourceEdgeTimer || st.InputText != "Pin 14 Input: 2.00 Hz." {
		t.Errorf("measured=%+v text=%q", st.Measured, st.InputText)
	}
}

func TestInstrumentSurvivesPWMError(t *testing.T) {
	r := newRig(t)
	r.steps(1, 10)
	r.pwm.attachErr = errAttach
	r.ui.SetPosition(50)
	r.steps(2, 10)

	var recorded bool
	for _, e := range r.in.Events().Snapshot(nil) {
		if e.Type == EvtPWMError {
			recorded = true
		}
	}
	if !recorded {
		t.Errorf("PWM error not recorded")
	}
	if r.in.Status().Passes != 3 {
		t.Errorf("passes = %d", r.in.Status().Passes)
	}

	st := r.in.Status()
	if st.Regime != RegimeSoftware || st.TargetHz != 1 || st.OutputText != "Pin 2 Output: 1.000 Hz." {
		t.Errorf("after failed attach: regime=%v target=%v text=%q", st.Regime, st.TargetHz, st.OutputText)
	}

	before := len(r.gpio.edges[2])
	r.steps(2000, 1000)
	if n := len(r.gpio.edges[2]) - before; n < 3 {
		t.Errorf("pin toggled %d times in 2s after failed attach, want >= 3", n)
	}
}

func TestInstrumentMissingDriver(t *testing.T) {
	if _, err := New(DefaultSettings(), Hardware{}); err != ErrMissingDriver {
		t.Errorf("err = %v, want ErrMissingDriver", err)
	}
}

func TestInstrumentRunStops(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.in.Run(ctx); err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
