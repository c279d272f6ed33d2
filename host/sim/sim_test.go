package sim

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"

	"freqgen/core"
)

func newSim(t *testing.T, board BoardConfig, start core.Position) *Sim {
	t.Helper()
	settings := core.DefaultSettings()
	settings.StartPosition = start
	s, err := New(settings, Options{Board: board}, clock.NewMock(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestParseScript(t *testing.T) {
	got, err := ParseScript("5s=28, 0s=-77,1500ms=150")
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	want := Script{
		{At: 0, Position: -77},
		{At: 1500 * time.Millisecond, Position: 150},
		{At: 5 * time.Second, Position: 28},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("script (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"5s", "x=1", "1s=y"} {
		if _, err := ParseScript(bad); err == nil {
			t.Errorf("ParseScript(%q) succeeded", bad)
		}
	}
}

func TestLoopbackSoftwareRegime(t *testing.T) {
	s := newSim(t, BoardConfig{Loopback: true}, core.PositionDefault)
	s.Advance(5 * time.Second)

	st := s.Instrument().Status()
	if st.Regime != core.RegimeSoftware {
		t.Fatalf("regime = %s, want software", st.Regime)
	}
	if st.Measured.Source != core.SourceEdgeTimer {
		t.Fatalf("source = %s, want edge timer", st.Measured.Source)
	}
	if math.Abs(st.Measured.Hz-1) > 0.01 {
		t.Errorf("measured %v Hz, want 1", st.Measured.Hz)
	}
	if want := "Pin 2 Output: 1.000 Hz."; st.OutputText != want {
		t.Errorf("output = %q, want %q", st.OutputText, want)
	}
	if want := "Pin 14 Input: 1.00 Hz."; st.InputText != want {
		t.Errorf("input = %q, want %q", st.InputText, want)
	}
}

func TestLoopbackHardwareRegime(t *testing.T) {
	s := newSim(t, BoardConfig{Loopback: true}, core.PositionFor(1000))
	s.Advance(2500 * time.Millisecond)

	st := s.Instrument().Status()
	if st.Regime != core.RegimeHardware {
		t.Fatalf("regime = %s, want pwm", st.Regime)
	}
	if st.Measured.Source != core.SourceCounter {
		t.Fatalf("source = %s, want counter", st.Measured.Source)
	}
	if math.Abs(st.Measured.Hz-1000) > 2 {
		t.Errorf("measured %v Hz, want 1000", st.Measured.Hz)
	}
	pwm := s.Board().PWM()
	if !pwm.Attached || pwm.Duty != 2 || pwm.Bits != core.DefaultResolutionBits {
		t.Errorf("pwm state = %+v", pwm)
	}
}

func TestSlowExternalSignal(t *testing.T) {
	s := newSim(t, BoardConfig{SignalHz: 0.05}, core.PositionDefault)
	s.Advance(3 * time.Second)

	st := s.Instrument().Status()
	if st.Measured.Source != core.SourceUnavailable {
		t.Errorf("source = %s, want unavailable", st.Measured.Source)
	}
	if !strings.Contains(st.InputText, "too low") {
		t.Errorf("input = %q", st.InputText)
	}
}

func TestScriptCrossesBoundary(t *testing.T) {
	s := newSim(t, BoardConfig{Loopback: true}, core.PositionDefault)
	script := Script{
		{At: 0, Position: -77},
		{At: time.Second, Position: int(core.PositionFor(5000))},
		{At: 2 * time.Second, Position: int(core.PositionFor(10000))},
		{At: 3 * time.Second, Position: int(core.PositionFor(10))},
	}
	if err := s.Run(context.Background(), script, 4*time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}

	attaches, configures, detaches := s.Board().PWMCalls()
	if attaches != 2 || configures != 2 {
		t.Errorf("attach/configure = %d/%d, want 2/2", attaches, configures)
	}
	// once at startup and once when dropping back to software
	if detaches != 2 {
		t.Errorf("detaches = %d, want 2", detaches)
	}
	if got := s.Instrument().Status().Regime; got != core.RegimeSoftware {
		t.Errorf("regime = %s, want software", got)
	}
}

func TestOutOfRangePosition(t *testing.T) {
	s := newSim(t, BoardConfig{Loopback: true}, core.PositionDefault)
	s.SetPosition(500)
	s.Advance(time.Millisecond)

	st := s.Instrument().Status()
	if st.Position != core.PositionMax {
		t.Errorf("position = %d, want %d", st.Position, core.PositionMax)
	}
	if want := "Pin 2 Output: 15.0000 MHz."; st.OutputText != want {
		t.Errorf("output = %q, want %q", st.OutputText, want)
	}
}

func TestPWMFailureKeepsRunning(t *testing.T) {
	s := newSim(t, BoardConfig{Loopback: true, FailPWM: true}, core.PositionFor(1000))
	s.Advance(10 * time.Millisecond)

	var found bool
	var buf [core.EventRingSize]core.Event
	for _, evt := range s.Instrument().Events().Snapshot(buf[:0]) {
		if evt.Type == core.EvtPWMError {
			found = true
		}
	}
	if !found {
		t.Error("no pwm error event recorded")
	}
}
