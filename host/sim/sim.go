package sim

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"freqgen/core"
)

// DefaultTick is the simulated time between control loop passes
const DefaultTick = 100 * time.Microsecond

// Step moves the slider at a point in simulated time
type Step struct {
	At       time.Duration
	Position int
}

// Script is a list of steps ordered by time
type Script []Step

// ParseScript parses "0s=-77,5s=28,12s=150"
func ParseScript(s string) (Script, error) {
	var script Script
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		at, pos, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("script step %q: want DURATION=POSITION", item)
		}
		d, err := time.ParseDuration(strings.TrimSpace(at))
		if err != nil {
			return nil, fmt.Errorf("script step %q: %w", item, err)
		}
		p, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil {
			return nil, fmt.Errorf("script step %q: %w", item, err)
		}
		script = append(script, Step{At: d, Position: p})
	}
	sort.SliceStable(script, func(i, j int) bool { return script[i].At < script[j].At })
	return script, nil
}

// Options configures a simulation
type Options struct {
	Board BoardConfig
	Tick  time.Duration

	// UI replaces the local slider, e.g. with a RemoteLink. Scripts
	// only drive the local slider.
	UI core.RemoteUI

	// Events is shared with the UI link when set
	Events *core.EventRing
}

// Sim is an instrument on a simulated board
type Sim struct {
	clk   clock.Clock
	mock  *clock.Mock
	log   *zap.SugaredLogger
	tick  time.Duration
	board *Board
	local *core.LocalUI
	inst  *core.Instrument

	elapsed time.Duration
	lastOut string
	lastIn  string
}

// New builds a simulation. A *clock.Mock advances by one tick per pass;
// any other clock is followed in real time.
func New(settings core.Settings, opts Options, clk clock.Clock, log *zap.SugaredLogger) (*Sim, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	opts.Board.InputPin = settings.InputPin
	opts.Board.OutputPin = settings.OutputPin

	board := NewBoard(clk, opts.Board)
	s := &Sim{
		clk:   clk,
		log:   log,
		tick:  opts.Tick,
		board: board,
	}
	s.mock, _ = clk.(*clock.Mock)

	ui := opts.UI
	if ui == nil {
		s.local = core.NewLocalUI(int8(settings.StartPosition))
		ui = s.local
	}

	inst, err := core.New(settings, core.Hardware{
		Clock:   board,
		GPIO:    board,
		PWM:     board,
		Counter: core.NewGateCounter(board, board),
		UI:      ui,
		Events:  opts.Events,
	})
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.inst = inst
	return s, nil
}

// Board returns the simulated board
func (s *Sim) Board() *Board {
	return s.board
}

// Instrument returns the instrument under simulation
func (s *Sim) Instrument() *core.Instrument {
	return s.inst
}

// SetPosition moves the local slider
func (s *Sim) SetPosition(p int) {
	if s.local != nil {
		s.local.SetPosition(int8(max(-128, min(127, p))))
	}
}

// Elapsed returns the simulated time run so far
func (s *Sim) Elapsed() time.Duration {
	return s.elapsed
}

// Advance runs the loop for d of simulated time
func (s *Sim) Advance(d time.Duration) {
	for end := s.elapsed + d; s.elapsed < end; {
		s.pass()
	}
}

func (s *Sim) pass() {
	if s.mock != nil {
		s.mock.Add(s.tick)
	} else {
		s.clk.Sleep(s.tick)
	}
	s.elapsed += s.tick
	s.inst.Step()
	s.report()
}

// report logs display lines when they change
func (s *Sim) report() {
	st := s.inst.Status()
	if st.OutputText == s.lastOut && st.InputText == s.lastIn {
		return
	}
	s.lastOut, s.lastIn = st.OutputText, st.InputText
	s.log.Infow("display",
		"t", s.elapsed,
		"output", st.OutputText,
		"input", st.InputText,
		"regime", st.Regime.String(),
		"source", st.Measured.Source.String())
}

// Run plays script until duration of simulated time has passed or ctx is
// done. A zero duration runs until ctx is done.
func (s *Sim) Run(ctx context.Context, script Script, duration time.Duration) error {
	next := 0
	for duration == 0 || s.elapsed < duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for next < len(script) && script[next].At <= s.elapsed {
			s.log.Infow("slider", "t", s.elapsed, "position", script[next].Position)
			s.SetPosition(script[next].Position)
			next++
		}
		s.pass()
	}
	return nil
}
