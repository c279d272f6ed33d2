package core

import (
	"math"
	"testing"
)

func TestSchedulerOrder(t *testing.T) {
	var s Scheduler
	var fired []int

	mk := func(id int, at uint64) *Timer {
		return &Timer{WakeTime: at, Handler: func(*Timer) uint8 {
			fired = append(fired, id)
			return SF_DONE
		}}
	}
	s.Schedule(mk(3, 300))
	s.Schedule(mk(1, 100))
	s.Schedule(mk(2, 200))

	s.Dispatch(250)
	if len(fired) != 2 || fired[0] != 1 || fired[1] != 2 {
		t.Fatalf("fired = %v, want [1 2]", fired)
	}
	if s.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", s.Pending())
	}
	s.Dispatch(300)
	if len(fired) != 3 || s.Pending() != 0 {
		t.Errorf("fired = %v pending = %d", fired, s.Pending())
	}
}

func TestSchedulerReschedule(t *testing.T) {
	var s Scheduler
	n := 0
	tm := &Timer{WakeTime: 10, Handler: func(t *Timer) uint8 {
		n++
		t.WakeTime += 10
		return SF_RESCHEDULE
	}}
	s.Schedule(tm)
	s.Dispatch(35)
	if n != 3 {
		t.Errorf("handler ran %d times, want 3", n)
	}

	s.Cancel(tm)
	s.Dispatch(1000)
	if n != 3 || s.Pending() != 0 {
		t.Errorf("cancelled timer ran: n=%d pending=%d", n, s.Pending())
	}
}

func TestSchedulerAcrossWrap(t *testing.T) {
	var s Scheduler
	var fired bool
	s.Schedule(&Timer{WakeTime: 5, Handler: func(*Timer) uint8 { fired = true; return SF_DONE }})

	s.Dispatch(math.MaxUint64 - 10)
	if fired {
		t.Fatalf("timer after wrap fired early")
	}
	s.Dispatch(6)
	if !fired {
		t.Errorf("timer after wrap never fired")
	}
}

func TestElapsedAcrossWrap(t *testing.T) {
	if got := Elapsed(math.MaxUint64-9, 10); got != 20 {
		t.Errorf("Elapsed across wrap = %d, want 20", got)
	}
	if MicrosFromMillis(1000) != 1000000 {
		t.Errorf("MicrosFromMillis(1000) = %d", MicrosFromMillis(1000))
	}
}
