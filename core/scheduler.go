package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint64
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler is a cooperative timer list dispatched from the control loop.
// There is no tick: Dispatch runs whatever is due whenever it is called.
type Scheduler struct {
	list *Timer
}

// Schedule adds a timer to the list
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insert(t)
}

// Cancel removes a timer if it is scheduled
func (s *Scheduler) Cancel(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.list == t {
		s.list = t.Next
		t.Next = nil
		return
	}
	for cur := s.list; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// insert keeps the list sorted by WakeTime
func (s *Scheduler) insert(t *Timer) {
	if s.list == nil || int64(t.WakeTime-s.list.WakeTime) < 0 {
		t.Next = s.list
		s.list = t
		return
	}

	cur := s.list
	for cur.Next != nil && int64(cur.Next.WakeTime-t.WakeTime) < 0 {
		cur = cur.Next
	}

	t.Next = cur.Next
	cur.Next = t
}

// Dispatch runs every timer whose WakeTime <= now
func (s *Scheduler) Dispatch(now uint64) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for s.list != nil && reached(now, s.list.WakeTime) {
		t := s.list
		s.list = t.Next
		t.Next = nil

		if t.Handler(t) == SF_RESCHEDULE {
			s.insert(t)
		}
	}
}

// Pending returns the number of scheduled timers
func (s *Scheduler) Pending() int {
	n := 0
	for cur := s.list; cur != nil; cur = cur.Next {
		n++
	}
	return n
}
