package core

import "testing"

func TestGateCounterWindows(t *testing.T) {
	clock := &fakeClock{}
	src := &fakeEdgeCounter{}
	g := NewGateCounter(clock, src)

	if err := g.Begin(14, 1000); err != nil {
		t.Fatal(err)
	}
	if src.pin != 14 || src.started != 1 {
		t.Fatalf("source not started on pin 14")
	}

	clock.now, src.count = 500000, 2500
	if g.Available() {
		t.Fatalf("window closed early")
	}

	clock.now, src.count = 1000000, 5000
	if !g.Available() {
		t.Fatalf("window not closed at 1s")
	}
	if hz := g.Read(); hz != 5000 {
		t.Errorf("Read = %v, want 5000", hz)
	}
	if g.Available() {
		t.Errorf("result still available after Read")
	}

	// polled late: the window stretches to the poll time
	clock.now, src.count = 2500000, 12500
	if !g.Available() {
		t.Fatalf("late window not closed")
	}
	if hz := g.Read(); hz != 5000 {
		t.Errorf("late Read = %v, want 5000", hz)
	}
	if g.LastEdges() != 7500 || g.Windows() != 2 {
		t.Errorf("edges=%d windows=%d", g.LastEdges(), g.Windows())
	}
}

func TestGateCounterCountWrap(t *testing.T) {
	clock := &fakeClock{}
	src := &fakeEdgeCounter{count: 0xFFFFFF00}
	g := NewGateCounter(clock, src)
	g.Begin(14, 100)

	clock.now, src.count = 100000, 0x00000100
	if !g.Available() {
		t.Fatal("window not closed")
	}
	if hz := g.Read(); hz != 5120 {
		t.Errorf("Read across count wrap = %v, want 5120", hz)
	}
}

func TestGateCounterRejectsZeroWindow(t *testing.T) {
	g := NewGateCounter(&fakeClock{}, &fakeEdgeCounter{})
	if err := g.Begin(14, 0); err != ErrWindow {
		t.Errorf("err = %v, want ErrWindow", err)
	}
}
