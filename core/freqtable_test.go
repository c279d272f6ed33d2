package core

import "testing"

func TestFrequencyTableShape(t *testing.T) {
	table := Frequencies()
	if len(table) != 201 {
		t.Fatalf("table has %d entries, want 201", len(table))
	}
	for i := 1; i < len(table); i++ {
		if table[i] < table[i-1] {
			t.Errorf("table[%d]=%v < table[%d]=%v", i, table[i], i-1, table[i-1])
		}
	}
	if table[0] != 0.10 || table[200] != 15000000 {
		t.Errorf("endpoints = %v, %v", table[0], table[200])
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		pos  Position
		want float64
	}{
		{PositionMin, 0.10},
		{PositionDefault, 1.00},
		{0, 70},
		{4, 100},
		{5, 100},
		{11, 250},
		{PositionMax, 15000000},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.pos)
		if !ok || got != tt.want {
			t.Errorf("Lookup(%d) = %v, %v; want %v", tt.pos, got, ok, tt.want)
		}
	}

	if _, ok := Lookup(101); ok {
		t.Errorf("Lookup(101) accepted")
	}
	if _, ok := Lookup(-101); ok {
		t.Errorf("Lookup(-101) accepted")
	}
}

func TestClampPosition(t *testing.T) {
	for raw, want := range map[int]Position{
		-128: PositionMin, -101: PositionMin, -100: -100, 0: 0, 100: 100, 120: PositionMax, 1000: PositionMax,
	} {
		if got := ClampPosition(raw); got != want {
			t.Errorf("ClampPosition(%d) = %d, want %d", raw, got, want)
		}
	}
}

func TestPositionFor(t *testing.T) {
	tests := []struct {
		hz   float64
		want Position
	}{
		{0, PositionMin},
		{1, PositionDefault},
		{100, 4},
		{249.999, 11},
		{250, 11},
		{2e7, PositionMax},
	}
	for _, tt := range tests {
		if got := PositionFor(tt.hz); got != tt.want {
			t.Errorf("PositionFor(%v) = %d, want %d", tt.hz, got, tt.want)
		}
	}
}
