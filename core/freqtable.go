package core

// Position is the remote slider value selecting an output frequency
type Position int8

// Slider range and startup value
const (
	PositionMin     Position = -100
	PositionMax     Position = 100
	PositionDefault Position = -77 // 1.00 Hz

	// TableSize is the number of selectable output frequencies
	TableSize = int(PositionMax) - int(PositionMin) + 1
)

// frequencyTable maps Position+100 to a target frequency in Hz.
// Steps are hand-tuned so the slider feels logarithmic; two adjacent
// 100 Hz entries are intentional.
var frequencyTable = [TableSize]float64{
	0.10, 0.11, 0.13, 0.15, 0.17, 0.20, 0.25, 0.30, 0.33, 0.38,
	0.40, 0.44, 0.50, 0.55, 0.60, 0.63, 0.67, 0.70, 0.75, 0.80,
	0.85, 0.88, 0.90, 1.00, 1.11, 1.13, 1.25, 1.33, 1.40, 1.50,
	1.60, 1.67, 1.75, 1.80, 1.90, 2.00, 2.25, 2.33, 2.50, 2.67,
	3.00, 3.25, 3.33, 3.50, 3.75, 4.00, 4.25, 4.50, 4.75, 5.00,
	5.25, 5.50, 5.75, 6.00, 6.25, 6.50, 6.75, 7.00, 7.25, 7.50,
	7.75, 8.00, 8.25, 8.50, 8.75, 9.00, 9.25, 9.50, 9.75, 10.00,
	10.50, 11.00, 11.50, 12.00, 12.50, 13.00, 13.50, 14.00, 14.50, 15.00,
	16.00, 17.00, 18.00, 19.00, 20.00, 22.50, 25.00, 27.50, 30.00, 32.50,
	35.00, 37.50, 40.00, 42.50, 45.00, 47.50, 50.00, 55.00, 60.00, 65.00,
	70.00, 75.00, 80.00, 90.00, 100.00, 100.00, 111.11, 125.00, 150.00, 166.67,
	200.00, 250.00, 300.00, 333.33, 375.00, 400.00, 444.44, 500.00, 550.00, 600.00,
	625.00, 666.67, 700.00, 750.00, 800.00, 850.00, 875.00, 900.00, 1000.00, 1111.11,
	1125.00, 1250.00, 1333.33, 1400.00, 1500.00, 1600.00, 1666.67, 1750.00, 1800.00, 1900.00,
	2000.00, 2250.00, 2333.33, 2500.00, 2666.67, 3000.00, 3250.00, 3333.33, 3500.00, 3750.00,
	4000.00, 4250.00, 4500.00, 5000.00, 5250.00, 5500.00, 5750.00, 6000.00, 6250.00, 6500.00,
	6750.00, 7000.00, 7250.00, 7500.00, 7750.00, 8000.00, 8250.00, 8500.00, 9000.00, 9500.00,
	10000.00, 12500.00, 15000.00, 20000.00, 25000.00, 30000.00, 35000.00, 40000.00, 50000.00, 60000.00,
	70000.00, 80000.00, 90000.00, 100000.00, 150000.00, 200000.00, 250000.00, 300000.00, 400000.00, 500000.00,
	750000.00, 1000000.00, 1250000.00, 1500000.00, 2000000.00, 2500000.00, 3000000.00, 5000000.00, 7500000.00, 10000000.00,
	15000000.00,
}

// Lookup returns the target frequency for a slider position.
// ok is false for positions outside [PositionMin, PositionMax].
func Lookup(p Position) (hz float64, ok bool) {
	if p < PositionMin || p > PositionMax {
		return 0, false
	}
	return frequencyTable[int(p)-int(PositionMin)], true
}

// ClampPosition limits a raw slider value to the table range
func ClampPosition(raw int) Position {
	if raw < int(PositionMin) {
		return PositionMin
	}
	if raw > int(PositionMax) {
		return PositionMax
	}
	return Position(raw)
}

// PositionFor returns the lowest position whose frequency is at least hz.
// Values above the table maximum map to PositionMax.
func PositionFor(hz float64) Position {
	for i, f := range frequencyTable {
		if f >= hz {
			return Position(i + int(PositionMin))
		}
	}
	return PositionMax
}

// Frequencies returns a copy of the whole table, lowest position first
func Frequencies() []float64 {
	out := make([]float64, TableSize)
	copy(out, frequencyTable[:])
	return out
}
