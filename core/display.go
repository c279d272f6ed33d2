package core

// TextSize is the capacity of a display text buffer including the terminator
const TextSize = 33

// Text is a fixed display buffer: at most TextSize-1 bytes, NUL padded
type Text struct {
	buf [TextSize]byte
	n   uint8
}

// Set copies b into the buffer, truncating at TextSize-1 bytes
func (t *Text) Set(b []byte) {
	n := copy(t.buf[:TextSize-1], b)
	for i := n; i < TextSize; i++ {
		t.buf[i] = 0
	}
	t.n = uint8(n)
}

// Bytes returns the text without the terminator
func (t *Text) Bytes() []byte {
	return t.buf[:t.n]
}

// String returns a copy of the text
func (t *Text) String() string {
	return string(t.buf[:t.n])
}

// Equal reports whether the text holds exactly b
func (t *Text) Equal(b []byte) bool {
	return string(t.buf[:t.n]) == string(b)
}

// Unit thresholds
const (
	mhzAboveOutput = 999999.9
	khzAboveOutput = 999.99
	mhzAboveInput  = 999999.0
	khzAboveInput  = 999.0
)

// AppendOutput appends the output status line, e.g. "Pin 2 Output: 1.000 Hz."
func AppendOutput(dst []byte, pin GPIOPin, hz float64) []byte {
	dst = appendPinLabel(dst, pin, " Output: ")
	switch {
	case hz > mhzAboveOutput:
		dst = appendFixed(dst, hz/1e6, 4)
		dst = append(dst, " MHz."...)
	case hz > khzAboveOutput:
		dst = appendFixed(dst, hz/1e3, 3)
		dst = append(dst, " KHz."...)
	default:
		dst = appendFixed(dst, hz, 3)
		dst = append(dst, " Hz."...)
	}
	return dst
}

// AppendInput appends the input status line for a measurement
func AppendInput(dst []byte, pin GPIOPin, m Measurement) []byte {
	switch m.Source {
	case SourceCounter:
		dst = appendPinLabel(dst, pin, " Input: ")
		switch {
		case m.Hz > mhzAboveInput:
			dst = appendFixed(dst, m.Hz/1e6, 4)
			dst = append(dst, " MHz."...)
		case m.Hz > khzAboveInput:
			dst = appendFixed(dst, m.Hz/1e3, 3)
			dst = append(dst, " KHz."...)
		default:
			dst = appendFixed(dst, m.Hz, 0)
			dst = append(dst, " Hz."...)
		}
	case SourceEdgeTimer:
		dst = appendPinLabel(dst, pin, " Input: ")
		dst = appendFixed(dst, m.Hz, 2)
		dst = append(dst, " Hz."...)
	default:
		dst = appendPinLabel(dst, pin, " Input freq too low.")
	}
	return dst
}

func appendPinLabel(dst []byte, pin GPIOPin, suffix string) []byte {
	dst = append(dst, "Pin "...)
	dst = appendInt(dst, int(pin))
	return append(dst, suffix...)
}

// FormatOutput returns the output status line as a string
func FormatOutput(pin GPIOPin, hz float64) string {
	var buf [TextSize]byte
	return string(AppendOutput(buf[:0], pin, hz))
}

// FormatInput returns the input status line as a string
func FormatInput(pin GPIOPin, m Measurement) string {
	var buf [TextSize]byte
	return string(AppendInput(buf[:0], pin, m))
}
