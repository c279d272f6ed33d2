package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is set by platform code (UART, USB, zap on host)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled gates DebugPrintln; off by default to keep the loop fast
	debugEnabled bool
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// Event is one entry of the loop event ring
type Event struct {
	Type  uint8
	Clock uint32 // low 32 bits of the µs timestamp
	Value uint32 // event specific
}

// Event type codes
const (
	EvtPosition      = 1 // position applied, value = position (int8 as uint32)
	EvtPositionClamp = 2 // raw position out of range, value = raw
	EvtRegime        = 3 // regime switch, value = Regime
	EvtPWMError      = 4 // output reconfiguration failed, value = position
	EvtWindow        = 5 // counter window read, value = Hz
	EvtLinkDown      = 6 // remote link gave up writing
	EvtLinkUp        = 7 // remote link received a valid frame
)

// EventRingSize is the number of events kept
const EventRingSize = 32

// EventRing keeps the most recent loop events for post-mortem dumps.
// Recording never blocks and never allocates.
type EventRing struct {
	buf   [EventRingSize]Event
	head  uint8
	count uint8
}

// Record appends an event, overwriting the oldest when full
func (r *EventRing) Record(typ uint8, now uint64, value uint32) {
	r.buf[r.head] = Event{Type: typ, Clock: uint32(now), Value: value}
	r.head = (r.head + 1) % EventRingSize
	if r.count < EventRingSize {
		r.count++
	}
}

// Len returns the number of stored events
func (r *EventRing) Len() int {
	return int(r.count)
}

// Snapshot appends the stored events to dst, oldest first
func (r *EventRing) Snapshot(dst []Event) []Event {
	start := (int(r.head) + EventRingSize - int(r.count)) % EventRingSize
	for i := 0; i < int(r.count); i++ {
		dst = append(dst, r.buf[(start+i)%EventRingSize])
	}
	return dst
}

// Clear drops all events
func (r *EventRing) Clear() {
	r.head = 0
	r.count = 0
}

// EventName returns a short name for an event type
func EventName(typ uint8) string {
	switch typ {
	case EvtPosition:
		return "POSITION"
	case EvtPositionClamp:
		return "CLAMP"
	case EvtRegime:
		return "REGIME"
	case EvtPWMError:
		return "PWM_ERR"
	case EvtWindow:
		return "WINDOW"
	case EvtLinkDown:
		return "LINK_DOWN"
	case EvtLinkUp:
		return "LINK_UP"
	default:
		return "UNKNOWN"
	}
}

// Dump writes the ring through the debug writer, ignoring the enable flag
func (r *EventRing) Dump() {
	if debugPrintln == nil {
		return
	}
	var events [EventRingSize]Event
	debugPrintln("[EVENTS] === dump ===")
	for _, evt := range r.Snapshot(events[:0]) {
		debugPrintln("[EVENTS] " + EventName(evt.Type) +
			" clock=" + utoa(evt.Clock) +
			" value=" + utoa(evt.Value))
	}
	debugPrintln("[EVENTS] === end ===")
}
