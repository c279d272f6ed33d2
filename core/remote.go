package core

import "freqgen/protocol"

// LinkPort is the byte stream under the remote link (USB CDC, UART,
// a serial tty). Reads must not block when Buffered is zero.
type LinkPort interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// Link message table. IDs follow registration order in NewRemoteLink.
const (
	MsgIdentifyResponse = "identify_response"
	MsgIdentify         = "identify"
	MsgSetPosition      = "set_position"
	MsgGetState         = "get_state"
	MsgUIState          = "ui_state"
	MsgGetEvents        = "get_events"
	MsgEvent            = "event"
)

const (
	identifyChunkMax = 40
	maxWriteFailures = 10

	// DefaultHeartbeatMs is how often ui_state is pushed without changes
	DefaultHeartbeatMs = 1000
)

// LinkConfig configures a RemoteLink
type LinkConfig struct {
	Name          string
	StartPosition Position
	HeartbeatMs   uint32 // 0 disables the periodic state push
}

// RemoteLink is a RemoteUI served over the framed serial protocol.
// Everything runs inside Sync, from the control loop.
type RemoteLink struct {
	port   LinkPort
	clock  Clock
	events *EventRing

	registry   *CommandRegistry
	descriptor *Descriptor
	transport  *protocol.Transport
	in         *protocol.FifoBuffer
	out        *protocol.ScratchOutput

	idIdentifyResponse uint16
	idUIState          uint16
	idEvent            uint16

	position int8
	output   Text
	input    Text
	dirty    bool

	connected     bool
	frames        uint32
	writeFailures uint32

	sched     Scheduler
	heartbeat Timer
	period    uint64
}

// NewRemoteLink registers the message table and builds the UI descriptor.
// events may be nil.
func NewRemoteLink(port LinkPort, clock Clock, cfg LinkConfig, events *EventRing) *RemoteLink {
	if cfg.Name == "" {
		cfg.Name = DeviceName
	}
	l := &RemoteLink{
		port:     port,
		clock:    clock,
		events:   events,
		registry: NewCommandRegistry(),
		in:       protocol.NewFifoBuffer(256),
		out:      protocol.NewScratchOutput(),
		position: int8(cfg.StartPosition),
	}
	l.transport = protocol.NewTransport(l.out, l.dispatch)

	r := l.registry
	l.idIdentifyResponse = r.RegisterResponse(MsgIdentifyResponse, "offset=%u data=%*s")
	r.Register(MsgIdentify, "offset=%u count=%c", l.handleIdentify)
	r.Register(MsgSetPosition, "position=%i", l.handleSetPosition)
	r.Register(MsgGetState, "", l.handleGetState)
	l.idUIState = r.RegisterResponse(MsgUIState, "position=%i output=%*s input=%*s")
	r.Register(MsgGetEvents, "", l.handleGetEvents)
	l.idEvent = r.RegisterResponse(MsgEvent, "type=%c clock=%u value=%u")

	l.descriptor = NewDescriptor(cfg.Name, r)

	if cfg.HeartbeatMs > 0 {
		l.period = MicrosFromMillis(cfg.HeartbeatMs)
		l.heartbeat.Handler = l.beat
		l.heartbeat.WakeTime = clock.Micros() + l.period
		l.sched.Schedule(&l.heartbeat)
	}
	return l
}

// Descriptor returns the UI descriptor, for adding constants before the
// first Sync
func (l *RemoteLink) Descriptor() *Descriptor {
	return l.descriptor
}

// Registry returns the message table
func (l *RemoteLink) Registry() *CommandRegistry {
	return l.registry
}

func (l *RemoteLink) dispatch(id uint16, data *[]byte) error {
	l.frames++
	if !l.connected {
		l.connected = true
		l.writeFailures = 0
		l.record(EvtLinkUp, 0)
	}
	return l.registry.Dispatch(id, data)
}

func (l *RemoteLink) handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if count > identifyChunkMax {
		count = identifyChunkMax
	}

	chunk := l.descriptor.Chunk(offset, uint8(count))
	return l.transport.SendCommand(l.idIdentifyResponse, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQBytes(out, chunk)
	})
}

func (l *RemoteLink) handleSetPosition(data *[]byte) error {
	v, err := protocol.DecodeVLQInt(data)
	if err != nil {
		return err
	}
	// saturate to the slider's storage; the loop clamps to the table
	switch {
	case v > 127:
		v = 127
	case v < -128:
		v = -128
	}
	l.position = int8(v)
	return nil
}

func (l *RemoteLink) handleGetState(data *[]byte) error {
	return l.sendState()
}

func (l *RemoteLink) handleGetEvents(data *[]byte) error {
	if l.events == nil {
		return nil
	}
	var buf [EventRingSize]Event
	for _, evt := range l.events.Snapshot(buf[:0]) {
		if l.out.Free() < protocol.MessageLengthMax {
			l.flush()
		}
		evt := evt
		err := l.transport.SendCommand(l.idEvent, func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, uint32(evt.Type))
			protocol.EncodeVLQUint(out, evt.Clock)
			protocol.EncodeVLQUint(out, evt.Value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *RemoteLink) sendState() error {
	l.dirty = false
	return l.transport.SendCommand(l.idUIState, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQInt(out, int32(l.position))
		protocol.EncodeVLQBytes(out, l.output.Bytes())
		protocol.EncodeVLQBytes(out, l.input.Bytes())
	})
}

func (l *RemoteLink) beat(t *Timer) uint8 {
	l.dirty = true
	t.WakeTime = l.clock.Micros() + l.period
	return SF_RESCHEDULE
}

// Position returns the last slider value received
func (l *RemoteLink) Position() int8 {
	return l.position
}

// SetOutputText updates the output field; it is pushed on the next Sync
func (l *RemoteLink) SetOutputText(text []byte) {
	if !l.output.Equal(text) {
		l.output.Set(text)
		l.dirty = true
	}
}

// SetInputText updates the input field; it is pushed on the next Sync
func (l *RemoteLink) SetInputText(text []byte) {
	if !l.input.Equal(text) {
		l.input.Set(text)
		l.dirty = true
	}
}

// Sync services the link: read, dispatch, push state, write
func (l *RemoteLink) Sync() {
	for l.port.Buffered() > 0 && l.in.Free() > 0 {
		b, err := l.port.ReadByte()
		if err != nil {
			break
		}
		l.in.WriteByte(b)
	}
	if !l.in.IsEmpty() {
		l.transport.Receive(l.in)
	}

	l.sched.Dispatch(l.clock.Micros())
	if l.dirty && l.connected {
		l.sendState()
	}
	l.flush()
}

// flush writes pending output. Output that cannot be written is dropped;
// a stale state frame is worse than none.
func (l *RemoteLink) flush() {
	data := l.out.Result()
	if len(data) == 0 {
		return
	}
	n, err := l.port.Write(data)
	l.out.Reset()

	if err != nil || n < len(data) {
		l.writeFailures++
		if l.connected && l.writeFailures > maxWriteFailures {
			l.connected = false
			l.record(EvtLinkDown, l.writeFailures)
		}
		return
	}
	l.writeFailures = 0
}

func (l *RemoteLink) record(typ uint8, value uint32) {
	if l.events != nil {
		l.events.Record(typ, l.clock.Micros(), value)
	}
}

// Connected reports whether a UI has talked to us and writes still succeed
func (l *RemoteLink) Connected() bool {
	return l.connected
}

// Frames returns the number of commands received
func (l *RemoteLink) Frames() uint32 {
	return l.frames
}
