package protocol

// CommandHandler decodes and runs one command. It must consume its
// arguments from data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the instrument side of the link. It is driven from the
// control loop: Receive parses whatever bytes are buffered, handlers run
// inline and responses are appended to the output buffer.
type Transport struct {
	framer   framer
	nextSeq  uint8
	output   OutputBuffer
	handler  CommandHandler
	onReset  func()
	frames   uint32
	failures uint32
}

// NewTransport creates a device transport writing into output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		framer:  framer{synced: true, checkDest: true},
		nextSeq: MessageDest,
		output:  output,
		handler: handler,
	}
}

// Receive consumes complete frames from input
func (t *Transport) Receive(input InputBuffer) {
	consumed, resynced := t.framer.scan(input.Data(), t.frame)
	if resynced {
		t.ack()
	}
	input.Pop(consumed)
}

func (t *Transport) frame(seq uint8, payload []byte) {
	if seq == MessageDest && t.nextSeq != MessageDest {
		// host restarted its sequence
		t.nextSeq = MessageDest
		if t.onReset != nil {
			t.onReset()
		}
	}
	if seq == t.nextSeq {
		t.nextSeq = NextSequence(seq)
		t.frames++
		t.dispatch(payload)
	}
	// an ACK carrying the expected sequence doubles as a NAK
	t.ack()
}

func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.failures++
			t.framer.synced = false
		}
	}()

	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.failures++
			t.framer.synced = false
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			t.failures++
			return
		}
	}
}

func (t *Transport) ack() {
	_ = AppendFrame(t.output, t.nextSeq, nil)
}

// SendCommand appends a response frame
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return AppendFrame(t.output, t.nextSeq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset forgets the host's sequence
func (t *Transport) Reset() {
	t.framer.synced = true
	t.nextSeq = MessageDest
	if t.onReset != nil {
		t.onReset()
	}
}

// SetResetCallback is called when the host restarts its sequence
func (t *Transport) SetResetCallback(callback func()) {
	t.onReset = callback
}

// Frames returns the number of accepted frames
func (t *Transport) Frames() uint32 {
	return t.frames
}

// Failures returns the number of frames with undecodable or failing commands
func (t *Transport) Failures() uint32 {
	return t.failures
}
