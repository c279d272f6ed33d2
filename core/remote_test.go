package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"freqgen/protocol"
	"freqgen/tinycompress"
)

type fakePort struct {
	rx       []byte
	tx       bytes.Buffer
	writeErr error
}

func (p *fakePort) Buffered() int { return len(p.rx) }

func (p *fakePort) ReadByte() (byte, error) {
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.tx.Write(b)
}

type linkRig struct {
	port   *fakePort
	clock  *fakeClock
	events *EventRing
	link   *RemoteLink
	seq    uint8
}

func newLinkRig() *linkRig {
	r := &linkRig{port: &fakePort{}, clock: &fakeClock{}, events: &EventRing{}, seq: protocol.MessageDest}
	r.link = NewRemoteLink(r.port, r.clock, LinkConfig{StartPosition: PositionDefault}, r.events)
	return r
}

// send queues one command frame from the UI side
func (r *linkRig) send(t *testing.T, name string, args ...int32) {
	t.Helper()
	id, ok := r.link.Registry().Lookup(name)
	if !ok {
		t.Fatalf("no message %q", name)
	}
	out := protocol.NewScratchOutput()
	protocol.AppendFrame(out, r.seq, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, uint32(id))
		for _, a := range args {
			protocol.EncodeVLQInt(o, a)
		}
	})
	r.port.rx = append(r.port.rx, out.Result()...)
	r.seq = protocol.NextSequence(r.seq)
}

// responses splits everything written so far into non-ACK payloads
func (r *linkRig) responses() [][]byte {
	var msgs [][]byte
	protocol.ScanFrames(r.port.tx.Bytes(), func(seq uint8, payload []byte) {
		if len(payload) > 0 {
			msgs = append(msgs, append([]byte(nil), payload...))
		}
	})
	r.port.tx.Reset()
	return msgs
}

func TestRemoteLinkMessageIDs(t *testing.T) {
	r := newLinkRig()
	want := []string{MsgIdentifyResponse, MsgIdentify, MsgSetPosition, MsgGetState, MsgUIState, MsgGetEvents, MsgEvent}
	for i, name := range want {
		if id, ok := r.link.Registry().Lookup(name); !ok || int(id) != i {
			t.Errorf("%s: id=%d ok=%v, want %d", name, id, ok, i)
		}
	}
}

func TestRemoteLinkSetPosition(t *testing.T) {
	r := newLinkRig()
	if r.link.Position() != int8(PositionDefault) || r.link.Connected() {
		t.Fatalf("fresh link: position=%d connected=%v", r.link.Position(), r.link.Connected())
	}

	r.send(t, MsgSetPosition, 42)
	r.link.Sync()
	if r.link.Position() != 42 || !r.link.Connected() {
		t.Errorf("position=%d connected=%v", r.link.Position(), r.link.Connected())
	}

	r.send(t, MsgSetPosition, 1000)
	r.link.Sync()
	if r.link.Position() != 127 {
		t.Errorf("saturated position = %d, want 127", r.link.Position())
	}
}

func TestRemoteLinkPushesStateOnChange(t *testing.T) {
	r := newLinkRig()
	r.link.SetOutputText([]byte("Pin 2 Output: 1.000 Hz."))
	r.link.Sync()
	if len(r.responses()) != 0 {
		t.Fatalf("state pushed before any UI connected")
	}

	r.send(t, MsgGetState)
	r.link.Sync()
	msgs := r.responses()
	if len(msgs) != 1 {
		t.Fatalf("got %d responses, want 1", len(msgs))
	}

	data := msgs[0]
	id, _ := protocol.DecodeVLQUint(&data)
	pos, _ := protocol.DecodeVLQInt(&data)
	out, _ := protocol.DecodeVLQString(&data)
	in, _ := protocol.DecodeVLQString(&data)
	if id != 4 || pos != int32(PositionDefault) || out != "Pin 2 Output: 1.000 Hz." || in != "" {
		t.Errorf("ui_state = id %d pos %d out %q in %q", id, pos, out, in)
	}

	r.link.SetInputText([]byte("Pin 14 Input: 200 Hz."))
	r.link.Sync()
	if n := len(r.responses()); n != 1 {
		t.Errorf("changed text pushed %d states, want 1", n)
	}
	r.link.SetInputText([]byte("Pin 14 Input: 200 Hz."))
	r.link.Sync()
	if n := len(r.responses()); n != 0 {
		t.Errorf("unchanged text pushed %d states", n)
	}
}

func TestRemoteLinkHeartbeat(t *testing.T) {
	r := &linkRig{port: &fakePort{}, clock: &fakeClock{}, seq: protocol.MessageDest}
	r.link = NewRemoteLink(r.port, r.clock, LinkConfig{HeartbeatMs: 100}, nil)
	r.send(t, MsgGetState)
	r.link.Sync()
	r.responses()

	r.clock.Advance(150000)
	r.link.Sync()
	if n := len(r.responses()); n != 1 {
		t.Errorf("heartbeat pushed %d states, want 1", n)
	}
}

func TestRemoteLinkDescriptor(t *testing.T) {
	r := newLinkRig()
	r.link.Descriptor().AddConstant("OUTPUT_PIN", "2")

	var blob []byte
	for offset := int32(0); ; {
		r.send(t, MsgIdentify, offset, identifyChunkMax)
		r.link.Sync()
		msgs := r.responses()
		if len(msgs) != 1 {
			t.Fatalf("identify at %d: %d responses", offset, len(msgs))
		}
		data := msgs[0]
		protocol.DecodeVLQUint(&data)
		got, _ := protocol.DecodeVLQUint(&data)
		chunk, err := protocol.DecodeVLQBytes(&data)
		if err != nil || got != uint32(offset) {
			t.Fatalf("chunk at %d: offset %d, %v", offset, got, err)
		}
		if len(chunk) == 0 {
			break
		}
		blob = append(blob, chunk...)
		offset += int32(len(chunk))
	}

	doc, err := tinycompress.Decompress(blob)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"name":"FreqGen"`,
		`"set_position position=%i":2`,
		`"ui_state position=%i output=%*s input=%*s":4`,
		`"min":-100,"max":100,"default":-77`,
		`"OUTPUT_PIN":"2"`,
	} {
		if !strings.Contains(string(doc), want) {
			t.Errorf("descriptor missing %s:\n%s", want, doc)
		}
	}
}

func TestRemoteLinkDisconnectsAfterWriteFailures(t *testing.T) {
	r := newLinkRig()
	r.send(t, MsgSetPosition, 1)
	r.link.Sync()
	if !r.link.Connected() {
		t.Fatal("not connected")
	}

	r.port.writeErr = errors.New("usb gone")
	for i := 0; i <= maxWriteFailures; i++ {
		r.link.SetOutputText([]byte{byte('a' + i)})
		r.link.Sync()
	}
	if r.link.Connected() {
		t.Errorf("still connected after %d failed writes", maxWriteFailures+1)
	}

	var down bool
	for _, e := range r.events.Snapshot(nil) {
		down = down || e.Type == EvtLinkDown
	}
	if !down {
		t.Errorf("disconnect not recorded")
	}

	// the UI coming back reconnects
	r.port.writeErr = nil
	r.send(t, MsgGetState)
	r.link.Sync()
	if !r.link.Connected() {
		t.Errorf("link did not reconnect")
	}
}

func TestRemoteLinkEvents(t *testing.T) {
	r := newLinkRig()
	r.events.Record(EvtPosition, 1234, 5)
	r.events.Record(EvtRegime, 5678, uint32(RegimeHardware))

	r.send(t, MsgGetEvents)
	r.link.Sync()
	msgs := r.responses()

	var types []uint32
	for _, m := range msgs {
		data := m
		id, _ := protocol.DecodeVLQUint(&data)
		if id != 6 {
			continue
		}
		typ, _ := protocol.DecodeVLQUint(&data)
		types = append(types, typ)
	}
	// EvtLinkUp is recorded when the get_events frame arrives
	if len(types) != 3 || types[0] != EvtPosition || types[1] != EvtRegime || types[2] != EvtLinkUp {
		t.Errorf("event types = %v", types)
	}
}
