// Package remote is the host side of the instrument's UI link: it fetches
// the UI descriptor and drives the slider like the phone UI would.
package remote

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"freqgen/host/serial"
	"freqgen/protocol"
)

// identify and identify_response have fixed IDs so the descriptor can be
// fetched before anything else is known
const (
	idIdentifyResponse = 0
	idIdentify         = 1
	chunkSize          = 40
	maxChunks          = 1000
)

var (
	ErrNoDescriptor = errors.New("remote: descriptor not loaded")
	ErrUnknownMsg   = errors.New("remote: message not in descriptor")
)

// Control describes the slider
type Control struct {
	Type    string `json:"type"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Default int    `json:"default"`
}

// Descriptor is the parsed UI descriptor
type Descriptor struct {
	Name      string             `json:"name"`
	Version   string             `json:"version"`
	Controls  map[string]Control `json:"controls"`
	Fields    map[string]int     `json:"fields"`
	Commands  map[string]int     `json:"commands"`
	Responses map[string]int     `json:"responses"`
	Config    map[string]string  `json:"config"`
}

// messageID finds a message by its bare name ("set_position")
func (d *Descriptor) messageID(name string) (uint16, bool) {
	for _, table := range []map[string]int{d.Commands, d.Responses} {
		for sig, id := range table {
			if sig == name || strings.HasPrefix(sig, name+" ") {
				return uint16(id), true
			}
		}
	}
	return 0, false
}

// State is the instrument's UI state
type State struct {
	Position int
	Output   string
	Input    string
}

// Event is one entry of the instrument's event ring
type Event struct {
	Type  uint8
	Clock uint32
	Value uint32
}

// Client talks to one instrument
type Client struct {
	transport *protocol.HostTransport
	log       *zap.SugaredLogger
	timeout   time.Duration

	desc *Descriptor
	raw  []byte
}

// Dial opens a serial device and wraps it in a client
func Dial(device string, baud int, log *zap.SugaredLogger) (*Client, error) {
	cfg := serial.DefaultConfig(device)
	if baud > 0 {
		cfg.Baud = baud
	}
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(port, log), nil
}

// NewClient starts a client over an open byte stream
func NewClient(rw io.ReadWriteCloser, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		transport: protocol.NewHostTransport(rw),
		log:       log,
		timeout:   time.Second,
	}
}

// Close closes the link
func (c *Client) Close() error {
	return c.transport.Close()
}

// Identify fetches, decompresses and parses the UI descriptor
func (c *Client) Identify() (*Descriptor, error) {
	var blob bytes.Buffer
	for i := 0; i < maxChunks; i++ {
		chunk, err := c.identifyChunk(uint32(blob.Len()))
		if err != nil {
			return nil, fmt.Errorf("descriptor chunk at %d: %w", blob.Len(), err)
		}
		blob.Write(chunk)
		if len(chunk) < chunkSize {
			break
		}
	}
	c.log.Debugw("descriptor retrieved", "bytes", blob.Len())

	raw := blob.Bytes()
	if len(raw) > 0 && raw[0] == 0x78 {
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("descriptor: %w", err)
		}
		raw, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("descriptor: %w", err)
		}
	}

	var desc Descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}
	c.desc = &desc
	c.raw = raw
	c.log.Infow("instrument identified", "name", desc.Name, "version", desc.Version,
		"commands", len(desc.Commands), "responses", len(desc.Responses))
	return &desc, nil
}

func (c *Client) identifyChunk(offset uint32) ([]byte, error) {
	c.transport.Drain()
	err := c.transport.SendCommand(idIdentify, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQUint(out, chunkSize)
	})
	if err != nil {
		return nil, err
	}

	args, err := c.transport.WaitResponse(idIdentifyResponse, c.timeout)
	if err != nil {
		return nil, err
	}
	got, err := protocol.DecodeVLQUint(&args)
	if err != nil {
		return nil, err
	}
	if got != offset {
		return nil, fmt.Errorf("offset mismatch: sent %d, got %d", offset, got)
	}
	data, err := protocol.DecodeVLQBytes(&args)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

// Descriptor returns the descriptor fetched by Identify
func (c *Client) Descriptor() *Descriptor {
	return c.desc
}

// DescriptorJSON returns the uncompressed descriptor document
func (c *Client) DescriptorJSON() []byte {
	return c.raw
}

func (c *Client) id(name string) (uint16, error) {
	if c.desc == nil {
		return 0, ErrNoDescriptor
	}
	id, ok := c.desc.messageID(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMsg, name)
	}
	return id, nil
}

// SetPosition moves the slider
func (c *Client) SetPosition(p int) error {
	id, err := c.id("set_position")
	if err != nil {
		return err
	}
	return c.transport.SendCommand(id, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQInt(out, int32(p))
	})
}

// State requests and returns the current UI state
func (c *Client) State() (State, error) {
	get, err := c.id("get_state")
	if err != nil {
		return State{}, err
	}
	resp, err := c.id("ui_state")
	if err != nil {
		return State{}, err
	}

	c.transport.Drain()
	if err := c.transport.SendCommand(get, nil); err != nil {
		return State{}, err
	}
	args, err := c.transport.WaitResponse(resp, c.timeout)
	if err != nil {
		return State{}, err
	}
	return decodeState(args)
}

// NextState waits for the next pushed ui_state
func (c *Client) NextState(timeout time.Duration) (State, error) {
	resp, err := c.id("ui_state")
	if err != nil {
		return State{}, err
	}
	args, err := c.transport.WaitResponse(resp, timeout)
	if err != nil {
		return State{}, err
	}
	return decodeState(args)
}

func decodeState(args []byte) (State, error) {
	pos, err := protocol.DecodeVLQInt(&args)
	if err != nil {
		return State{}, err
	}
	out, err := protocol.DecodeVLQString(&args)
	if err != nil {
		return State{}, err
	}
	in, err := protocol.DecodeVLQString(&args)
	if err != nil {
		return State{}, err
	}
	return State{Position: int(pos), Output: out, Input: in}, nil
}

// Events fetches the instrument's event ring, oldest first
func (c *Client) Events() ([]Event, error) {
	get, err := c.id("get_events")
	if err != nil {
		return nil, err
	}
	evt, err := c.id("event")
	if err != nil {
		return nil, err
	}

	c.transport.Drain()
	if err := c.transport.SendCommand(get, nil); err != nil {
		return nil, err
	}

	// the ring has no count; collect until the link goes quiet
	var events []Event
	for {
		args, err := c.transport.WaitResponse(evt, 200*time.Millisecond)
		if err != nil {
			return events, nil
		}
		typ, err1 := protocol.DecodeVLQUint(&args)
		clock, err2 := protocol.DecodeVLQUint(&args)
		value, err3 := protocol.DecodeVLQUint(&args)
		if err := errors.Join(err1, err2, err3); err != nil {
			return events, fmt.Errorf("event: %w", err)
		}
		events = append(events, Event{Type: uint8(typ), Clock: clock, Value: value})
	}
}
