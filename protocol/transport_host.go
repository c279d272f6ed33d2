//go:build !tinygo

package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var ErrClosed = errors.New("protocol: transport closed")

// Message is one frame received by the host
type Message struct {
	Sequence uint8
	Payload  []byte
}

// CommandID decodes the leading command ID and returns the remaining arguments
func (m *Message) CommandID() (uint16, []byte, error) {
	data := m.Payload
	id, err := DecodeVLQUint(&data)
	return uint16(id), data, err
}

// HostTransport is the UI side of the link. A reader goroutine splits
// incoming frames into ACKs and responses; SendCommand blocks until the
// instrument acknowledges.
type HostTransport struct {
	port io.ReadWriteCloser

	writeMu sync.Mutex
	seq     uint8
	scratch ScratchOutput

	acks      chan Message
	responses chan Message

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewHostTransport starts reading from port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       MessageDest,
		acks:      make(chan Message, 1),
		responses: make(chan Message, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends one command and waits for the ACK
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, 2*time.Second)
}

// SendCommandWithTimeout is SendCommand with an explicit ACK timeout
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.scratch.Reset()
	err := AppendFrame(&t.scratch, t.seq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
	if err != nil {
		return fmt.Errorf("encode command %d: %w", cmdID, err)
	}

	frame := t.scratch.Result()
	if n, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write command %d: %w", cmdID, err)
	} else if n != len(frame) {
		return fmt.Errorf("write command %d: short write %d/%d", cmdID, n, len(frame))
	}

	want := NextSequence(t.seq)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-t.acks:
			if ack.Sequence != want {
				// stale ACK from an earlier exchange
				continue
			}
			t.seq = want
			return nil
		case <-timer.C:
			return fmt.Errorf("command %d: no ACK after %v", cmdID, timeout)
		case <-t.stop:
			return ErrClosed
		}
	}
}

// ReceiveResponse returns the next response frame
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-t.responses:
		return msg, nil
	case <-timer.C:
		return Message{}, fmt.Errorf("no response after %v", timeout)
	case <-t.stop:
		return Message{}, ErrClosed
	}
}

// WaitResponse discards responses until one with cmdID arrives
func (t *HostTransport) WaitResponse(cmdID uint16, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, fmt.Errorf("response %d: timeout after %v", cmdID, timeout)
		}
		msg, err := t.ReceiveResponse(left)
		if err != nil {
			return nil, err
		}
		id, args, err := msg.CommandID()
		if err == nil && id == cmdID {
			return args, nil
		}
	}
}

// Drain drops any queued responses
func (t *HostTransport) Drain() {
	for {
		select {
		case <-t.responses:
		default:
			return
		}
	}
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	f := framer{synced: true}
	in := NewFifoBuffer(1024)
	buf := make([]byte, 256)

	for {
		select {
		case <-t.stop:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}

		in.Write(buf[:n])
		consumed, _ := f.scan(in.Data(), t.deliver)
		in.Pop(consumed)
	}
}

func (t *HostTransport) deliver(seq uint8, payload []byte) {
	msg := Message{Sequence: seq, Payload: append([]byte(nil), payload...)}

	if len(payload) == 0 {
		select {
		case t.acks <- msg:
		default:
			// keep the newest ACK
			select {
			case <-t.acks:
			default:
			}
			t.acks <- msg
		}
		return
	}

	select {
	case t.responses <- msg:
	default:
		select {
		case <-t.responses:
		default:
		}
		t.responses <- msg
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}

// Sequence returns the sequence number of the next command
func (t *HostTransport) Sequence() uint8 {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.seq
}
