//go:build !tinygo

package serial

import (
	"errors"
	"io"
	"sync"
)

// StreamPort turns a blocking reader into the polled byte source the
// instrument's remote link expects: a goroutine reads into a buffer,
// Buffered and ReadByte never block.
type StreamPort struct {
	rw io.ReadWriteCloser

	mu   sync.Mutex
	buf  []byte
	err  error
	done chan struct{}
}

// NewStreamPort starts reading from rw
func NewStreamPort(rw io.ReadWriteCloser) *StreamPort {
	s := &StreamPort{rw: rw, done: make(chan struct{})}
	go s.readLoop()
	return s
}

func (s *StreamPort) readLoop() {
	defer close(s.done)
	chunk := make([]byte, 256)
	for {
		n, err := s.rw.Read(chunk)
		s.mu.Lock()
		s.buf = append(s.buf, chunk[:n]...)
		if err != nil && !isTimeout(err) {
			s.err = err
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Buffered returns the number of bytes ready to read
func (s *StreamPort) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// ReadByte returns the next buffered byte, or the reader's error once drained
func (s *StreamPort) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.ErrNoProgress
	}
	b := s.buf[0]
	s.buf = s.buf[1:]
	return b, nil
}

// Write writes directly to the underlying port
func (s *StreamPort) Write(p []byte) (int, error) {
	return s.rw.Write(p)
}

// Err returns the error that stopped the reader, if any
func (s *StreamPort) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close closes the port and waits for the reader
func (s *StreamPort) Close() error {
	err := s.rw.Close()
	<-s.done
	return err
}
