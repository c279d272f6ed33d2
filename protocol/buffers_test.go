package protocol

import (
	"bytes"
	"testing"
)

func TestFifoBufferWrap(t *testing.T) {
	f := NewFifoBuffer(8)

	if n := f.Write([]byte("abcdef")); n != 6 {
		t.Fatalf("Write = %d, want 6", n)
	}
	f.Pop(4)
	if n := f.Write([]byte("ghijk")); n != 5 {
		t.Fatalf("Write after pop = %d, want 5", n)
	}
	if f.Free() != 0 {
		t.Errorf("Free = %d, want 0", f.Free())
	}
	if f.WriteByte('x') {
		t.Errorf("WriteByte on full buffer succeeded")
	}
	if got := f.Data(); !bytes.Equal(got, []byte("efghijk")) {
		t.Errorf("Data = %q, want %q", got, "efghijk")
	}

	f.Pop(100)
	if !f.IsEmpty() {
		t.Errorf("buffer not empty after over-pop")
	}
}

func TestScratchOutputTruncate(t *testing.T) {
	s := NewScratchOutput()
	s.Output([]byte{1, 2, 3})
	mark := s.CurPosition()
	s.Output([]byte{4, 5})
	s.Truncate(mark)
	if !bytes.Equal(s.Result(), []byte{1, 2, 3}) {
		t.Errorf("Result = %v", s.Result())
	}
	s.Update(5, 9)
	if len(s.Result()) != 3 {
		t.Errorf("Update past end grew buffer")
	}
}
