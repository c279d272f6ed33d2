// Package tinycompress writes zlib streams made of stored (uncompressed)
// deflate blocks. The output is readable by any zlib implementation but
// needs no compression tables, so it is cheap enough for firmware.
package tinycompress

import (
	"errors"
	"hash"
	"hash/adler32"
	"io"
)

const maxStored = 0xFFFF // largest stored block

var (
	ErrHeader   = errors.New("tinycompress: not a zlib stream")
	ErrBlock    = errors.New("tinycompress: unsupported or corrupt block")
	ErrChecksum = errors.New("tinycompress: checksum mismatch")
	ErrClosed   = errors.New("tinycompress: write after close")
)

// Writer is an io.WriteCloser producing a zlib stream. Input is buffered
// until Close, which emits the blocks and the Adler-32 trailer.
type Writer struct {
	out    io.Writer
	buf    []byte
	adler  hash.Hash32
	closed bool
}

// NewWriter returns a writer that emits to w on Close
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w, adler: adler32.New()}
}

// Write buffers p
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	w.buf = append(w.buf, p...)
	w.adler.Write(p)
	return len(p), nil
}

// Close writes the stream
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	// CMF 0x78 = deflate with 32K window, FLG 0x01 makes the header a multiple of 31
	if _, err := w.out.Write([]byte{0x78, 0x01}); err != nil {
		return err
	}

	data := w.buf
	for {
		n := len(data)
		if n > maxStored {
			n = maxStored
		}
		final := byte(0)
		if n == len(data) {
			final = 1
		}
		l := uint16(n)
		hdr := []byte{final, byte(l), byte(l >> 8), byte(^l), byte(^l >> 8)}
		if _, err := w.out.Write(hdr); err != nil {
			return err
		}
		if _, err := w.out.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
		if final == 1 {
			break
		}
	}

	sum := w.adler.Sum32()
	_, err := w.out.Write([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
	return err
}

// Compress returns data as a zlib stream
func Compress(data []byte) []byte {
	var out sliceWriter
	w := NewWriter(&out)
	w.Write(data)
	w.Close()
	return out.b
}

type sliceWriter struct{ b []byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.b = append(s.b, p...)
	return len(p), nil
}

// Decompress reads a zlib stream of stored blocks, as written by Writer
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0]&0x0F != 8 || (uint16(data[0])<<8|uint16(data[1]))%31 != 0 {
		return nil, ErrHeader
	}
	data = data[2:]

	var out []byte
	for {
		if len(data) < 5 {
			return nil, ErrBlock
		}
		hdr := data[0]
		if hdr>>1&0x03 != 0 {
			return nil, ErrBlock
		}
		n := int(data[1]) | int(data[2])<<8
		if nn := int(data[3]) | int(data[4])<<8; n != ^nn&0xFFFF {
			return nil, ErrBlock
		}
		data = data[5:]
		if len(data) < n {
			return nil, ErrBlock
		}
		out = append(out, data[:n]...)
		data = data[n:]
		if hdr&0x01 != 0 {
			break
		}
	}

	if len(data) < 4 {
		return nil, ErrChecksum
	}
	want := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	if adler32.Checksum(out) != want {
		return nil, ErrChecksum
	}
	return out, nil
}
