package core

import (
	"freqgen/protocol"
	"freqgen/tinycompress"
)

// DeviceName is the name the instrument advertises
const DeviceName = "FreqGen"

type constant struct {
	name, value string
}

// Descriptor is the UI configuration document served to a remote UI: the
// device name, the slider and text field layout, the message table and a
// few wiring constants. It is JSON, zlib wrapped, fetched in chunks.
type Descriptor struct {
	name      string
	registry  *CommandRegistry
	constants []constant
	cached    []byte
}

// NewDescriptor creates a descriptor over the link's message table
func NewDescriptor(name string, registry *CommandRegistry) *Descriptor {
	return &Descriptor{name: name, registry: registry}
}

// AddConstant publishes a name/value pair under "config"
func (d *Descriptor) AddConstant(name, value string) {
	for i := range d.constants {
		if d.constants[i].name == name {
			d.constants[i].value = value
			d.cached = nil
			return
		}
	}
	d.constants = append(d.constants, constant{name, value})
	d.cached = nil
}

// JSON returns the uncompressed document
func (d *Descriptor) JSON() []byte {
	b := make([]byte, 0, 768)
	b = append(b, `{"name":`...)
	b = appendJSONString(b, d.name)
	b = append(b, `,"version":`...)
	b = appendJSONString(b, protocol.Version)

	b = append(b, `,"controls":{"position":{"type":"slider","min":`...)
	b = appendInt(b, int(PositionMin))
	b = append(b, `,"max":`...)
	b = appendInt(b, int(PositionMax))
	b = append(b, `,"default":`...)
	b = appendInt(b, int(PositionDefault))
	b = append(b, `}},"fields":{"output":`...)
	b = appendInt(b, TextSize)
	b = append(b, `,"input":`...)
	b = appendInt(b, TextSize)
	b = append(b, '}')

	b = d.appendMessages(b, `,"commands":{`, true)
	b = d.appendMessages(b, `,"responses":{`, false)

	b = append(b, `,"config":{`...)
	for i, c := range d.constants {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendJSONString(b, c.name)
		b = append(b, ':')
		b = appendJSONString(b, c.value)
	}
	return append(b, "}}"...)
}

func (d *Descriptor) appendMessages(b []byte, open string, commands bool) []byte {
	b = append(b, open...)
	first := true
	d.registry.Commands(func(c *Command) {
		if (c.Handler != nil) != commands {
			return
		}
		if !first {
			b = append(b, ',')
		}
		first = false
		b = appendJSONString(b, c.Signature())
		b = append(b, ':')
		b = appendInt(b, int(c.ID))
	})
	return append(b, '}')
}

func appendJSONString(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b = append(b, '\\', c)
		default:
			if c < 0x20 {
				continue
			}
			b = append(b, c)
		}
	}
	return append(b, '"')
}

// Build compresses and caches the document. Call after all messages are registered.
func (d *Descriptor) Build() {
	d.cached = tinycompress.Compress(d.JSON())
}

// Bytes returns the compressed document
func (d *Descriptor) Bytes() []byte {
	if d.cached == nil {
		d.Build()
	}
	return d.cached
}

// Chunk returns up to count bytes starting at offset; empty past the end
func (d *Descriptor) Chunk(offset uint32, count uint8) []byte {
	data := d.Bytes()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	return data[offset:end]
}
