// Package protocol implements the framed serial link between the
// instrument and its remote UI.
//
// A frame is [len][seq][payload...][crc16 hi][crc16 lo][0x7E]. The payload
// is a sequence of commands, each a VLQ command ID followed by its
// VLQ-encoded arguments. An empty payload is an ACK.
package protocol

import "errors"

// Version is the link protocol version reported in the UI descriptor
const Version = "freqgen-link-1"

// Frame layout
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 128 // fits ui_state with two full text fields
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F

	// MessageMax is the size of an output scratch buffer (several frames)
	MessageMax = 512
)

var (
	ErrInvalidVLQ     = errors.New("protocol: invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("protocol: buffer too small")
	ErrFrameTooLong   = errors.New("protocol: frame too long")
)

// NextSequence returns the sequence number following seq
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
