package protocol

// framer splits a byte stream into verified frames. After any framing
// error it discards input up to the next sync byte.
type framer struct {
	synced bool
	// checkDest rejects frames whose sequence lacks the MessageDest bits
	checkDest bool
}

// scan calls fn for every complete valid frame in data and returns the
// number of bytes consumed. resynced is true if sync was regained on the
// way; partial frames are left unconsumed.
func (f *framer) scan(data []byte, fn func(seq uint8, payload []byte)) (consumed int, resynced bool) {
	start := len(data)
	for len(data) > 0 {
		if !f.synced {
			i := indexSync(data)
			if i < 0 {
				data = nil
				break
			}
			data = data[i+1:]
			f.synced = true
			resynced = true
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		n := int(data[MessagePositionLen])
		seq := data[MessagePositionSeq]
		if n < MessageLengthMin || n > MessageLengthMax ||
			(f.checkDest && seq&^MessageSeqMask != MessageDest) {
			f.synced = false
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-1] != MessageValueSync {
			f.synced = false
			continue
		}
		crc := uint16(data[n-3])<<8 | uint16(data[n-2])
		if crc != CRC16(data[:n-MessageTrailerSize]) {
			f.synced = false
			continue
		}

		fn(seq, data[MessageHeaderSize:n-MessageTrailerSize])
		data = data[n:]
	}
	return start - len(data), resynced
}

func indexSync(data []byte) int {
	for i, b := range data {
		if b == MessageValueSync {
			return i
		}
	}
	return -1
}

// AppendFrame writes one frame with the given sequence into output.
// payload encodes the frame body; it may be nil for an ACK.
func AppendFrame(output OutputBuffer, seq uint8, payload func(output OutputBuffer)) error {
	start := output.CurPosition()
	output.Output([]byte{0, seq})
	if payload != nil {
		payload(output)
	}

	n := len(output.DataSince(start)) + MessageTrailerSize
	if n > MessageLengthMax {
		output.Truncate(start)
		return ErrFrameTooLong
	}
	output.Update(start, uint8(n))

	crc := CRC16(output.DataSince(start))
	output.Output([]byte{byte(crc >> 8), byte(crc), MessageValueSync})
	return nil
}

// ScanFrames calls fn for each valid frame in data and returns the number
// of bytes consumed. Bytes before the first sync after an invalid frame
// are skipped.
func ScanFrames(data []byte, fn func(seq uint8, payload []byte)) int {
	f := framer{synced: true}
	n, _ := f.scan(data, fn)
	return n
}
