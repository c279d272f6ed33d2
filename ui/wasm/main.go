//go:build js && wasm

// Command wasm is the browser side of the remote UI: a WebSerial page
// calls these helpers to build frames, split the incoming byte stream
// and decode instrument state.
package main

import (
	"encoding/hex"
	"syscall/js"

	"freqgen/core"
	"freqgen/protocol"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("freqgenWasm", js.ValueOf(map[string]interface{}{
		"crc16":             js.FuncOf(crc16Wrapper),
		"encodeIdentify":    js.FuncOf(encodeIdentifyWrapper),
		"encodeSetPosition": js.FuncOf(encodeSetPositionWrapper),
		"encodeGetState":    js.FuncOf(encodeGetStateWrapper),
		"parseFrames":       js.FuncOf(parseFramesWrapper),
		"decodeState":       js.FuncOf(decodeStateWrapper),
		"decodeIdentify":    js.FuncOf(decodeIdentifyWrapper),
		"frequencyAt":       js.FuncOf(frequencyAtWrapper),
		"positionFor":       js.FuncOf(positionForWrapper),
		"formatOutput":      js.FuncOf(formatOutputWrapper),
		"nextSequence":      js.FuncOf(nextSequenceWrapper),
		"version":           protocol.Version,
		"positionMin":       int(core.PositionMin),
		"positionMax":       int(core.PositionMax),
	}))

	// Keep the program running
	select {}
}

// frame builds one framed command as a hex string
func frame(seq uint8, cmdID uint16, args func(output protocol.OutputBuffer)) interface{} {
	out := protocol.NewScratchOutput()
	err := protocol.AppendFrame(out, seq, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(hex.EncodeToString(out.Result()))
}

// crc16Wrapper calculates CRC16 checksum
// Args: hexString (string)
// Returns: number (uint16)
func crc16Wrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf(0)
	}
	return js.ValueOf(int(protocol.CRC16(data)))
}

// encodeIdentifyWrapper builds an identify request. The identify ID is
// fixed so the descriptor can be fetched before anything else is known.
// Args: seq, offset, count
// Returns: hex string of the frame
func encodeIdentifyWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("error: missing arguments")
	}
	offset, count := uint32(args[1].Int()), uint32(args[2].Int())
	return frame(uint8(args[0].Int()), 1, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, count)
	})
}

// encodeSetPositionWrapper builds a set_position command
// Args: seq, cmdID (from the descriptor), position
// Returns: hex string of the frame
func encodeSetPositionWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("error: missing arguments")
	}
	position := int32(args[2].Int())
	return frame(uint8(args[0].Int()), uint16(args[1].Int()), func(output protocol.OutputBuffer) {
		protocol.EncodeVLQInt(output, position)
	})
}

// encodeGetStateWrapper builds a get_state command
// Args: seq, cmdID (from the descriptor)
// Returns: hex string of the frame
func encodeGetStateWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: missing arguments")
	}
	return frame(uint8(args[0].Int()), uint16(args[1].Int()), nil)
}

// parseFramesWrapper splits received bytes into frames
// Args: hexString (string)
// Returns: {consumed: number, frames: [{sequence, cmdID, ack, data (hex)}], error}
func parseFramesWrapper(this js.Value, args []js.Value) interface{} {
	result := map[string]interface{}{"consumed": 0, "frames": []interface{}{}}
	if len(args) < 1 {
		result["error"] = "missing hex string argument"
		return js.ValueOf(result)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		result["error"] = "invalid hex string: " + err.Error()
		return js.ValueOf(result)
	}

	var frames []interface{}
	consumed := protocol.ScanFrames(data, func(seq uint8, payload []byte) {
		f := map[string]interface{}{
			"sequence": int(seq),
			"ack":      len(payload) == 0,
			"cmdID":    -1,
			"data":     "",
		}
		if len(payload) > 0 {
			rest := payload
			if id, err := protocol.DecodeVLQUint(&rest); err == nil {
				f["cmdID"] = int(id)
				f["data"] = hex.EncodeToString(rest)
			}
		}
		frames = append(frames, f)
	})
	result["consumed"] = consumed
	if frames != nil {
		result["frames"] = frames
	}
	return js.ValueOf(result)
}

// decodeStateWrapper decodes ui_state arguments
// Args: dataHex (string)
// Returns: {position, output, input, error}
func decodeStateWrapper(this js.Value, args []js.Value) interface{} {
	result := make(map[string]interface{})
	if len(args) < 1 {
		result["error"] = "missing hex string argument"
		return js.ValueOf(result)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		result["error"] = "invalid hex string: " + err.Error()
		return js.ValueOf(result)
	}

	position, err := protocol.DecodeVLQInt(&data)
	if err != nil {
		result["error"] = err.Error()
		return js.ValueOf(result)
	}
	output, err := protocol.DecodeVLQString(&data)
	if err != nil {
		result["error"] = err.Error()
		return js.ValueOf(result)
	}
	input, err := protocol.DecodeVLQString(&data)
	if err != nil {
		result["error"] = err.Error()
		return js.ValueOf(result)
	}
	result["position"] = int(position)
	result["output"] = output
	result["input"] = input
	return js.ValueOf(result)
}

// decodeIdentifyWrapper decodes identify_response arguments
// Args: dataHex (string)
// Returns: {offset, data (hex), error}
func decodeIdentifyWrapper(this js.Value, args []js.Value) interface{} {
	result := make(map[string]interface{})
	if len(args) < 1 {
		result["error"] = "missing hex string argument"
		return js.ValueOf(result)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		result["error"] = "invalid hex string: " + err.Error()
		return js.ValueOf(result)
	}
	offset, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		result["error"] = err.Error()
		return js.ValueOf(result)
	}
	chunk, err := protocol.DecodeVLQBytes(&data)
	if err != nil {
		result["error"] = err.Error()
		return js.ValueOf(result)
	}
	result["offset"] = int(offset)
	result["data"] = hex.EncodeToString(chunk)
	return js.ValueOf(result)
}

// frequencyAtWrapper returns the table frequency for a slider position,
// clamping out of range positions like the instrument does
func frequencyAtWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	hz, _ := core.Lookup(core.ClampPosition(args[0].Int()))
	return js.ValueOf(hz)
}

// positionForWrapper returns the lowest position reaching a frequency
func positionForWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(int(core.PositionMin))
	}
	return js.ValueOf(int(core.PositionFor(args[0].Float())))
}

// formatOutputWrapper renders the output status line
// Args: pin, hz
func formatOutputWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(core.FormatOutput(core.GPIOPin(args[0].Int()), args[1].Float()))
}

// nextSequenceWrapper returns the sequence number after seq
func nextSequenceWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(int(protocol.MessageDest))
	}
	return js.ValueOf(int(protocol.NextSequence(uint8(args[0].Int()))))
}
