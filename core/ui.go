package core

import "sync/atomic"

// RemoteUI is the operator surface: one slider and two text fields.
// Position may be written by the transport between loop passes; the
// loop reads it once per pass.
type RemoteUI interface {
	Position() int8
	SetOutputText(text []byte)
	SetInputText(text []byte)
	Sync()
	Connected() bool
}

// LocalUI is an in-process RemoteUI for the simulator and tests
type LocalUI struct {
	position atomic.Int32
	output   Text
	input    Text
	syncs    uint32
}

// NewLocalUI creates a local UI with the slider at position
func NewLocalUI(position int8) *LocalUI {
	u := &LocalUI{}
	u.position.Store(int32(position))
	return u
}

// SetPosition moves the slider
func (u *LocalUI) SetPosition(p int8) {
	u.position.Store(int32(p))
}

func (u *LocalUI) Position() int8 {
	return int8(u.position.Load())
}

func (u *LocalUI) SetOutputText(text []byte) {
	u.output.Set(text)
}

func (u *LocalUI) SetInputText(text []byte) {
	u.input.Set(text)
}

func (u *LocalUI) Sync() {
	u.syncs++
}

// Connected is always true
func (u *LocalUI) Connected() bool {
	return true
}

// OutputText returns the last output text
func (u *LocalUI) OutputText() string {
	return u.output.String()
}

// InputText returns the last input text
func (u *LocalUI) InputText() string {
	return u.input.String()
}

// Syncs returns how many times Sync ran
func (u *LocalUI) Syncs() uint32 {
	return u.syncs
}
