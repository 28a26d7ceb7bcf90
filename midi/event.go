package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Controller numbers sent on release
const (
	CCAllSoundOff uint8 = 120
	CCAllNotesOff uint8 = 123
)

// Event is one outgoing channel message. For CC, Note holds the
// controller number and Velocity the value.
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 0-15
	Note     uint8
	Velocity uint8
}

// Message encodes the event for the wire
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}

// Decode turns a channel message back into an Event. A NoteOn with
// velocity 0 decodes as NoteOff.
func Decode(msg gomidi.Message) (Event, bool) {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Type: NoteOn, Channel: ch, Note: key, Velocity: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Type: NoteOff, Channel: ch, Note: key}, true
	case msg.GetControlChange(&ch, &cc, &val):
		return Event{Type: CC, Channel: ch, Note: cc, Velocity: val}, true
	}
	return Event{}, false
}

// Velocity maps a 0-1 fire level to a MIDI velocity. Anything that fires
// gets at least 1 so it never reads as a note off.
func Velocity(level float64) uint8 {
	v := int(level*127 + 0.5)
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
