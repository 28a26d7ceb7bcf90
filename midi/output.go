package midi

import (
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-rhythm/debug"
	"go-rhythm/sequencer"
)

// SendFunc writes one message to a port, as returned by gomidi.SendTo
type SendFunc func(msg gomidi.Message) error

// Output is a sequencer.Sink that plays fire events as MIDI notes.
// A retriggered note is ended before it starts again, and Release ends
// everything that is still sounding.
type Output struct {
	mu       sync.Mutex
	send     SendFunc
	port     drivers.Out
	channel  uint8
	set      SoundSet
	sounding map[uint8]bool
}

var _ sequencer.Sink = (*Output)(nil)

// NewOutput creates a sink writing to send on channel (1-16)
func NewOutput(send SendFunc, channel int, set SoundSet) *Output {
	return &Output{
		send:     send,
		channel:  wireChannel(channel),
		set:      set,
		sounding: make(map[uint8]bool),
	}
}

// OpenOutput opens the named output port. An empty name picks the first port.
func OpenOutput(portName string, channel int, set SoundSet) (*Output, error) {
	port, err := FindOutPort(portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open midi output "+port.String()))
	}
	o := NewOutput(send, channel, set)
	o.port = port
	debug.Log("midi", "opened %q ch=%d set=%s", port.String(), channel, set.Name)
	return o, nil
}

// Fire implements sequencer.Sink
func (o *Output) Fire(ev sequencer.FireEvent) {
	note := o.set.Note(ev.Voice)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sounding[note] {
		o.write(Event{Type: NoteOff, Channel: o.channel, Note: note})
	}
	o.write(Event{Type: NoteOn, Channel: o.channel, Note: note, Velocity: Velocity(ev.Level)})
	o.sounding[note] = true
}

// Release implements sequencer.Sink
func (o *Output) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for note := range o.sounding {
		o.write(Event{Type: NoteOff, Channel: o.channel, Note: note})
		delete(o.sounding, note)
	}
	o.write(Event{Type: CC, Channel: o.channel, Note: CCAllSoundOff})
	o.write(Event{Type: CC, Channel: o.channel, Note: CCAllNotesOff})
}

// SetSoundSet switches the voice mapping, ending notes from the old set
func (o *Output) SetSoundSet(set SoundSet) {
	o.Release()
	o.mu.Lock()
	o.set = set
	o.mu.Unlock()
}

// Close releases sounding notes and closes the port if this output opened it
func (o *Output) Close() error {
	o.Release()
	if o.port == nil {
		return nil
	}
	if err := o.port.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("close midi output"))
	}
	return nil
}

func (o *Output) write(e Event) {
	if o.send == nil {
		return
	}
	if err := o.send(e.Message()); err != nil {
		debug.LogEvery(32, "midi", "send %x failed: %v", e.Type, err)
	}
}

func wireChannel(channel int) uint8 {
	if channel < 1 {
		channel = 1
	}
	if channel > 16 {
		channel = 16
	}
	return uint8(channel - 1)
}
