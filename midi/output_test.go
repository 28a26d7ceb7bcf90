package midi

import (
	"errors"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-rhythm/sequencer"
)

type wire struct {
	events []Event
	fail   bool
}

func (w *wire) send(msg gomidi.Message) error {
	if w.fail {
		return errors.New("port gone")
	}
	if e, ok := Decode(msg); ok {
		w.events = append(w.events, e)
	}
	return nil
}

func TestOutputFire(t *testing.T) {
	w := &wire{}
	out := NewOutput(w.send, 10, GetSoundSet("gm"))

	out.Fire(sequencer.FireEvent{Voice: 1, Level: 1})
	if len(w.events) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(w.events))
	}
	got := w.events[0]
	if got.Type != NoteOn || got.Channel != 9 || got.Note != 38 || got.Velocity != 127 {
		t.Errorf("Unexpected message %+v", got)
	}
}

func TestOutputRetriggerEndsPreviousNote(t *testing.T) {
	w := &wire{}
	out := NewOutput(w.send, 1, GetSoundSet("click"))

	out.Fire(sequencer.FireEvent{Voice: 0, Level: 0.75})
	out.Fire(sequencer.FireEvent{Voice: 0, Level: 0.45})

	if len(w.events) != 3 {
		t.Fatalf("Expected on/off/on, got %+v", w.events)
	}
	if w.events[1].Type != NoteOff || w.events[1].Note != w.events[0].Note {
		t.Errorf("Second message should end the first note, got %+v", w.events[1])
	}
	if w.events[2].Velocity >= w.events[0].Velocity {
		t.Errorf("Soft cell velocity %d not below normal %d", w.events[2].Velocity, w.events[0].Velocity)
	}
}

func TestOutputRelease(t *testing.T) {
	w := &wire{}
	out := NewOutput(w.send, 1, GetSoundSet("gm"))
	out.Fire(sequencer.FireEvent{Voice: 0, Level: 1})
	out.Fire(sequencer.FireEvent{Voice: 2, Level: 1})
	w.events = nil

	out.Release()

	offs := 0
	var ccs []uint8
	for _, e := range w.events {
		switch e.Type {
		case NoteOff:
			offs++
		case CC:
			ccs = append(ccs, e.Note)
		}
	}
	if offs != 2 {
		t.Errorf("Expected 2 note offs, got %d", offs)
	}
	if len(ccs) != 2 || ccs[0] != CCAllSoundOff || ccs[1] != CCAllNotesOff {
		t.Errorf("Release CCs = %v", ccs)
	}

	w.events = nil
	out.Release()
	for _, e := range w.events {
		if e.Type == NoteOff {
			t.Error("Second release repeated note offs")
		}
	}
}

func TestOutputSendErrorDoesNotPanic(t *testing.T) {
	w := &wire{fail: true}
	out := NewOutput(w.send, 1, GetSoundSet("gm"))
	out.Fire(sequencer.FireEvent{Voice: 0, Level: 1})
	out.Release()
}

func TestOutputAsControllerSink(t *testing.T) {
	w := &wire{}
	out := NewOutput(w.send, 1, GetSoundSet("click"))
	mt := sequencer.NewManualTime(epoch)
	p := sequencer.NewController(mt, out)
	l, err := sequencer.NewLayer("click", 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.UpsertLayer(l); err != nil {
		t.Fatal(err)
	}
	p.Start()
	p.Poll()
	p.Stop()

	var ons, ccs int
	for _, e := range w.events {
		switch e.Type {
		case NoteOn:
			ons++
		case CC:
			ccs++
		}
	}
	if ons != 1 || ccs != 2 {
		t.Errorf("Expected 1 note and a release, got ons=%d ccs=%d", ons, ccs)
	}
}

func TestVelocity(t *testing.T) {
	tests := []struct {
		level float64
		want  uint8
	}{
		{1, 127},
		{0, 1},
		{0.5, 64},
		{2, 127},
	}
	for _, tt := range tests {
		if got := Velocity(tt.level); got != tt.want {
			t.Errorf("Velocity(%v) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestEventRoundTrip(t *testing.T) {
	in := Event{Type: CC, Channel: 3, Note: CCAllNotesOff, Velocity: 0}
	out, ok := Decode(in.Message())
	if !ok || out != in {
		t.Errorf("Decode(%+v.Message()) = %+v, %v", in, out, ok)
	}
}
