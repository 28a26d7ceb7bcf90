package midi

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-rhythm/sequencer"
)

// Resolution of exported files
const TicksPerQuarter = 960

// gateTicks is the length of every exported note (a 64th)
const gateTicks = TicksPerQuarter / 16

// ExportOptions controls an SMF export
type ExportOptions struct {
	Cycles  int // passes of the schedule to write, at least 1
	Channel int // 1-16
	Set     SoundSet
}

type timed struct {
	tick uint32
	off  bool
	msg  gomidi.Message
}

// ExportSMF writes cycles passes of the schedule as a format 1 Standard
// MIDI File: a tempo track followed by one track per layer.
func ExportSMF(w io.Writer, sched sequencer.Schedule, bpm int, opts ExportOptions) error {
	sm, err := BuildSMF(sched, bpm, opts)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fault.Wrap(err, fmsg.With("write midi file"))
	}
	return nil
}

// ExportFile is ExportSMF into a new file at path
func ExportFile(path string, sched sequencer.Schedule, bpm int, opts ExportOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(err, fmsg.With("create midi file"))
	}
	if err := ExportSMF(f, sched, bpm, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("close midi file"))
	}
	return nil
}

// BuildSMF renders the schedule into an in-memory SMF
func BuildSMF(sched sequencer.Schedule, bpm int, opts ExportOptions) (*smf.SMF, error) {
	if opts.Cycles < 1 {
		opts.Cycles = 1
	}
	if opts.Set.Name == "" {
		opts.Set = GetSoundSet(DefaultSoundSet)
	}
	if sched.BeatDur <= 0 {
		return nil, fault.New("schedule has no tempo", fmsg.With("nothing to export"))
	}
	ch := wireChannel(opts.Channel)

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	total := toTicks(time.Duration(opts.Cycles)*sched.CycleLen, sched.BeatDur)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(float64(bpm)))
	tempo.Close(total)
	if err := sm.Add(tempo); err != nil {
		return nil, fault.Wrap(err, fmsg.With("add tempo track"))
	}

	var order []string
	byLayer := make(map[string][]timed)
	for c := 0; c < opts.Cycles; c++ {
		base := time.Duration(c) * sched.CycleLen
		for _, t := range sched.Triggers {
			if _, ok := byLayer[t.LayerID]; !ok {
				order = append(order, t.LayerID)
			}
			start := toTicks(base+t.Offset, sched.BeatDur)
			note := opts.Set.Note(t.Voice)
			level := t.State.Level(t.Downbeat)
			byLayer[t.LayerID] = append(byLayer[t.LayerID],
				timed{tick: start, msg: gomidi.NoteOn(ch, note, Velocity(level))},
				timed{tick: start + gateTicks, off: true, msg: gomidi.NoteOff(ch, note)},
			)
		}
	}

	for _, id := range order {
		events := byLayer[id]
		// offs first so a retrigger on the same tick is not swallowed
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].tick != events[j].tick {
				return events[i].tick < events[j].tick
			}
			return events[i].off && !events[j].off
		})

		var tr smf.Track
		tr.Add(0, smf.MetaTrackSequenceName(id))
		var last uint32
		for _, ev := range events {
			tr.Add(ev.tick-last, ev.msg)
			last = ev.tick
		}
		end := uint32(0)
		if total > last {
			end = total - last
		}
		tr.Close(end)
		if err := sm.Add(tr); err != nil {
			return nil, fault.Wrap(err, fmsg.With("add track "+id))
		}
	}
	return sm, nil
}

func toTicks(d, beat time.Duration) uint32 {
	return uint32((int64(d)*TicksPerQuarter + int64(beat)/2) / int64(beat))
}
