package audio

import (
	"os"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"go-rhythm/debug"
	"go-rhythm/sequencer"
)

// Options controls an offline render
type Options struct {
	SampleRate beep.SampleRate
	Cycles     int
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Cycles < 1 {
		o.Cycles = 1
	}
	return o
}

// Format returns the stereo 16-bit format renders are encoded in
func (o Options) Format() beep.Format {
	o = o.withDefaults()
	return beep.Format{SampleRate: o.SampleRate, NumChannels: 2, Precision: 2}
}

// Bounce renders cycles passes of the schedule into a finite stream of
// exactly cycles × cycle length samples. Each trigger becomes a click
// placed at its offset; clicks that ring past the end are cut.
func Bounce(sched sequencer.Schedule, opts Options) beep.Streamer {
	opts = opts.withDefaults()
	rate := opts.SampleRate
	total := rate.N(time.Duration(opts.Cycles) * sched.CycleLen)

	mixer := &beep.Mixer{}
	mixer.Add(beep.Silence(total))
	for c := 0; c < opts.Cycles; c++ {
		base := time.Duration(c) * sched.CycleLen
		for _, t := range sched.Triggers {
			at := rate.N(base + t.Offset)
			mixer.Add(beep.Seq(
				beep.Silence(at),
				ClickFor(rate, t.Voice, t.State, t.Downbeat),
			))
		}
	}
	debug.Log("audio", "bounce cycles=%d triggers=%d samples=%d", opts.Cycles, len(sched.Triggers)*opts.Cycles, total)
	return beep.Take(total, mixer)
}

// Samples returns the length of a bounce in samples
func Samples(sched sequencer.Schedule, opts Options) int {
	opts = opts.withDefaults()
	return opts.SampleRate.N(time.Duration(opts.Cycles) * sched.CycleLen)
}

// WriteWAV bounces the schedule into a WAV file at path
func WriteWAV(path string, sched sequencer.Schedule, opts Options) error {
	opts = opts.withDefaults()
	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(err, fmsg.With("create wav file"))
	}
	if err := wav.Encode(f, Bounce(sched, opts), opts.Format()); err != nil {
		f.Close()
		return fault.Wrap(err, fmsg.With("encode wav"))
	}
	if err := f.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("close wav file"))
	}
	return nil
}
