package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"go-rhythm/sequencer"
)

func fourOnFloor(t *testing.T) sequencer.Schedule {
	t.Helper()
	l, err := sequencer.NewLayer("four", 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	return sequencer.Plan([]*sequencer.Layer{l}, 120, 0)
}

func drain(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 1024)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

// TestBounceLength verifies the render covers exactly the requested cycles
func TestBounceLength(t *testing.T) {
	sched := fourOnFloor(t)
	opts := Options{SampleRate: 8000, Cycles: 2}
	got := drain(Bounce(sched, opts))
	want := opts.SampleRate.N(2 * sched.CycleLen)
	if len(got) != want {
		t.Errorf("Expected %d samples, got %d", want, len(got))
	}
	if Samples(sched, opts) != want {
		t.Errorf("Samples() = %d, want %d", Samples(sched, opts), want)
	}
}

// TestBounceClickPositions verifies sound starts at each trigger and
// the gaps between are silent
func TestBounceClickPositions(t *testing.T) {
	sched := fourOnFloor(t)
	rate := beep.SampleRate(8000)
	got := drain(Bounce(sched, Options{SampleRate: rate, Cycles: 1}))

	window := rate.N(5 * time.Millisecond)
	for _, tr := range sched.Triggers {
		at := rate.N(tr.Offset)
		if energy(got, at, at+window) == 0 {
			t.Errorf("No click at %v", tr.Offset)
		}
	}
	gap := rate.N(250 * time.Millisecond)
	if e := energy(got, gap, gap+window); e != 0 {
		t.Errorf("Expected silence between beats, energy %f", e)
	}
}

// TestWriteWAV verifies the file decodes back with the same format and length
func TestWriteWAV(t *testing.T) {
	sched := fourOnFloor(t)
	opts := Options{SampleRate: 8000, Cycles: 1}
	path := filepath.Join(t.TempDir(), "four.wav")
	if err := WriteWAV(path, sched, opts); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, format, err := wav.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer s.Close()

	if format.SampleRate != opts.SampleRate || format.NumChannels != 2 {
		t.Errorf("Unexpected format %+v", format)
	}
	if s.Len() != Samples(sched, opts) {
		t.Errorf("Expected %d samples, got %d", Samples(sched, opts), s.Len())
	}
}

func energy(samples [][2]float64, from, to int) float64 {
	sum := 0.0
	for i := from; i < to && i < len(samples); i++ {
		sum += math.Abs(samples[i][0])
	}
	return sum
}
