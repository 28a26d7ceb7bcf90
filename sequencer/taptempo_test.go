package sequencer

import (
	"testing"
	"time"
)

func tapAt(tt *TapTempo, ms int) (int, bool) {
	return tt.Tap(epoch.Add(time.Duration(ms) * time.Millisecond))
}

func TestTapTempoSteadyTaps(t *testing.T) {
	tt := NewTapTempo()
	if _, ok := tapAt(tt, 0); ok {
		t.Fatal("A single tap must not produce a tempo")
	}
	var bpm int
	var ok bool
	for _, ms := range []int{500, 1000, 1500} {
		bpm, ok = tapAt(tt, ms)
	}
	if !ok || bpm != 120 {
		t.Errorf("Estimate = %d (ok=%v), want 120", bpm, ok)
	}
}

func TestTapTempoStaleTapsReset(t *testing.T) {
	tt := NewTapTempo()
	for _, ms := range []int{0, 500, 1000, 1500} {
		tapAt(tt, ms)
	}
	if _, ok := tapAt(tt, 5000); ok {
		t.Error("Tap after a long pause should not produce an estimate")
	}
	if tt.Taps() != 1 {
		t.Errorf("Taps = %d after stale reset, want 1", tt.Taps())
	}
	if bpm, ok := tapAt(tt, 5600); !ok || bpm != 100 {
		t.Errorf("Estimate = %d (ok=%v), want 100", bpm, ok)
	}
}

func TestTapTempoBufferKeepsNewest(t *testing.T) {
	tt := NewTapTempo()
	// slow taps then fast ones; only the last four count
	for _, ms := range []int{0, 1000, 2000, 2500, 3000, 3500} {
		tapAt(tt, ms)
	}
	if tt.Taps() != TapBufferSize {
		t.Fatalf("Taps = %d, want %d", tt.Taps(), TapBufferSize)
	}
	if bpm, ok := tt.Estimate(epoch.Add(3500 * time.Millisecond)); !ok || bpm != 120 {
		t.Errorf("Estimate = %d (ok=%v), want 120", bpm, ok)
	}
}

func TestTapTempoOutOfRange(t *testing.T) {
	tt := NewTapTempo()
	tapAt(tt, 0)
	bpm, ok := tapAt(tt, 100)
	if ok {
		t.Errorf("600 BPM accepted")
	}
	if bpm != 600 {
		t.Errorf("Reported estimate = %d, want 600", bpm)
	}

	tt.Reset()
	tt.SetRange(300, 700)
	tapAt(tt, 0)
	if bpm, ok := tapAt(tt, 100); !ok || bpm != 600 {
		t.Errorf("With a wider range got %d (ok=%v)", bpm, ok)
	}
}
