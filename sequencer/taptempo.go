package sequencer

import (
	"math"
	"time"
)

const (
	// TapBufferSize is how many taps feed one estimate
	TapBufferSize = 4
	// TapStaleAfter drops taps this much older than the newest one
	TapStaleAfter = 3 * time.Second
)

// TapTempo turns a short history of taps into a tempo estimate
type TapTempo struct {
	taps     []time.Time
	min, max int
}

// NewTapTempo accepts estimates inside [BPMMin, BPMMax]
func NewTapTempo() *TapTempo {
	return &TapTempo{
		taps: make([]time.Time, 0, TapBufferSize+1),
		min:  BPMMin,
		max:  BPMMax,
	}
}

// SetRange changes the accepted estimate range
func (t *TapTempo) SetRange(min, max int) {
	if min > max {
		min, max = max, min
	}
	t.min, t.max = min, max
}

// Tap records a tap and returns the estimate it produces. ok is false
// when fewer than two fresh taps remain or the estimate is out of range;
// the tap is kept either way.
func (t *TapTempo) Tap(at time.Time) (bpm int, ok bool) {
	t.taps = append(t.taps, at)
	if len(t.taps) > TapBufferSize {
		t.taps = append(t.taps[:0], t.taps[len(t.taps)-TapBufferSize:]...)
	}
	return t.Estimate(at)
}

// Estimate prunes stale taps relative to now and averages the intervals
func (t *TapTempo) Estimate(now time.Time) (bpm int, ok bool) {
	t.prune(now)
	n := len(t.taps)
	if n < 2 {
		return 0, false
	}
	span := t.taps[n-1].Sub(t.taps[0])
	meanMs := float64(span) / float64(n-1) / float64(time.Millisecond)
	if meanMs <= 0 {
		return 0, false
	}
	bpm = int(math.Round(60000 / meanMs))
	if bpm < t.min || bpm > t.max {
		return bpm, false
	}
	return bpm, true
}

// Taps returns how many taps are buffered
func (t *TapTempo) Taps() int {
	return len(t.taps)
}

// Reset forgets every tap
func (t *TapTempo) Reset() {
	t.taps = t.taps[:0]
}

func (t *TapTempo) prune(now time.Time) {
	keep := t.taps[:0]
	for _, tap := range t.taps {
		if now.Sub(tap) <= TapStaleAfter {
			keep = append(keep, tap)
		}
	}
	t.taps = keep
}
