package sequencer

import (
	"math"
	"testing"
	"time"
)

func newTestClock() (*Clock, *ManualTime) {
	mt := NewManualTime(epoch)
	return NewClock(mt, 120), mt
}

func TestClockFiresInOrder(t *testing.T) {
	c, mt := newTestClock()
	c.Start()

	var order []int
	c.ScheduleAt(30*time.Millisecond, func(time.Duration) { order = append(order, 3) })
	c.ScheduleAt(10*time.Millisecond, func(time.Duration) { order = append(order, 1) })
	c.ScheduleAt(10*time.Millisecond, func(time.Duration) { order = append(order, 2) })

	mt.Advance(5 * time.Millisecond)
	if n := c.Advance(); n != 0 {
		t.Fatalf("Expected nothing due at 5ms, fired %d", n)
	}
	mt.Advance(50 * time.Millisecond)
	if n := c.Advance(); n != 3 {
		t.Fatalf("Expected 3 fires, got %d", n)
	}
	for i, v := range order {
		if v != i+1 {
			t.Fatalf("Fire order = %v", order)
		}
	}
}

func TestClockPastTimeFiresOnNextAdvance(t *testing.T) {
	c, mt := newTestClock()
	c.Start()
	mt.Advance(time.Second)

	var at time.Duration
	c.ScheduleAt(100*time.Millisecond, func(when time.Duration) { at = when })
	if n := c.Advance(); n != 1 {
		t.Fatalf("Expected the past registration to fire, got %d", n)
	}
	if at != 100*time.Millisecond {
		t.Errorf("Callback got %v, want its registered time", at)
	}
}

func TestClockCancel(t *testing.T) {
	c, mt := newTestClock()
	c.Start()

	fired := false
	h := c.ScheduleAt(10*time.Millisecond, func(time.Duration) { fired = true })
	mt.Advance(20 * time.Millisecond)
	if !h.Cancel() {
		t.Fatal("Cancel of a due registration should succeed")
	}
	if h.Cancel() {
		t.Error("Second cancel should report false")
	}
	c.Advance()
	if fired {
		t.Error("Cancelled registration fired")
	}
	if c.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", c.Pending())
	}
}

func TestClockCancelFromCallback(t *testing.T) {
	c, mt := newTestClock()
	c.Start()

	var second Handle
	fired := false
	c.ScheduleAt(10*time.Millisecond, func(time.Duration) { second.Cancel() })
	second = c.ScheduleAt(10*time.Millisecond, func(time.Duration) { fired = true })

	mt.Advance(10 * time.Millisecond)
	c.Advance()
	if fired {
		t.Error("A registration cancelled by an earlier callback still fired")
	}
}

func TestClockStopCancelsEverything(t *testing.T) {
	c, mt := newTestClock()
	c.Start()

	fired := 0
	for i := 1; i <= 5; i++ {
		c.ScheduleAt(time.Duration(i)*time.Second, func(time.Duration) { fired++ })
	}
	if n := c.Stop(); n != 5 {
		t.Errorf("Stop cancelled %d, want 5", n)
	}
	mt.Advance(time.Minute)
	if n := c.Advance(); n != 0 || fired != 0 {
		t.Errorf("Stopped clock fired %d/%d", n, fired)
	}
	if c.Running() {
		t.Error("Clock still running after Stop")
	}
}

func TestClockStartIsIdempotent(t *testing.T) {
	c, mt := newTestClock()
	if !c.Start() {
		t.Fatal("First Start should report true")
	}
	mt.Advance(time.Second)
	if c.Start() {
		t.Error("Second Start should report false")
	}
	if got := c.Now(); got != time.Second {
		t.Errorf("Now = %v after redundant Start, want 1s", got)
	}
}

func TestClockBeatPositionAcrossTempoChange(t *testing.T) {
	c, mt := newTestClock()
	c.Start()

	mt.Advance(time.Second) // 2 beats at 120
	if got := c.BeatPosition(); math.Abs(got-2) > 1e-9 {
		t.Fatalf("BeatPosition = %v, want 2", got)
	}
	c.SetTempo(60)
	mt.Advance(time.Second) // 1 more beat at 60
	if got := c.BeatPosition(); math.Abs(got-3) > 1e-9 {
		t.Errorf("BeatPosition = %v, want 3", got)
	}
}

func TestClockTempoClamped(t *testing.T) {
	c, _ := newTestClock()
	if got := c.SetTempo(10); got != BPMMin {
		t.Errorf("SetTempo(10) = %d, want %d", got, BPMMin)
	}
	if got := c.SetTempo(1000); got != BPMMax {
		t.Errorf("SetTempo(1000) = %d, want %d", got, BPMMax)
	}
	if got := c.SetSwing(-1); got != 0 {
		t.Errorf("SetSwing(-1) = %v, want 0", got)
	}
}
