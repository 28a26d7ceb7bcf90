package sequencer

import (
	"container/heap"
	"time"
)

// Tempo bounds accepted by the transport
const (
	BPMMin       = 40
	BPMMax       = 240
	DefaultTempo = 120
)

// TransportState is owned by the Clock
type TransportState struct {
	TempoBPM int
	Running  bool
	Swing    float64
}

// ClampTempo pins bpm into [BPMMin, BPMMax]
func ClampTempo(bpm int) int {
	if bpm < BPMMin {
		return BPMMin
	}
	if bpm > BPMMax {
		return BPMMax
	}
	return bpm
}

type registration struct {
	seq   uint64
	at    time.Duration
	fn    func(at time.Duration)
	index int // heap position, -1 once out of the queue
	done  bool
}

// registrations is a min-heap ordered by time, then registration order
type registrations []*registration

func (q registrations) Len() int { return len(q) }

func (q registrations) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q registrations) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *registrations) Push(x any) {
	r := x.(*registration)
	r.index = len(*q)
	*q = append(*q, r)
}

func (q *registrations) Pop() any {
	old := *q
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*q = old[:n-1]
	return r
}

// Handle refers to one scheduled callback
type Handle struct {
	c *Clock
	r *registration
}

// Cancel removes the registration. It returns false if the callback
// already fired or was cancelled before.
func (h Handle) Cancel() bool {
	if h.r == nil {
		return false
	}
	return h.c.cancel(h.r)
}

// Pending reports whether the callback can still fire
func (h Handle) Pending() bool {
	return h.r != nil && !h.r.done
}

// At returns the transport time the callback was registered for
func (h Handle) At() time.Duration {
	if h.r == nil {
		return 0
	}
	return h.r.at
}

// ID identifies the registration
func (h Handle) ID() uint64 {
	if h.r == nil {
		return 0
	}
	return h.r.seq
}

// Clock is the source of transport time and owner of pending callbacks.
// It is not safe for concurrent use; the Controller serializes access.
type Clock struct {
	src   TimeSource
	state TransportState

	origin  time.Time     // wall time of transport zero
	stopped time.Duration // position held while stopped
	horizon time.Duration // transport time of the last Advance, -1 before any

	// Beat integration, re-anchored on every tempo change
	beatBase float64
	tempoAt  time.Duration

	queue registrations
	seq   uint64
}

// NewClock creates a stopped clock at the given tempo
func NewClock(src TimeSource, bpm int) *Clock {
	if src == nil {
		src = SystemTime{}
	}
	return &Clock{
		src:     src,
		state:   TransportState{TempoBPM: ClampTempo(bpm)},
		horizon: -1,
	}
}

// Start begins advancing from position zero. Starting a running clock is a no-op.
func (c *Clock) Start() bool {
	if c.state.Running {
		return false
	}
	c.state.Running = true
	c.origin = c.src.Now()
	c.stopped = 0
	c.horizon = -1
	c.beatBase = 0
	c.tempoAt = 0
	return true
}

// Stop halts the transport and cancels every pending callback.
// It returns how many callbacks were cancelled.
func (c *Clock) Stop() int {
	n := c.cancelAll()
	if !c.state.Running {
		return n
	}
	now := c.Now()
	c.beatBase = c.beatsAt(now)
	c.tempoAt = now
	c.stopped = now
	c.state.Running = false
	return n
}

// Running reports whether the transport advances
func (c *Clock) Running() bool {
	return c.state.Running
}

// Now returns the current transport time
func (c *Clock) Now() time.Duration {
	if !c.state.Running {
		return c.stopped
	}
	d := c.src.Now().Sub(c.origin)
	if d < 0 {
		return 0
	}
	return d
}

// ScheduleAt registers fn to run once when transport time reaches at.
// A time already in the past fires on the next Advance.
func (c *Clock) ScheduleAt(at time.Duration, fn func(at time.Duration)) Handle {
	c.seq++
	r := &registration{seq: c.seq, at: at, fn: fn}
	heap.Push(&c.queue, r)
	return Handle{c: c, r: r}
}

// Advance fires every due callback in time order and returns the count.
// Callbacks may schedule or cancel; a cancelled registration never fires,
// even when it was already due.
func (c *Clock) Advance() int {
	if !c.state.Running {
		return 0
	}
	now := c.Now()
	fired := 0
	for len(c.queue) > 0 && c.queue[0].at <= now {
		r := heap.Pop(&c.queue).(*registration)
		r.done = true
		r.fn(r.at)
		fired++
		if !c.state.Running {
			return fired
		}
	}
	c.horizon = now
	return fired
}

// NextDue returns the time of the earliest pending callback
func (c *Clock) NextDue() (time.Duration, bool) {
	if len(c.queue) == 0 {
		return 0, false
	}
	return c.queue[0].at, true
}

// Until returns the wall time left before transport time at
func (c *Clock) Until(at time.Duration) time.Duration {
	if !c.state.Running {
		return 0
	}
	d := at - c.Now()
	if d < 0 {
		return 0
	}
	return d
}

// Horizon returns the transport time up to which callbacks were dispatched
func (c *Clock) Horizon() time.Duration {
	return c.horizon
}

// Pending returns the number of registered callbacks
func (c *Clock) Pending() int {
	return len(c.queue)
}

// SetTempo changes the tempo and returns the value applied after clamping.
// Beats already elapsed are kept; only future advancement changes rate.
func (c *Clock) SetTempo(bpm int) int {
	bpm = ClampTempo(bpm)
	if c.state.Running {
		now := c.Now()
		c.beatBase = c.beatsAt(now)
		c.tempoAt = now
	}
	c.state.TempoBPM = bpm
	return bpm
}

// Tempo returns the current tempo in BPM
func (c *Clock) Tempo() int {
	return c.state.TempoBPM
}

// SetSwing changes the swing amount and returns the value applied after clamping
func (c *Clock) SetSwing(amount float64) float64 {
	c.state.Swing = clampSwing(amount)
	return c.state.Swing
}

// Swing returns the current swing amount
func (c *Clock) Swing() float64 {
	return c.state.Swing
}

// BeatPosition returns elapsed quarter-note beats
func (c *Clock) BeatPosition() float64 {
	return c.beatsAt(c.Now())
}

// State returns a copy of the transport state
func (c *Clock) State() TransportState {
	return c.state
}

func (c *Clock) beatsAt(t time.Duration) float64 {
	beat := BeatDuration(c.state.TempoBPM)
	if beat <= 0 {
		return c.beatBase
	}
	return c.beatBase + float64(t-c.tempoAt)/float64(beat)
}

func (c *Clock) cancel(r *registration) bool {
	if r.done {
		return false
	}
	r.done = true
	if r.index >= 0 {
		heap.Remove(&c.queue, r.index)
	}
	return true
}

func (c *Clock) cancelAll() int {
	n := len(c.queue)
	for _, r := range c.queue {
		r.done = true
		r.index = -1
	}
	c.queue = nil
	return n
}
