package sequencer

import (
	"time"

	"go-rhythm/debug"
)

// Policy selects how a live edit is reconciled with playback
type Policy int

const (
	// RestartFromZero cancels everything and restarts the cycle at the edit
	RestartFromZero Policy = iota
	// PreservePhase keeps the current position inside the cycle
	PreservePhase
)

func (p Policy) String() string {
	switch p {
	case RestartFromZero:
		return "restart"
	case PreservePhase:
		return "preserve-phase"
	}
	return "unknown"
}

// ParsePolicy accepts the names produced by String
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "restart", "restart-from-zero":
		return RestartFromZero, nil
	case "preserve-phase", "phase":
		return PreservePhase, nil
	}
	return RestartFromZero, invalid("unknown reschedule policy %q", s)
}

// Phase is the coordinator lifecycle
type Phase int

const (
	Idle Phase = iota
	Scheduled
	Playing
	Rescheduled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Playing:
		return "playing"
	case Rescheduled:
		return "rescheduled"
	}
	return "unknown"
}

// Coordinator owns the active layers and every registration made for them.
// All layers share one cycle; a boundary callback expands each next pass.
type Coordinator struct {
	clock  *Clock
	sink   Sink
	layers []*Layer
	phase  Phase

	plan       Schedule
	cycle      int64
	cycleStart time.Duration
	pending    map[uint64]pendingFire
}

// cellKey names one cell of one layer within a pass
type cellKey struct {
	layer string
	cell  int
}

type pendingFire struct {
	h      Handle
	key    cellKey
	isCell bool
}

// NewCoordinator creates an idle coordinator scheduling on clock
func NewCoordinator(clock *Clock, sink Sink) *Coordinator {
	c := &Coordinator{
		clock:   clock,
		sink:    sink,
		pending: make(map[uint64]pendingFire),
	}
	c.replan()
	return c
}

// Phase returns the lifecycle state
func (c *Coordinator) Phase() Phase {
	return c.phase
}

// Plan returns the schedule for the current cycle
func (c *Coordinator) Plan() Schedule {
	return c.plan
}

// Pending returns the number of live registrations
func (c *Coordinator) Pending() int {
	return len(c.pending)
}

// Layers returns copies of the active layers in order
func (c *Coordinator) Layers() []*Layer {
	out := make([]*Layer, len(c.layers))
	for i, l := range c.layers {
		out[i] = l.Clone()
	}
	return out
}

// Layer returns a copy of one layer
func (c *Coordinator) Layer(id string) (*Layer, bool) {
	if i := c.find(id); i >= 0 {
		return c.layers[i].Clone(), true
	}
	return nil, false
}

// Start registers the first pass at the current transport time
func (c *Coordinator) Start() bool {
	if c.phase != Idle {
		return false
	}
	c.clock.Start()
	c.cycle = 0
	c.replan()
	c.cycleStart = c.clock.Now()
	c.schedulePass(c.cycleStart, c.cycleStart, true)
	c.phase = Scheduled
	debug.Log("coord", "start layers=%d cycle=%v pending=%d", len(c.layers), c.plan.CycleLen, len(c.pending))
	return true
}

// Stop cancels every registration, halts the clock and releases the sink
func (c *Coordinator) Stop() bool {
	if c.phase == Idle {
		return false
	}
	n := c.cancelAll()
	c.clock.Stop()
	c.phase = Idle
	if c.sink != nil {
		c.sink.Release()
	}
	debug.Log("coord", "stop cancelled=%d", n)
	return true
}

// Upsert adds a layer or replaces the one with the same id
func (c *Coordinator) Upsert(l *Layer, policy Policy) error {
	if l == nil {
		return invalid("layer is nil")
	}
	if err := l.Validate(); err != nil {
		return err
	}
	work := l.Clone()
	if i := c.find(l.ID); i >= 0 {
		c.layers[i] = work
	} else {
		c.layers = append(c.layers, work)
	}
	c.Reconcile(policy)
	return nil
}

// Replace swaps in a whole new layer set and reconciles once
func (c *Coordinator) Replace(layers []*Layer, policy Policy) error {
	seen := make(map[string]bool, len(layers))
	work := make([]*Layer, 0, len(layers))
	for _, l := range layers {
		if l == nil {
			return invalid("layer is nil")
		}
		if err := l.Validate(); err != nil {
			return err
		}
		if seen[l.ID] {
			return invalid("duplicate layer id %q", l.ID)
		}
		seen[l.ID] = true
		work = append(work, l.Clone())
	}
	c.layers = work
	c.Reconcile(policy)
	return nil
}

// Remove drops a layer. It returns false for unknown ids.
func (c *Coordinator) Remove(id string, policy Policy) bool {
	i := c.find(id)
	if i < 0 {
		return false
	}
	c.layers = append(c.layers[:i], c.layers[i+1:]...)
	c.Reconcile(policy)
	return true
}

// Edit applies fn to a copy of a layer and swaps it in only if fn and
// validation succeed, so a bad edit never disturbs playback.
func (c *Coordinator) Edit(id string, fn func(*Layer) error, policy Policy) error {
	i := c.find(id)
	if i < 0 {
		return invalid("unknown layer %q", id)
	}
	work := c.layers[i].Clone()
	if err := fn(work); err != nil {
		return err
	}
	work.ID = id
	if err := work.Validate(); err != nil {
		return err
	}
	c.layers[i] = work
	c.Reconcile(policy)
	return nil
}

// Reconcile re-expands the schedule after an edit. While idle it only
// recomputes the plan. Anything already due is dispatched first, and
// cancellation always completes before anything new is registered.
//
// Under PreservePhase a cell of the interrupted pass fires exactly once:
// cells still waiting are re-registered no earlier than now, cells that
// already fired are never registered again wherever the edit moves them.
func (c *Coordinator) Reconcile(policy Policy) {
	if c.phase == Idle {
		c.replan()
		return
	}

	c.clock.Advance()
	now := c.clock.Now()
	oldLen := c.plan.CycleLen
	frac := 0.0
	if oldLen > 0 {
		elapsed := now - c.cycleStart
		if elapsed < 0 {
			elapsed = 0
		}
		c.cycle += int64(elapsed / oldLen)
		frac = float64(elapsed%oldLen) / float64(oldLen)
	}

	// true: already fired this pass, false: still waiting
	played := make(map[cellKey]bool, len(c.plan.Triggers))
	for _, t := range c.plan.Triggers {
		played[cellKey{t.LayerID, t.Cell}] = true
	}
	for _, pf := range c.pending {
		if pf.isCell {
			played[pf.key] = false
		}
	}

	cancelled := c.cancelAll()
	c.replan()

	switch policy {
	case PreservePhase:
		start := now - scale(c.plan.CycleLen, frac)
		c.cycleStart = start
		c.resumePass(start, now, played)
	case RestartFromZero:
		c.cycle++
		c.cycleStart = now
		c.schedulePass(now, now, true)
	}
	c.phase = Rescheduled
	debug.Log("coord", "reschedule policy=%s cancelled=%d phase=%.3f cycle=%v pending=%d",
		policy, cancelled, frac, c.plan.CycleLen, len(c.pending))
}

// Position returns the pass number and fractional position inside it
func (c *Coordinator) Position() (int64, float64) {
	if c.phase == Idle || c.plan.CycleLen <= 0 {
		return c.cycle, 0
	}
	elapsed := c.clock.Now() - c.cycleStart
	if elapsed < 0 {
		return c.cycle, 0
	}
	passes := int64(elapsed / c.plan.CycleLen)
	return c.cycle + passes, float64(elapsed%c.plan.CycleLen) / float64(c.plan.CycleLen)
}

func (c *Coordinator) find(id string) int {
	for i, l := range c.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) replan() {
	c.plan = Plan(c.layers, c.clock.Tempo(), c.clock.Swing())
}

// schedulePass registers one pass starting at start, skipping triggers
// before cutoff (and at cutoff unless inclusive), then the next boundary.
func (c *Coordinator) schedulePass(start, cutoff time.Duration, inclusive bool) {
	cycle := c.cycle
	for _, t := range c.plan.Triggers {
		at := start + t.Offset
		if at < cutoff || (at == cutoff && !inclusive) {
			continue
		}
		c.register(at, t, cycle)
	}
	c.registerBoundary(start + c.plan.CycleLen)
}

// resumePass registers the remainder of a pass whose start moved to start.
// Cells that already fired this pass are skipped. Cells still waiting are
// pulled forward to now if the edit moved them behind it; cells the old
// pass never had join only when they still lie ahead.
func (c *Coordinator) resumePass(start, now time.Duration, played map[cellKey]bool) {
	for _, t := range c.plan.Triggers {
		at := start + t.Offset
		done, known := played[cellKey{t.LayerID, t.Cell}]
		switch {
		case done:
			continue
		case known && at < now:
			at = now
		case !known && at < now:
			continue
		}
		c.register(at, t, c.cycle)
	}
	c.registerBoundary(start + c.plan.CycleLen)
}

func (c *Coordinator) register(at time.Duration, t Trigger, cycle int64) {
	var h Handle
	h = c.clock.ScheduleAt(at, func(when time.Duration) {
		delete(c.pending, h.ID())
		c.fire(when, t, cycle)
	})
	c.pending[h.ID()] = pendingFire{h: h, key: cellKey{t.LayerID, t.Cell}, isCell: true}
}

func (c *Coordinator) registerBoundary(at time.Duration) {
	var h Handle
	h = c.clock.ScheduleAt(at, func(when time.Duration) {
		delete(c.pending, h.ID())
		if c.phase == Scheduled || c.phase == Rescheduled {
			c.phase = Playing
		}
		c.cycle++
		c.cycleStart = when
		c.schedulePass(when, when, true)
	})
	c.pending[h.ID()] = pendingFire{h: h}
}

func (c *Coordinator) fire(at time.Duration, t Trigger, cycle int64) {
	if c.phase == Scheduled || c.phase == Rescheduled {
		c.phase = Playing
	}
	ev := FireEvent{
		LayerID:      t.LayerID,
		Cell:         t.Cell,
		Beat:         t.Beat,
		Cycle:        cycle,
		Time:         at,
		State:        t.State,
		Level:        t.State.Level(t.Downbeat),
		Voice:        t.Voice,
		IsCycleStart: t.Cell == 0,
		IsDownbeat:   t.Downbeat,
	}
	if c.sink != nil {
		c.sink.Fire(ev)
	}
	debug.LogEvery(64, "fire", "layer=%s cell=%d t=%v", t.LayerID, t.Cell, at)
}

func (c *Coordinator) cancelAll() int {
	n := 0
	for id, pf := range c.pending {
		if pf.h.Cancel() {
			n++
		}
		delete(c.pending, id)
	}
	return n
}
