package sequencer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go-rhythm/debug"
)

// idleWait bounds how long the dispatch loop sleeps with nothing queued
const idleWait = 50 * time.Millisecond

// Policies picks the reschedule policy for each kind of edit
type Policies struct {
	Tempo   Policy
	Swing   Policy
	Pattern Policy // cell states and subdivision counts
	Layers  Policy // adding, removing and resizing layers
}

// DefaultPolicies keeps phase for continuous edits (tempo, swing) and
// restarts the cycle for discrete pattern and layer edits
func DefaultPolicies() Policies {
	return Policies{
		Tempo:   PreservePhase,
		Swing:   PreservePhase,
		Pattern: RestartFromZero,
		Layers:  RestartFromZero,
	}
}

// Option configures a Controller
type Option func(*Controller)

func WithTempo(bpm int) Option {
	return func(p *Controller) { p.clock.SetTempo(bpm) }
}

func WithSwing(amount float64) Option {
	return func(p *Controller) { p.clock.SetSwing(amount) }
}

func WithPolicies(pol Policies) Option {
	return func(p *Controller) { p.policies = pol }
}

func WithTapRange(min, max int) Option {
	return func(p *Controller) { p.tap.SetRange(min, max) }
}

// Controller is the playback façade used by exercise screens. Every method
// is safe to call from any goroutine; they are serialized onto one lock so
// the engine sees a single control thread.
type Controller struct {
	mu       sync.Mutex
	src      TimeSource
	clock    *Clock
	coord    *Coordinator
	tap      *TapTempo
	policies Policies

	interrupt chan struct{} // wake Run after an edit
}

// NewController creates an idle controller. sink receives every fire event.
func NewController(src TimeSource, sink Sink, opts ...Option) *Controller {
	if src == nil {
		src = SystemTime{}
	}
	clock := NewClock(src, DefaultTempo)
	p := &Controller{
		src:       src,
		clock:     clock,
		tap:       NewTapTempo(),
		policies:  DefaultPolicies(),
		interrupt: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.coord = NewCoordinator(clock, sink)
	return p
}

// Start begins playback. Calling it while playing does nothing.
func (p *Controller) Start() bool {
	p.mu.Lock()
	started := p.coord.Start()
	p.mu.Unlock()
	if started {
		p.wake()
	}
	return started
}

// Stop cancels every pending fire and releases sounding triggers.
// Calling it while stopped does nothing.
func (p *Controller) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coord.Stop()
}

// Close tears the engine down
func (p *Controller) Close() {
	p.Stop()
}

// Playing reports whether the transport runs
func (p *Controller) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.Running()
}

// SetTempo applies a tempo, clamped into [BPMMin, BPMMax], and returns it
func (p *Controller) SetTempo(bpm int) int {
	p.mu.Lock()
	applied := p.setTempoLocked(bpm)
	p.mu.Unlock()
	p.wake()
	return applied
}

func (p *Controller) setTempoLocked(bpm int) int {
	before := p.clock.Tempo()
	applied := p.clock.SetTempo(bpm)
	if applied != bpm {
		debug.Log("ctrl", "tempo %d clamped to %d", bpm, applied)
	}
	if applied != before {
		p.coord.Reconcile(p.policies.Tempo)
	}
	return applied
}

// NudgeTempo moves the tempo by delta under one lock and returns the result
func (p *Controller) NudgeTempo(delta int) int {
	p.mu.Lock()
	applied := p.setTempoLocked(p.clock.Tempo() + delta)
	p.mu.Unlock()
	p.wake()
	return applied
}

// Tempo returns the shared tempo
func (p *Controller) Tempo() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.Tempo()
}

// SetSwing applies a swing amount, clamped into [0,1], and returns it
func (p *Controller) SetSwing(amount float64) float64 {
	p.mu.Lock()
	applied := p.setSwingLocked(amount)
	p.mu.Unlock()
	p.wake()
	return applied
}

// NudgeSwing moves the swing amount by delta under one lock
func (p *Controller) NudgeSwing(delta float64) float64 {
	p.mu.Lock()
	applied := p.setSwingLocked(p.clock.Swing() + delta)
	p.mu.Unlock()
	p.wake()
	return applied
}

func (p *Controller) setSwingLocked(amount float64) float64 {
	before := p.clock.Swing()
	applied := p.clock.SetSwing(amount)
	if applied != before {
		p.coord.Reconcile(p.policies.Swing)
	}
	return applied
}

// Swing returns the swing amount
func (p *Controller) Swing() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.Swing()
}

// UpsertLayer adds a layer or replaces the one with the same id
func (p *Controller) UpsertLayer(l *Layer) error {
	p.mu.Lock()
	err := p.coord.Upsert(l, p.policies.Layers)
	p.mu.Unlock()
	p.report("upsert", err)
	return err
}

// ReplaceLayers swaps the whole layer set in one reschedule. Layer ids
// must be unique; on error nothing changes.
func (p *Controller) ReplaceLayers(layers []*Layer) error {
	p.mu.Lock()
	err := p.coord.Replace(layers, p.policies.Layers)
	p.mu.Unlock()
	p.report("replace", err)
	return err
}

// RemoveLayer drops a layer, returning false for unknown ids
func (p *Controller) RemoveLayer(id string) bool {
	p.mu.Lock()
	ok := p.coord.Remove(id, p.policies.Layers)
	p.mu.Unlock()
	p.wake()
	return ok
}

// SetCellState changes one cell of a layer
func (p *Controller) SetCellState(layerID string, cell int, s CellState) error {
	return p.edit(layerID, p.policies.Pattern, func(l *Layer) error {
		return l.SetCell(cell, s)
	})
}

// ToggleCell moves a cell to its next state and returns it
func (p *Controller) ToggleCell(layerID string, cell int) (CellState, error) {
	var next CellState
	err := p.edit(layerID, p.policies.Pattern, func(l *Layer) error {
		var err error
		next, err = l.ToggleCell(cell)
		return err
	})
	return next, err
}

// ResizeLayer changes the subdivision count of a uniform layer
func (p *Controller) ResizeLayer(layerID string, n int) error {
	return p.edit(layerID, p.policies.Pattern, func(l *Layer) error {
		return l.Resize(n)
	})
}

// SetLayerLength changes the length in beats of a uniform layer
func (p *Controller) SetLayerLength(layerID string, beats float64) error {
	return p.edit(layerID, p.policies.Layers, func(l *Layer) error {
		return l.SetLength(beats)
	})
}

func (p *Controller) edit(layerID string, policy Policy, fn func(*Layer) error) error {
	p.mu.Lock()
	err := p.coord.Edit(layerID, fn, policy)
	p.mu.Unlock()
	p.report("edit "+layerID, err)
	return err
}

// Tap feeds the tap-tempo estimator. An accepted estimate becomes the
// shared tempo through the tempo policy.
func (p *Controller) Tap() (bpm int, applied bool) {
	p.mu.Lock()
	bpm, ok := p.tap.Tap(p.src.Now())
	if ok {
		bpm = p.setTempoLocked(bpm)
	}
	p.mu.Unlock()
	if ok {
		debug.Log("tap", "tempo %d", bpm)
		p.wake()
	} else if bpm != 0 {
		debug.Log("tap", "estimate %d out of range", bpm)
	}
	return bpm, ok
}

// Layers returns copies of the active layers
func (p *Controller) Layers() []*Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coord.Layers()
}

// Layer returns a copy of one layer
func (p *Controller) Layer(id string) (*Layer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coord.Layer(id)
}

// Schedule returns the current cycle plan
func (p *Controller) Schedule() Schedule {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coord.Plan()
}

// Position returns the pass number and fractional position in the cycle
func (p *Controller) Position() (cycle int64, phase float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coord.Position()
}

// Phase returns the coordinator lifecycle state
func (p *Controller) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coord.Phase()
}

// State returns the transport state
func (p *Controller) State() TransportState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.State()
}

// Policies returns the per-edit reschedule policies
func (p *Controller) Policies() Policies {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.policies
}

// SetPolicies replaces the per-edit reschedule policies
func (p *Controller) SetPolicies(pol Policies) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policies = pol
}

// Poll fires everything due right now and returns the count
func (p *Controller) Poll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.Advance()
}

// Run dispatches fire events in real time until ctx is done, then tears
// the engine down. It sleeps until the next registration comes due and
// wakes early whenever an edit changes the queue.
func (p *Controller) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		p.mu.Lock()
		p.clock.Advance()
		wait := idleWait
		if at, ok := p.clock.NextDue(); ok && p.clock.Running() {
			wait = p.clock.Until(at)
		}
		p.mu.Unlock()

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			p.Close()
			return
		case <-p.interrupt:
		case <-timer.C:
		}
	}
}

// wake signals Run to recalculate (called when the queue changes)
func (p *Controller) wake() {
	select {
	case p.interrupt <- struct{}{}:
	default:
	}
}

func (p *Controller) report(op string, err error) {
	if err != nil {
		debug.Log("ctrl", "%s rejected: %v", op, err)
		return
	}
	p.wake()
}
