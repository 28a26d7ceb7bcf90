package sequencer

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu       sync.Mutex
	events   []FireEvent
	releases int
}

func (r *recorder) Fire(ev FireEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++
}

func (r *recorder) snapshot() []FireEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FireEvent(nil), r.events...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) since(n int) []FireEvent {
	all := r.snapshot()
	if n > len(all) {
		return nil
	}
	return all[n:]
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *ManualTime, *recorder) {
	t.Helper()
	mt := NewManualTime(epoch)
	rec := &recorder{}
	return NewController(mt, rec, opts...), mt, rec
}

func mustLayer(t *testing.T, id string, n int, beats float64) *Layer {
	t.Helper()
	l, err := NewLayer(id, n, beats)
	if err != nil {
		t.Fatalf("NewLayer(%q, %d, %v): %v", id, n, beats, err)
	}
	return l
}

// runUntil jumps manual time from one due registration to the next,
// polling at each, and finally lands on end (inclusive).
func runUntil(p *Controller, mt *ManualTime, end time.Duration) {
	for {
		p.Poll()
		at, ok := p.clock.NextDue()
		if !ok || at > end || !p.clock.Running() {
			break
		}
		if now := p.clock.Now(); at > now {
			mt.Advance(at - now)
		}
	}
	if !p.clock.Running() {
		return
	}
	if now := p.clock.Now(); now < end {
		mt.Advance(end - now)
		p.Poll()
	}
}

func countByLayer(events []FireEvent) map[string]int {
	out := make(map[string]int)
	for _, ev := range events {
		out[ev.LayerID]++
	}
	return out
}
