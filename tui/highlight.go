package tui

import (
	"sync"

	"go-rhythm/sequencer"
)

// Highlighter is a sink that remembers the last fired cell of every
// layer for the view. It never blocks the control goroutine: a pending
// notification is enough to make the view redraw.
type Highlighter struct {
	mu     sync.Mutex
	last   map[string]int
	cycle  int64
	notify chan struct{}
}

var _ sequencer.Sink = (*Highlighter)(nil)

func NewHighlighter() *Highlighter {
	return &Highlighter{
		last:   make(map[string]int),
		notify: make(chan struct{}, 1),
	}
}

// Fire implements sequencer.Sink
func (h *Highlighter) Fire(ev sequencer.FireEvent) {
	h.mu.Lock()
	h.last[ev.LayerID] = ev.Cell
	h.cycle = ev.Cycle
	h.mu.Unlock()
	h.poke()
}

// Release implements sequencer.Sink
func (h *Highlighter) Release() {
	h.mu.Lock()
	h.last = make(map[string]int)
	h.mu.Unlock()
	h.poke()
}

// Last returns the last fired cell of a layer
func (h *Highlighter) Last(layerID string) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.last[layerID]
	return c, ok
}

// Cycle returns the pass number of the latest fire
func (h *Highlighter) Cycle() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cycle
}

// Updates delivers one value after any number of fires
func (h *Highlighter) Updates() <-chan struct{} {
	return h.notify
}

func (h *Highlighter) poke() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}
