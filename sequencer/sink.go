package sequencer

import "time"

// FireEvent is emitted once for every registered cell that comes due
type FireEvent struct {
	LayerID      string
	Cell         int
	Beat         int
	Cycle        int64
	Time         time.Duration // scheduled transport time
	State        CellState
	Level        float64 // 0-1, includes the downbeat boost
	Voice        int
	IsCycleStart bool
	IsDownbeat   bool
}

// Sink consumes fire events. Release must silence anything still sounding.
// Sinks run on the control goroutine and must not call back into the Controller.
type Sink interface {
	Fire(FireEvent)
	Release()
}

// SinkFunc adapts a function into a Sink with nothing to release
type SinkFunc func(FireEvent)

func (f SinkFunc) Fire(ev FireEvent) { f(ev) }

func (f SinkFunc) Release() {}

// Sinks fans events out in order
type Sinks []Sink

func (s Sinks) Fire(ev FireEvent) {
	for _, sink := range s {
		if sink != nil {
			sink.Fire(ev)
		}
	}
}

func (s Sinks) Release() {
	for _, sink := range s {
		if sink != nil {
			sink.Release()
		}
	}
}
