package sequencer

import (
	"sort"
	"time"
)

// Schedule is one cycle of every layer, ready to be registered
type Schedule struct {
	BeatDur  time.Duration
	Beats    float64
	CycleLen time.Duration
	Triggers []Trigger // ordered by offset, then layer order
}

// BeatDuration returns the length of one quarter note
func BeatDuration(bpm int) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(bpm)
}

// Plan expands layers into a single cycle. The cycle is as long as the
// longest layer; shorter layers repeat from zero and are cut at the
// boundary.
func Plan(layers []*Layer, bpm int, swing float64) Schedule {
	beatDur := BeatDuration(bpm)
	beats := cycleBeats(layers)
	cycle := scale(beatDur, beats)

	var triggers []Trigger
	for _, l := range layers {
		span := scale(beatDur, l.Length())
		if span <= 0 {
			continue
		}
		base := l.Expand(beatDur, swing)
		for rep := time.Duration(0); rep < cycle; rep += span {
			for _, t := range base {
				t.Offset += rep
				if t.Offset >= cycle {
					continue
				}
				triggers = append(triggers, t)
			}
		}
	}
	sort.SliceStable(triggers, func(i, j int) bool {
		return triggers[i].Offset < triggers[j].Offset
	})

	return Schedule{
		BeatDur:  beatDur,
		Beats:    beats,
		CycleLen: cycle,
		Triggers: triggers,
	}
}

func cycleBeats(layers []*Layer) float64 {
	max := 0.0
	for _, l := range layers {
		if n := l.Length(); n > max {
			max = n
		}
	}
	if max == 0 {
		return 1
	}
	return max
}
