package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"

	"go-rhythm/sequencer"
)

const (
	// DefaultSampleRate for offline renders
	DefaultSampleRate = beep.SampleRate(44100)

	clickLength = 40 * time.Millisecond
	clickDecay  = 8 * time.Millisecond // time constant of the envelope
	clickGain   = 0.5
)

// voiceFreqs gives each voice slot its own pitch so layers stay apart
var voiceFreqs = []float64{1000, 800, 1250, 600, 1500, 700, 900, 1100}

// click is a sine burst with a fast exponential decay
type click struct {
	rate   beep.SampleRate
	freq   float64
	amp    float64
	length int
	pos    int
}

// NewClick creates a single click of the given pitch and level (0-1)
func NewClick(rate beep.SampleRate, freq, level float64) beep.Streamer {
	return &click{
		rate:   rate,
		freq:   freq,
		amp:    math.Max(0, math.Min(level, 1)) * clickGain,
		length: rate.N(clickLength),
	}
}

// ClickFor picks the click sound for a trigger. Accents sound a fifth higher.
func ClickFor(rate beep.SampleRate, voice int, state sequencer.CellState, downbeat bool) beep.Streamer {
	if voice < 0 {
		voice = -voice
	}
	freq := voiceFreqs[voice%len(voiceFreqs)]
	if state == sequencer.Accent {
		freq *= 1.5
	}
	return NewClick(rate, freq, state.Level(downbeat))
}

func (c *click) Stream(samples [][2]float64) (n int, ok bool) {
	decay := c.rate.N(clickDecay)
	for i := range samples {
		if c.pos >= c.length {
			return i, i > 0
		}
		t := float64(c.pos) / float64(c.rate)
		env := math.Exp(-float64(c.pos) / float64(decay))
		val := c.amp * env * math.Sin(2*math.Pi*c.freq*t)

		samples[i][0] = val
		samples[i][1] = val
		c.pos++
	}
	return len(samples), true
}

func (c *click) Err() error { return nil }
