package sequencer

import (
	"math"
	"time"
)

// Beat is one span of a layer with its own subdivision grid.
// A uniform layer has a single Beat covering its whole length.
type Beat struct {
	Length float64     `json:"length"` // in quarter-note beats
	Cells  []CellState `json:"cells"`
}

// Layer is one subdivision grid scheduled against the shared cycle
type Layer struct {
	ID    string `json:"id"`
	Voice int    `json:"voice"` // sound slot, passed through to sinks
	Beats []Beat `json:"beats"`
}

// Trigger is one cycle-relative fire produced by expanding a layer
type Trigger struct {
	LayerID  string
	Voice    int
	Cell     int // flat index across beats
	Beat     int
	Offset   time.Duration
	State    CellState
	Downbeat bool
}

// NewLayer builds a uniform layer of n equal cells spanning lengthInBeats
func NewLayer(id string, subdivisions int, lengthInBeats float64) (*Layer, error) {
	if subdivisions < 1 {
		return nil, invalid("layer %q: subdivision count %d must be at least 1", id, subdivisions)
	}
	l := &Layer{
		ID: id,
		Beats: []Beat{{
			Length: lengthInBeats,
			Cells:  defaultCells(nil, subdivisions, lengthInBeats),
		}},
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewAdvancedLayer builds a layer from beats of independent length and grid.
// The beats are concatenated in order into one larger cycle.
func NewAdvancedLayer(id string, beats ...Beat) (*Layer, error) {
	l := &Layer{ID: id, Beats: make([]Beat, len(beats))}
	for i, b := range beats {
		l.Beats[i] = Beat{Length: b.Length, Cells: append([]CellState(nil), b.Cells...)}
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the structural invariants of the layer
func (l *Layer) Validate() error {
	if l.ID == "" {
		return invalid("layer id is empty")
	}
	if len(l.Beats) == 0 {
		return invalid("layer %q has no beats", l.ID)
	}
	for i, b := range l.Beats {
		if !(b.Length > 0) || math.IsInf(b.Length, 0) {
			return invalid("layer %q beat %d: length %v must be positive", l.ID, i, b.Length)
		}
		if len(b.Cells) < 1 {
			return invalid("layer %q beat %d: subdivision count must be at least 1", l.ID, i)
		}
		for j, c := range b.Cells {
			if c > Mute {
				return invalid("layer %q cell %d: unknown state %d", l.ID, j, c)
			}
		}
	}
	return nil
}

// Uniform reports whether the layer is a single flat grid
func (l *Layer) Uniform() bool {
	return len(l.Beats) == 1
}

// Subdivisions returns the total cell count across beats
func (l *Layer) Subdivisions() int {
	n := 0
	for _, b := range l.Beats {
		n += len(b.Cells)
	}
	return n
}

// Length returns the layer length in beats
func (l *Layer) Length() float64 {
	total := 0.0
	for _, b := range l.Beats {
		total += b.Length
	}
	return total
}

// Cells returns a flat copy of every cell
func (l *Layer) Cells() []CellState {
	out := make([]CellState, 0, l.Subdivisions())
	for _, b := range l.Beats {
		out = append(out, b.Cells...)
	}
	return out
}

// Cell returns the state at a flat index
func (l *Layer) Cell(cell int) (CellState, error) {
	b, i, err := l.locate(cell)
	if err != nil {
		return Mute, err
	}
	return l.Beats[b].Cells[i], nil
}

// SetCell replaces the state at a flat index
func (l *Layer) SetCell(cell int, s CellState) error {
	if s > Mute {
		return invalid("layer %q cell %d: unknown state %d", l.ID, cell, s)
	}
	b, i, err := l.locate(cell)
	if err != nil {
		return err
	}
	l.Beats[b].Cells[i] = s
	return nil
}

// ToggleCell advances a cell to its next state and returns it
func (l *Layer) ToggleCell(cell int) (CellState, error) {
	b, i, err := l.locate(cell)
	if err != nil {
		return Mute, err
	}
	next := l.Beats[b].Cells[i].Next()
	l.Beats[b].Cells[i] = next
	return next, nil
}

// Resize changes the subdivision count of a uniform layer
func (l *Layer) Resize(n int) error {
	if !l.Uniform() {
		return invalid("layer %q has %d beats, resize a single beat instead", l.ID, len(l.Beats))
	}
	return l.ResizeBeat(0, n)
}

// ResizeBeat changes the grid of one beat. Cells that still fit are kept,
// new cells get the default for their position.
func (l *Layer) ResizeBeat(beat, n int) error {
	if beat < 0 || beat >= len(l.Beats) {
		return invalid("layer %q: beat %d out of range [0,%d)", l.ID, beat, len(l.Beats))
	}
	if n < 1 {
		return invalid("layer %q: subdivision count %d must be at least 1", l.ID, n)
	}
	b := &l.Beats[beat]
	if n <= len(b.Cells) {
		b.Cells = append([]CellState(nil), b.Cells[:n]...)
		return nil
	}
	b.Cells = defaultCells(b.Cells, n, b.Length)
	return nil
}

// SetLength changes the length in beats of a uniform layer
func (l *Layer) SetLength(beats float64) error {
	if !l.Uniform() {
		return invalid("layer %q has %d beats, its length is their sum", l.ID, len(l.Beats))
	}
	if !(beats > 0) || math.IsInf(beats, 0) {
		return invalid("layer %q: length %v must be positive", l.ID, beats)
	}
	l.Beats[0].Length = beats
	return nil
}

// Clone returns a deep copy
func (l *Layer) Clone() *Layer {
	c := &Layer{ID: l.ID, Voice: l.Voice, Beats: make([]Beat, len(l.Beats))}
	for i, b := range l.Beats {
		c.Beats[i] = Beat{Length: b.Length, Cells: append([]CellState(nil), b.Cells...)}
	}
	return c
}

// Expand turns the layer into cycle-relative triggers, walking the beats
// in order. Mute cells produce nothing.
func (l *Layer) Expand(beatDur time.Duration, swing float64) []Trigger {
	var out []Trigger
	start := 0.0
	cell := 0
	for bi, b := range l.Beats {
		origin := scale(beatDur, start)
		span := scale(beatDur, b.Length)
		n := len(b.Cells)
		grid := swingGrid(n, b.Length)
		for i, st := range b.Cells {
			switch st {
			case Mute:
				continue
			case Accent, Normal, Soft:
			default:
				continue
			}
			off := origin + span*time.Duration(i)/time.Duration(n)
			if d := Swing(i%grid, grid, swing); d > 0 {
				off += time.Duration(d * float64(span) / float64(n))
			}
			out = append(out, Trigger{
				LayerID:  l.ID,
				Voice:    l.Voice,
				Cell:     cell + i,
				Beat:     bi,
				Offset:   off,
				State:    st,
				Downbeat: onBeatLine(i, n, b.Length),
			})
		}
		cell += n
		start += b.Length
	}
	return out
}

func (l *Layer) locate(cell int) (beat, index int, err error) {
	if cell >= 0 {
		for bi, b := range l.Beats {
			if cell < len(b.Cells) {
				return bi, cell, nil
			}
			cell -= len(b.Cells)
		}
	}
	return 0, 0, invalid("layer %q: cell index out of range [0,%d)", l.ID, l.Subdivisions())
}

// defaultCells pads cells up to n. Cells on a beat line default to Normal,
// the ones between to Soft.
func defaultCells(cells []CellState, n int, length float64) []CellState {
	out := make([]CellState, n)
	copy(out, cells)
	for i := len(cells); i < n; i++ {
		if onBeatLine(i, n, length) {
			out[i] = Normal
		} else {
			out[i] = Soft
		}
	}
	return out
}

// onBeatLine reports whether cell i of n over length beats starts a beat
func onBeatLine(i, n int, length float64) bool {
	if i == 0 {
		return true
	}
	pos := float64(i) * length / float64(n)
	return math.Abs(pos-math.Round(pos)) < 1e-9
}

// swingGrid returns how many cells make up one quarter note, falling back
// to the whole beat when the grid doesn't divide evenly into quarters
func swingGrid(n int, length float64) int {
	whole := math.Round(length)
	if whole >= 1 && math.Abs(length-whole) < 1e-9 && n%int(whole) == 0 {
		return n / int(whole)
	}
	return n
}

func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(math.Round(float64(d) * f))
}
