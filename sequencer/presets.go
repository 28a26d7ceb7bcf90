package sequencer

import "fmt"

// Exercise names understood by Exercise
const (
	ExercisePolyrhythm  = "polyrhythm"
	ExercisePyramid     = "pyramid"
	ExerciseGrid        = "grid"
	ExerciseSyncopation = "syncopation"
	ExerciseClave       = "clave"
)

// ExerciseNames lists the built-in exercises
func ExerciseNames() []string {
	return []string{ExercisePolyrhythm, ExercisePyramid, ExerciseGrid, ExerciseSyncopation, ExerciseClave}
}

// Exercise builds the starting layers for a named exercise.
// a and b are the polyrhythm divisions, levels the pyramid height.
func Exercise(name string, a, b, levels int, beats float64) ([]*Layer, error) {
	switch name {
	case ExercisePolyrhythm:
		return Polyrhythm(a, b, beats)
	case ExercisePyramid:
		return Pyramid(levels, beats)
	case ExerciseGrid:
		l, err := Grid("grid", 16, beats, 0, 4, 8, 12)
		return single(l, err)
	case ExerciseSyncopation:
		l, err := Syncopation("sync", int(beats), 2)
		return single(l, err)
	case ExerciseClave:
		l, err := Clave("clave")
		return single(l, err)
	}
	return nil, invalid("unknown exercise %q", name)
}

func single(l *Layer, err error) ([]*Layer, error) {
	if err != nil {
		return nil, err
	}
	return []*Layer{l}, nil
}

// Polyrhythm builds two layers of a and b cells over the same span,
// both accented at the shared cycle start
func Polyrhythm(a, b int, beats float64) ([]*Layer, error) {
	var layers []*Layer
	for voice, n := range []int{a, b} {
		l, err := NewLayer(fmt.Sprintf("poly-%d-%d", voice, n), n, beats)
		if err != nil {
			return nil, err
		}
		l.Voice = voice
		accentFirst(l)
		layers = append(layers, l)
	}
	return layers, nil
}

// Pyramid builds one layer per subdivision count from 1 to levels
func Pyramid(levels int, beats float64) ([]*Layer, error) {
	if levels < 1 {
		return nil, invalid("pyramid needs at least 1 level, got %d", levels)
	}
	layers := make([]*Layer, 0, levels)
	for n := 1; n <= levels; n++ {
		l, err := NewLayer(fmt.Sprintf("div-%d", n), n, beats)
		if err != nil {
			return nil, err
		}
		l.Voice = n - 1
		accentFirst(l)
		layers = append(layers, l)
	}
	return layers, nil
}

// Grid builds a step-sequencer row: hits sound, everything else is muted
func Grid(id string, steps int, beats float64, hits ...int) (*Layer, error) {
	l, err := NewLayer(id, steps, beats)
	if err != nil {
		return nil, err
	}
	for i := 0; i < steps; i++ {
		l.Beats[0].Cells[i] = Mute
	}
	for _, h := range hits {
		if err := l.SetCell(h, Normal); err != nil {
			return nil, err
		}
	}
	if len(hits) > 0 && hits[0] == 0 {
		l.Beats[0].Cells[0] = Accent
	}
	return l, nil
}

// Syncopation mutes every downbeat and accents the last subdivision of each beat
func Syncopation(id string, beats, perBeat int) (*Layer, error) {
	if beats < 1 || perBeat < 2 {
		return nil, invalid("syncopation needs beats >= 1 and perBeat >= 2, got %d/%d", beats, perBeat)
	}
	l, err := NewLayer(id, beats*perBeat, float64(beats))
	if err != nil {
		return nil, err
	}
	for i := range l.Beats[0].Cells {
		switch i % perBeat {
		case 0:
			l.Beats[0].Cells[i] = Mute
		case perBeat - 1:
			l.Beats[0].Cells[i] = Accent
		default:
			l.Beats[0].Cells[i] = Soft
		}
	}
	return l, nil
}

// Clave builds a 3-2 son clave as beats of unequal length over two bars
func Clave(id string) (*Layer, error) {
	lengths := []float64{1.5, 1.5, 2, 1, 2}
	beats := make([]Beat, len(lengths))
	for i, n := range lengths {
		beats[i] = Beat{Length: n, Cells: []CellState{Normal}}
	}
	beats[0].Cells[0] = Accent
	return NewAdvancedLayer(id, beats...)
}

func accentFirst(l *Layer) {
	l.Beats[0].Cells[0] = Accent
}
