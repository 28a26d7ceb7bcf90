package sequencer

import "testing"

func TestCellStateCycle(t *testing.T) {
	order := []CellState{Accent, Normal, Soft, Mute, Accent}
	for i := 0; i < len(order)-1; i++ {
		if got := order[i].Next(); got != order[i+1] {
			t.Errorf("%s.Next() = %s, want %s", order[i], got, order[i+1])
		}
	}
}

func TestCellStateLevels(t *testing.T) {
	if Mute.Fires() {
		t.Error("Mute must never fire")
	}
	if !(Accent.Level(false) > Normal.Level(false) && Normal.Level(false) > Soft.Level(false)) {
		t.Error("Expected Accent > Normal > Soft")
	}
	if Mute.Level(true) != 0 {
		t.Errorf("Mute level with boost = %v, want 0", Mute.Level(true))
	}
	if got := Normal.Level(true); got <= Normal.Level(false) {
		t.Errorf("Downbeat boost not applied: %v", got)
	}
	if got := Accent.Level(true); got != 1 {
		t.Errorf("Boosted accent = %v, want capped at 1", got)
	}
}

func TestParseCellState(t *testing.T) {
	for _, s := range []CellState{Accent, Normal, Soft, Mute} {
		got, err := ParseCellState(s.String())
		if err != nil || got != s {
			t.Errorf("ParseCellState(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseCellState("loud"); !IsConfigurationError(err) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}
