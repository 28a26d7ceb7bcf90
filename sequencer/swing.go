package sequencer

// maxSwing is the delay of a fully swung off-beat, in cells.
// At 8th-note resolution that puts the off-beat halfway to the next beat.
const maxSwing = 0.5

// Swing returns the delay of a subdivision, measured in cells.
//
// Cells are paired into an 8th-note-equivalent grid: only the second cell
// of each pair moves. Grids with an odd number of cells per beat (triplets,
// quintuplets) have no pairs and are never swung. The result depends only
// on its arguments, so a given setting always lands in the same place.
func Swing(cell, subdivisions int, amount float64) float64 {
	if amount <= 0 || subdivisions < 2 || subdivisions%2 != 0 {
		return 0
	}
	if cell%2 == 0 {
		return 0
	}
	return clampSwing(amount) * maxSwing
}

func clampSwing(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	if amount > 1 {
		return 1
	}
	return amount
}
