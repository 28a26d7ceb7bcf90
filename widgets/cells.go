package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-rhythm/sequencer"
	"go-rhythm/theme"
)

// Columns maps every cell of l onto a row of width columns spanning
// cycleBeats. Cells of a layer shorter than the cycle are placed on its
// first pass only.
func Columns(l *sequencer.Layer, cycleBeats float64, width int) []int {
	if cycleBeats <= 0 || width <= 0 {
		return nil
	}
	cols := make([]int, 0, l.Subdivisions())
	pos := 0.0
	for _, b := range l.Beats {
		n := len(b.Cells)
		for i := 0; i < n; i++ {
			at := pos + b.Length*float64(i)/float64(n)
			cols = append(cols, column(at, cycleBeats, width))
		}
		pos += b.Length
	}
	return cols
}

func column(beat, cycleBeats float64, width int) int {
	c := int(math.Floor(beat / cycleBeats * float64(width)))
	if c >= width {
		c = width - 1
	}
	return c
}

// RenderLayer draws one layer as a row of glyphs placed in time.
// playhead and cursor are cell indices, -1 for none.
func RenderLayer(th *theme.Theme, l *sequencer.Layer, cycleBeats float64, width, playhead, cursor int) string {
	slots := make([]string, width)
	for i := range slots {
		slots[i] = " "
	}
	cells := l.Cells()
	for i, col := range Columns(l, cycleBeats, width) {
		style := th.CellStyle(cells[i], i == playhead, i == cursor)
		slots[col] = style.Render(string(th.Glyph(cells[i])))
	}
	return strings.Join(slots, "")
}

// RenderRuler draws beat lines across width columns
func RenderRuler(th *theme.Theme, cycleBeats float64, width int) string {
	row := make([]rune, width)
	for i := range row {
		row[i] = ' '
	}
	for b := 0.0; b < cycleBeats; b++ {
		row[column(b, cycleBeats, width)] = th.Symbols.Beat
	}
	return lipgloss.NewStyle().Foreground(th.Muted()).Render(string(row))
}

// RenderPhase draws the position inside the cycle as a bar
func RenderPhase(th *theme.Theme, phase float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(math.Max(0, math.Min(phase, 1)) * float64(width)))
	bar := lipgloss.NewStyle().Foreground(th.Accent()).Render(strings.Repeat("━", filled))
	rest := lipgloss.NewStyle().Foreground(th.Surface()).Render(strings.Repeat("━", width-filled))
	return bar + rest
}

// RenderSwatch renders a single colored block
func RenderSwatch(color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderSwatch(color), name, desc)
}

// RenderLegend shows the glyph for every cell state
func RenderLegend(th *theme.Theme) string {
	var parts []string
	for _, s := range []sequencer.CellState{sequencer.Accent, sequencer.Normal, sequencer.Soft, sequencer.Mute} {
		glyph := th.CellStyle(s, false, false).Render(string(th.Glyph(s)))
		parts = append(parts, fmt.Sprintf("%s %s", glyph, s))
	}
	return strings.Join(parts, "  ")
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
