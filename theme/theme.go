package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"go-rhythm/sequencer"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Cell states
	Accent rune // █ accented hit
	Normal rune // ▆ normal hit
	Soft   rune // ▃ ghost note
	Mute   rune // · silent

	Playhead rune // ▼ last fired cell
	Beat     rune // | beat line in the ruler
	Tick     rune // · between beat lines
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Plasma()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Accent: '█',
			Normal: '▆',
			Soft:   '▃',
			Mute:   '·',

			Playhead: '▼',
			Beat:     '|',
			Tick:     '·',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleSurface = 0.1 // dark purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleCursor  = 0.6 // rose pink
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Glyph returns the symbol drawn for a cell state
func (t *Theme) Glyph(s sequencer.CellState) rune {
	switch s {
	case sequencer.Accent:
		return t.Symbols.Accent
	case sequencer.Normal:
		return t.Symbols.Normal
	case sequencer.Soft:
		return t.Symbols.Soft
	case sequencer.Mute:
		return t.Symbols.Mute
	}
	return '?'
}

// CellColor maps a cell to a colour: louder cells sit higher in the
// palette, the playhead lights up in the success colour
func (t *Theme) CellColor(s sequencer.CellState, playing bool) lipgloss.Color {
	if playing && s.Fires() {
		return t.Success()
	}
	if !s.Fires() {
		return t.Muted()
	}
	return t.Color(RoleFG + (1-RoleFG)*s.Level(false)*0.6)
}

// CellStyle styles a single cell glyph
func (t *Theme) CellStyle(s sequencer.CellState, playing, cursor bool) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(t.CellColor(s, playing))
	if cursor {
		style = style.Background(t.Cursor())
	}
	return style
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
