package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-rhythm/config"
	"go-rhythm/debug"
	"go-rhythm/midi"
	"go-rhythm/sequencer"
	"go-rhythm/theme"
	"go-rhythm/widgets"
)

const (
	rowWidth     = 48
	swingStep    = 0.05
	exportCycles = 4
	maxCells     = 32
)

// Export describes where and how the e key writes a MIDI file
type Export struct {
	Path    string
	Channel int
	Set     midi.SoundSet
}

type Model struct {
	Player *sequencer.Controller
	Hi     *Highlighter
	Theme  *theme.Theme
	Export Export

	// Pattern library for s/o, nil disables them
	Library *config.Library
	Pattern string

	help     help.Model
	selected int // layer index
	cursor   int // cell index in the selected layer
	nextID   int
	status   string
	quitting bool
}

type UpdateMsg struct{}

func NewModel(player *sequencer.Controller, hi *Highlighter, th *theme.Theme) Model {
	return Model{
		Player: player,
		Hi:     hi,
		Theme:  th,
		Export: Export{Path: "go-rhythm.mid", Channel: 10, Set: midi.GetSoundSet(midi.DefaultSoundSet)},
		help:   help.New(),
		nextID: len(player.Layers()) + 1,
	}
}

func ListenForUpdates(hi *Highlighter) tea.Cmd {
	return func() tea.Msg {
		<-hi.Updates()
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Hi)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Hi)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	layers := m.Player.Layers()
	m.clamp(layers)
	m.status = ""

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.Player.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Play):
		if m.Player.Playing() {
			m.Player.Stop()
		} else {
			m.Player.Start()
		}

	case key.Matches(msg, keys.Tap):
		if bpm, ok := m.Player.Tap(); ok {
			m.status = fmt.Sprintf("tap %d bpm", bpm)
		} else if bpm != 0 {
			m.status = fmt.Sprintf("tap %d bpm out of range", bpm)
		}

	case key.Matches(msg, keys.TempoUp):
		m.Player.NudgeTempo(1)

	case key.Matches(msg, keys.TempoDown):
		m.Player.NudgeTempo(-1)

	case key.Matches(msg, keys.SwingUp):
		m.Player.NudgeSwing(swingStep)

	case key.Matches(msg, keys.SwingDown):
		m.Player.NudgeSwing(-swingStep)

	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, keys.Down):
		if m.selected < len(layers)-1 {
			m.selected++
		}

	case key.Matches(msg, keys.Left):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Right):
		if l := m.current(layers); l != nil && m.cursor < l.Subdivisions()-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Cycle):
		if l := m.current(layers); l != nil {
			_, err := m.Player.ToggleCell(l.ID, m.cursor)
			m.report(err)
		}

	case key.Matches(msg, keys.Grow):
		if l := m.current(layers); l != nil && l.Subdivisions() < maxCells {
			m.report(m.Player.ResizeLayer(l.ID, l.Subdivisions()+1))
		}

	case key.Matches(msg, keys.Shrink):
		if l := m.current(layers); l != nil && l.Subdivisions() > 1 {
			m.report(m.Player.ResizeLayer(l.ID, l.Subdivisions()-1))
		}

	case key.Matches(msg, keys.Add):
		m.addLayer(layers)

	case key.Matches(msg, keys.Remove):
		if l := m.current(layers); l != nil {
			m.Player.RemoveLayer(l.ID)
		}

	case key.Matches(msg, keys.Export):
		m.export()

	case key.Matches(msg, keys.Save):
		m.save()

	case key.Matches(msg, keys.Open):
		m.open()

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.clamp(m.Player.Layers())
	return m, nil
}

func (m *Model) addLayer(layers []*sequencer.Layer) {
	beats := m.Player.Schedule().Beats
	id := fmt.Sprintf("layer-%d", m.nextID)
	for m.hasLayer(layers, id) {
		m.nextID++
		id = fmt.Sprintf("layer-%d", m.nextID)
	}
	m.nextID++

	l, err := sequencer.NewLayer(id, 4, beats)
	if err != nil {
		m.report(err)
		return
	}
	l.Voice = len(layers)
	if err := m.Player.UpsertLayer(l); err != nil {
		m.report(err)
		return
	}
	m.selected = len(layers)
	m.cursor = 0
}

func (m *Model) export() {
	sched := m.Player.Schedule()
	err := midi.ExportFile(m.Export.Path, sched, m.Player.Tempo(), midi.ExportOptions{
		Cycles:  exportCycles,
		Channel: m.Export.Channel,
		Set:     m.Export.Set,
	})
	if err != nil {
		m.report(err)
		return
	}
	m.status = "wrote " + m.Export.Path
	debug.Log("tui", "exported %s", m.Export.Path)
}

func (m *Model) save() {
	if m.Library == nil {
		m.status = "no pattern library"
		return
	}
	name, err := m.Library.Save(m.Pattern, config.Capture(m.Player), time.Now())
	if err != nil {
		m.report(err)
		return
	}
	m.status = "saved " + m.Pattern + "/" + name
}

func (m *Model) open() {
	if m.Library == nil {
		m.status = "no pattern library"
		return
	}
	snap, err := m.Library.Load(m.Pattern, "")
	if err != nil {
		m.report(err)
		return
	}
	m.report(snap.Apply(m.Player))
	if m.status == "" {
		m.status = "loaded " + m.Pattern
	}
}

func (m *Model) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) clamp(layers []*sequencer.Layer) {
	if m.selected >= len(layers) {
		m.selected = len(layers) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	n := 0
	if l := m.current(layers); l != nil {
		n = l.Subdivisions()
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) current(layers []*sequencer.Layer) *sequencer.Layer {
	if m.selected < 0 || m.selected >= len(layers) {
		return nil
	}
	return layers[m.selected]
}

func (m Model) hasLayer(layers []*sequencer.Layer, id string) bool {
	for _, l := range layers {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := m.Player.State()
	sched := m.Player.Schedule()
	layers := m.Player.Layers()
	_, phase := m.Player.Position()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	selStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Bold(true)
	statusStyle := lipgloss.NewStyle().
		Foreground(m.Theme.FG()).
		Background(m.Theme.Surface()).
		Padding(0, 1)

	playState := "STOP"
	if state.Running {
		playState = "PLAY"
	}
	header := headerStyle.Render(fmt.Sprintf("go-rhythm  %s  %3dbpm  swing %.2f  %s",
		playState, state.TempoBPM, state.Swing, m.Player.Phase()))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	label := fmt.Sprintf("%-12s ", "")
	out.WriteString(label + widgets.RenderRuler(m.Theme, sched.Beats, rowWidth))
	out.WriteString("\n")

	for i, l := range layers {
		playhead := -1
		if state.Running {
			if c, ok := m.Hi.Last(l.ID); ok {
				playhead = c
			}
		}
		cursor := -1
		name := fmt.Sprintf("  %-10s ", truncate(l.ID, 10))
		if i == m.selected {
			cursor = m.cursor
			name = selStyle.Render(fmt.Sprintf("> %-10s ", truncate(l.ID, 10)))
		} else {
			name = dimStyle.Render(name)
		}
		swatch := widgets.RenderSwatch(m.Theme.Palette.Index(1 + l.Voice))
		out.WriteString(name)
		out.WriteString(widgets.RenderLayer(m.Theme, l, sched.Beats, rowWidth, playhead, cursor))
		out.WriteString(" " + swatch + dimStyle.Render(fmt.Sprintf(" %d", l.Subdivisions())))
		out.WriteString("\n")
	}
	if len(layers) == 0 {
		out.WriteString(dimStyle.Render("  no layers, press a to add one"))
		out.WriteString("\n")
	}

	out.WriteString(label + widgets.RenderPhase(m.Theme, phase, rowWidth))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderLegend(m.Theme))
	out.WriteString("\n")

	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(statusStyle.Render(m.status))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(m.help.View(keys))

	return out.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
