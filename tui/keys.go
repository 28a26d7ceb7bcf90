package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play      key.Binding
	Tap       key.Binding
	TempoUp   key.Binding
	TempoDown key.Binding
	SwingUp   key.Binding
	SwingDown key.Binding
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Cycle     key.Binding
	Grow      key.Binding
	Shrink    key.Binding
	Add       key.Binding
	Remove    key.Binding
	Export    key.Binding
	Save      key.Binding
	Open      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

var keys = keyMap{
	Play:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/stop")),
	Tap:       Key("tap tempo", "t"),
	TempoUp:   Key("tempo +1", "+", "="),
	TempoDown: Key("tempo -1", "-", "_"),
	SwingUp:   Key("swing +", "]"),
	SwingDown: Key("swing -", "["),
	Up:        Key("prev layer", "k", "up"),
	Down:      Key("next layer", "j", "down"),
	Left:      Key("cursor left", "h", "left"),
	Right:     Key("cursor right", "l", "right"),
	Cycle:     Key("cycle cell", "enter"),
	Grow:      Key("more cells", ">"),
	Shrink:    Key("fewer cells", "<"),
	Add:       Key("add layer", "a"),
	Remove:    Key("remove layer", "d"),
	Export:    Key("export .mid", "e"),
	Save:      Key("save pattern", "s"),
	Open:      Key("open last save", "o"),
	Help:      Key("help", "?"),
	Quit:      Key("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Tap, k.TempoUp, k.TempoDown, k.Cycle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Tap, k.TempoUp, k.TempoDown, k.SwingUp, k.SwingDown},
		{k.Up, k.Down, k.Left, k.Right, k.Cycle},
		{k.Grow, k.Shrink, k.Add, k.Remove},
		{k.Save, k.Open, k.Export, k.Help, k.Quit},
	}
}
