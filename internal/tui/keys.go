package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left    key.Binding
	Right   key.Binding
	Home    key.Binding
	End     key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Presets []key.Binding
	Unit    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys(presetLabels []string) keyMap {
	k := keyMap{
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "scroll back")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "scroll forward")),
		Home:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "start")),
		End:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "end")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Unit:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "seconds/minutes")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
	// Digits 1..9 select presets in order.
	for i, label := range presetLabels {
		if i >= 9 {
			break
		}
		d := string(rune('1' + i))
		k.Presets = append(k.Presets, key.NewBinding(key.WithKeys(d), key.WithHelp(d, label)))
	}
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Home, k.End},
		{k.ZoomIn, k.ZoomOut, k.Unit},
		k.Presets,
		{k.Help, k.Quit},
	}
}
