package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit     key.Binding
	ToggleMode key.Binding
	NextLink   key.Binding
	PrevLink   key.Binding
	OpenLink   key.Binding
	FocusLeft  key.Binding
	FocusRight key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Debug      key.Binding
	Close      key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "chat/search"),
		),
		NextLink: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("^n/^p", "links"),
		),
		PrevLink: key.NewBinding(
			key.WithKeys("ctrl+p"),
		),
		OpenLink: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "follow link"),
		),
		FocusLeft: key.NewBinding(
			key.WithKeys("ctrl+left"),
			key.WithHelp("^←/^→", "pane"),
		),
		FocusRight: key.NewBinding(
			key.WithKeys("ctrl+right"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup/pgdn", "scroll"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
		),
		Debug: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("^g", "debug"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleMode, k.NextLink, k.OpenLink, k.FocusLeft, k.PageUp, k.Debug, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
