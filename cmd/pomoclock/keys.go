package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	StartPause  key.Binding
	Reset       key.Binding
	SessionDown key.Binding
	SessionUp   key.Binding
	BreakDown   key.Binding
	BreakUp     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		StartPause: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "start/pause"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		SessionDown: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "session -1"),
		),
		SessionUp: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "session +1"),
		),
		BreakDown: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "break -1"),
		),
		BreakUp: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "break +1"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.StartPause, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.StartPause, k.Reset},
		{k.SessionDown, k.SessionUp},
		{k.BreakDown, k.BreakUp},
		{k.Help, k.Quit},
	}
}
