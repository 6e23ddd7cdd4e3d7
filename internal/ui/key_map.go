package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	login    key.Binding
	enter    key.Binding
	toggle   key.Binding
	forward  key.Binding
	backward key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		login:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "login")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		forward:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+5s")),
		backward: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-5s")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.login, k.enter, k.back},
		{k.toggle, k.backward, k.forward},
		{k.quit},
	}
}
