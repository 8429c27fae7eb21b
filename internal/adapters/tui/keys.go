package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the experiment screens.
type KeyMap struct {
	// Form
	NextField key.Binding
	PrevField key.Binding
	Toggle    key.Binding
	Left      key.Binding
	Right     key.Binding
	Terms     key.Binding
	Submit    key.Binding

	// Experiment
	Press key.Binding

	// Operator views
	Overview  key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Continue  key.Binding
	NewPerson key.Binding
	Back      key.Binding

	Quit      key.Binding
	Interrupt key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "male"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "female"),
		),
		Terms: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "terms"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start"),
		),
		Press: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space/enter", "react"),
		),
		Overview: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "all sessions"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Continue: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "continue session"),
		),
		NewPerson: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next participant"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// phaseHelp lists the bindings worth showing on a given screen.
type phaseHelp []key.Binding

func (h phaseHelp) ShortHelp() []key.Binding {
	return h
}

func (h phaseHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h}
}
