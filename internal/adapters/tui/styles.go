package tui

import "github.com/charmbracelet/lipgloss"

var (
	waitingColor = lipgloss.Color("#CE2636")
	armedColor   = lipgloss.Color("#4BDB6A")
	idleColor    = lipgloss.Color("#2B87D1")
)

type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	label    lipgloss.Style
	focused  lipgloss.Style
	muted    lipgloss.Style
	errorMsg lipgloss.Style
	warning  lipgloss.Style
	result   lipgloss.Style
	cursor   lipgloss.Style
	box      lipgloss.Style
	panel    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		focused:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		muted:    lipgloss.NewStyle().Faint(true),
		errorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		result:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2),
		panel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Align(lipgloss.Center, lipgloss.Center),
	}
}
