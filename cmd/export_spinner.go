package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type exportDoneMsg struct {
	path string
	err  error
}

type exportSpinnerModel struct {
	spinner spinner.Model
	label   string
	export  tea.Cmd
	path    string
	err     error
	done    bool
}

func newExportSpinnerModel(label string, export tea.Cmd) exportSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return exportSpinnerModel{
		spinner: s,
		label:   label,
		export:  export,
	}
}

func (m exportSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.export)
}

func (m exportSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case exportDoneMsg:
		m.done = true
		m.path = msg.path
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m exportSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runExportSpinner shows label on output while export writes its file and
// returns the written path.
func runExportSpinner(ctx context.Context, output io.Writer, label string, export func() (string, error)) (string, error) {
	exportCmd := func() tea.Msg {
		path, err := export()
		return exportDoneMsg{path: path, err: err}
	}

	p := tea.NewProgram(
		newExportSpinnerModel(label, exportCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(exportSpinnerModel)
	if !ok {
		return "", fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.path, result.err
}
