// Package tui runs the reaction-time experiment as a bubbletea program.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/bnema/reaction-test-cli/internal/adapters/scheduler"
	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/bnema/reaction-test-cli/internal/ports"
	"github.com/bnema/reaction-test-cli/internal/trial"
)

// Options configures a Model. Zero values select the real terminal setup:
// bubbletea ticks for delays, the system clock and uniform random delays.
type Options struct {
	Name      string
	Sex       domain.Sex
	Scheduler trial.Scheduler
	Clock     ports.Clock
	Delays    trial.DelaySource
	Logger    *zap.Logger
}

// Model drives the orchestrator from terminal input. The orchestrator owns
// the phase; the model only renders it and forwards participant actions.
type Model struct {
	ctx   context.Context
	orch  *application.Orchestrator
	timer *trial.Timer
	ticks *scheduler.Tea
	clock ports.Clock
	log   *zap.Logger

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	styles  styles

	form           identificationForm
	overviewCursor int
	err            error
	width          int
	height         int
	quitting       bool
}

func New(ctx context.Context, orch *application.Orchestrator, opts Options) *Model {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	m := &Model{
		ctx:   ctx,
		orch:  orch,
		clock: opts.Clock,
		log:   opts.Logger,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Pulse),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))),
		),
		styles: newStyles(),
		form:   newIdentificationForm(opts.Name, opts.Sex),
	}

	sched := opts.Scheduler
	if sched == nil {
		m.ticks = scheduler.NewTea()
		sched = m.ticks
	} else if ticks, ok := sched.(*scheduler.Tea); ok {
		m.ticks = ticks
	}

	m.timer = trial.New(sched, trial.Callbacks{
		OnTrialComplete:      m.recordTrial,
		OnResultAcknowledged: m.acknowledgeResult,
	}, trial.WithClock(opts.Clock), trial.WithDelaySource(opts.Delays))

	m.syncTimer()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.scheduled())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case scheduler.FireMsg:
		if m.ticks != nil {
			m.ticks.Deliver(msg)
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Interrupt) {
			return m, m.quit()
		}
		cmd := m.handleKey(msg)
		return m, tea.Batch(cmd, m.scheduled())
	}

	if m.orch.Phase() == application.PhaseIdentification {
		var cmd tea.Cmd
		m.form, _, cmd = m.form.update(msg, m.keys)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.orch.Phase() {
	case application.PhaseIdentification:
		return m.handleIdentification(msg)
	case application.PhaseConsent:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Submit) {
			m.setErr(m.orch.LeaveConsent())
		}
	case application.PhasePreRound:
		switch {
		case key.Matches(msg, m.keys.Press):
			if m.setErr(m.orch.StartRound()) {
				m.syncTimer()
			}
		case key.Matches(msg, m.keys.Overview):
			m.openOverview()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
	case application.PhaseActiveTrial:
		if key.Matches(msg, m.keys.Press) {
			m.timer.Press()
		}
	case application.PhasePostRound:
		switch {
		case key.Matches(msg, m.keys.Press):
			m.setErr(m.orch.StartNextRound())
		case key.Matches(msg, m.keys.Overview):
			m.openOverview()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
	case application.PhaseSummary:
		switch {
		case key.Matches(msg, m.keys.NewPerson):
			m.orch.Reset()
			m.form = newIdentificationForm("", domain.SexMale)
			m.err = nil
			return textinput.Blink
		case key.Matches(msg, m.keys.Overview):
			m.openOverview()
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
	case application.PhaseOverview:
		return m.handleOverview(msg)
	case application.PhaseDetail:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.setErr(m.orch.CloseDetail())
		case key.Matches(msg, m.keys.Continue):
			if detail, err := m.orch.Detail(); err == nil {
				m.continueSession(detail.ID)
			}
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
	}
	return nil
}

func (m *Model) handleIdentification(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Terms):
		m.setErr(m.orch.ShowConsent())
		return nil
	case key.Matches(msg, m.keys.Overview):
		m.openOverview()
		return nil
	}

	form, sub, cmd := m.form.update(msg, m.keys)
	m.form = form
	if sub == nil {
		return cmd
	}

	if _, err := m.orch.Identify(m.ctx, sub.name, sub.sex); err != nil {
		m.setErr(err)
	}
	return cmd
}

func (m *Model) handleOverview(msg tea.KeyMsg) tea.Cmd {
	sessions := m.orch.Sessions()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.overviewCursor > 0 {
			m.overviewCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.overviewCursor < len(sessions)-1 {
			m.overviewCursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.overviewCursor < len(sessions) {
			m.setErr(m.orch.OpenDetail(sessions[m.overviewCursor].ID))
		}
	case key.Matches(msg, m.keys.Continue):
		if m.overviewCursor < len(sessions) {
			m.continueSession(sessions[m.overviewCursor].ID)
		}
	case key.Matches(msg, m.keys.Back):
		m.setErr(m.orch.CloseOverview())
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	}
	return nil
}

func (m *Model) openOverview() {
	if m.setErr(m.orch.OpenOverview()) {
		m.overviewCursor = 0
	}
}

func (m *Model) continueSession(id domain.SessionID) {
	m.setErr(m.orch.Continue(m.ctx, id))
}

func (m *Model) recordTrial(elapsedMs float64) {
	if err := m.orch.RecordTrial(m.ctx, elapsedMs); err != nil {
		m.log.Error("record trial failed", zap.Error(err))
		m.err = err
	}
}

// acknowledgeResult advances the orchestrator and re-targets the timer. When
// the advance is refused the same slot is measured again.
func (m *Model) acknowledgeResult() {
	if err := m.orch.AcknowledgeResult(m.ctx); err != nil {
		m.log.Warn("acknowledge result failed", zap.Error(err))
		m.err = err
		m.timer.Stop()
	}
	m.syncTimer()
}

// syncTimer points the timer at the orchestrator's current slot, or stops it
// outside an active trial.
func (m *Model) syncTimer() {
	if m.orch.Phase() != application.PhaseActiveTrial {
		if m.timer.State() != trial.StateIdle {
			m.timer.Stop()
		}
		return
	}

	if m.timer.State() == trial.StateExited {
		m.timer.Stop()
	}
	pos := m.orch.Position()
	m.timer.Start(pos.Round, pos.Trial)
}

// setErr records err for display and reports whether the call succeeded.
func (m *Model) setErr(err error) bool {
	if err != nil {
		m.err = err
		return false
	}
	m.err = nil
	return true
}

func (m *Model) scheduled() tea.Cmd {
	if m.ticks == nil {
		return nil
	}
	return m.ticks.Cmd()
}

func (m *Model) quit() tea.Cmd {
	m.timer.Stop()
	m.quitting = true
	return tea.Quit
}

// Err returns the last error shown to the operator.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) TimerState() trial.State {
	return m.timer.State()
}
