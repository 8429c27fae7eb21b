package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/reaction-test-cli/internal/adapters/render/summary"
	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/bnema/reaction-test-cli/internal/trial"
)

const (
	latencyNote = "Note: Your actual reaction time may be affected by device and monitor latency (typically 10-50 ms)."

	defaultPanelWidth  = 60
	defaultPanelHeight = 9
)

var consentTerms = []string{
	"The experiment was conducted in a controlled environment (SUIS Gubei, Room N104).",
	"All equipment (computer, speaker, and sound-level sensor) was inspected before each session to ensure proper operation.",
	"Music volume was calibrated to safe listening levels (20-70 dB) using a Class 2 sound-level meter.",
	"Participants confirmed they have no known hearing impairments or sensitivities to sound.",
	"A qualified first-aid kit was stationed within 10 m of the testing area at all times.",
	"The school nurse's office is located within 50 m and on standby for any medical needs.",
	"Emergency exits and fire-safety routes were clearly marked and unobstructed.",
	"Participants may pause or withdraw from the experiment at any time without penalty.",
	"All data collected will be kept confidential and used solely for academic research purposes.",
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	var bindings phaseHelp

	switch m.orch.Phase() {
	case application.PhaseIdentification:
		body = m.identificationView()
		bindings = phaseHelp{m.keys.NextField, m.keys.Toggle, m.keys.Terms, m.keys.Submit, m.keys.Overview, m.keys.Interrupt}
	case application.PhaseConsent:
		body = m.consentView()
		bindings = phaseHelp{m.keys.Back}
	case application.PhasePreRound:
		body = m.preRoundView()
		bindings = phaseHelp{m.keys.Press, m.keys.Overview, m.keys.Quit}
	case application.PhaseActiveTrial:
		return m.trialView()
	case application.PhasePostRound:
		body = m.postRoundView()
		bindings = phaseHelp{m.keys.Press, m.keys.Overview, m.keys.Quit}
	case application.PhaseSummary:
		body = m.summaryView()
		bindings = phaseHelp{m.keys.NewPerson, m.keys.Overview, m.keys.Quit}
	case application.PhaseOverview:
		body = m.overviewView()
		bindings = phaseHelp{m.keys.Up, m.keys.Down, m.keys.Open, m.keys.Continue, m.keys.Back}
	case application.PhaseDetail:
		body = m.detailView()
		bindings = phaseHelp{m.keys.Continue, m.keys.Back, m.keys.Quit}
	}

	parts := []string{body}
	if m.err != nil {
		parts = append(parts, m.styles.warning.Render("! "+m.err.Error()))
	}
	parts = append(parts, m.help.View(bindings))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) identificationView() string {
	return m.styles.box.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.title.Render("Reaction Time Test"),
		m.styles.subtitle.Render("Please enter your details to begin."),
		"",
		m.form.view(m.styles),
	))
}

func (m *Model) consentView() string {
	lines := []string{m.styles.title.Render("Terms and Safety Considerations"), ""}
	for _, term := range consentTerms {
		lines = append(lines, "• "+term)
	}
	lines = append(lines, "",
		m.styles.label.Bold(true).Render("By checking the consent box on the previous page, you acknowledge that you have read, understood, and agree to abide by the above conditions."),
	)
	return m.styles.box.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) preRoundView() string {
	pos := m.orch.Position()

	lines := []string{
		m.styles.title.Render(fmt.Sprintf("Round %d of %d", pos.Round, domain.TotalRounds)),
		m.styles.label.Render("Sound condition: " + domain.SoundLevel(pos.Round)),
	}
	if pos.Trial > 1 {
		lines = append(lines, m.styles.subtitle.Render(fmt.Sprintf("Resuming at trial %d of %d", pos.Trial, domain.TrialsPerRound)))
	}
	lines = append(lines, "", m.styles.focused.Render("Press space to start the round"))

	return m.styles.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) postRoundView() string {
	pos := m.orch.Position()
	return m.styles.box.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.title.Render(fmt.Sprintf("Round %d Complete!", pos.Round)),
		"",
		m.styles.focused.Render(fmt.Sprintf("Press space to start the next round (%d of %d)", pos.Round+1, domain.TotalRounds)),
	))
}

func (m *Model) trialView() string {
	snap := m.timer.Snapshot()

	var color lipgloss.Color
	var lines []string
	switch snap.State {
	case trial.StateWaiting:
		color = waitingColor
		lines = []string{"Wait for green...", m.spinner.View()}
	case trial.StateArmed:
		color = armedColor
		lines = []string{"Press!"}
	case trial.StateTooSoon:
		color = idleColor
		lines = []string{"Too soon!", "Press to retry trial."}
	case trial.StateResult:
		color = idleColor
		lines = []string{
			m.styles.result.Render(fmt.Sprintf("Your time: %s ms", domain.FormatMs(snap.LastElapsedMs))),
			"Press to continue.",
		}
	default:
		color = idleColor
		lines = []string{"Get ready..."}
	}

	panel := m.styles.panel.
		Background(color).
		Width(m.contentWidth()).
		Height(m.panelHeight()).
		Render(strings.Join(lines, "\n\n"))

	pos := m.orch.Position()
	footer := []string{
		m.styles.subtitle.Render(fmt.Sprintf("Round: %d/%d, Trial: %d/%d", pos.Round, domain.TotalRounds, pos.Trial, domain.TrialsPerRound)),
		m.styles.muted.Render(latencyNote),
	}
	if m.err != nil {
		footer = append(footer, m.styles.warning.Render("! "+m.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, panel, lipgloss.JoinVertical(lipgloss.Left, footer...))
}

func (m *Model) summaryView() string {
	current, ok := m.orch.Current()
	if !ok {
		return m.styles.muted.Render("No session.")
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.title.Render("Thank you! All rounds are complete."),
		"",
		summary.ReportView(application.BuildReport(current)),
	)
}

func (m *Model) overviewView() string {
	rows := application.BuildOverview(m.orch.Sessions())

	lines := []string{
		m.styles.title.Render("All Sessions"),
		m.styles.subtitle.Render(fmt.Sprintf("sessions: %d", len(rows))),
		"",
	}
	for i, row := range rows {
		cursor := "  "
		style := m.styles.label
		if i == m.overviewCursor {
			cursor = m.styles.cursor.Render("> ")
			style = m.styles.focused
		}
		lines = append(lines, cursor+style.Render(overviewLine(row)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func overviewLine(row application.OverviewRow) string {
	status := "completed"
	if row.Active {
		status = fmt.Sprintf("active R%d T%d", row.Progress.Round, row.Progress.Trial)
	}

	avg := "n/a"
	if row.Average != nil {
		avg = domain.FormatMs(*row.Average) + " ms"
	}

	return fmt.Sprintf("%s (%s)  %s  avg %s  %d trials", row.User.Name, row.User.Sex, status, avg, row.ValidTrials)
}

func (m *Model) detailView() string {
	detail, err := m.orch.Detail()
	if err != nil {
		return m.styles.muted.Render(err.Error())
	}
	return summary.ReportView(application.BuildReport(detail))
}

func (m *Model) contentWidth() int {
	if m.width > 4 {
		return m.width - 4
	}
	return defaultPanelWidth
}

func (m *Model) panelHeight() int {
	if m.height > 8 {
		return m.height - 4
	}
	return defaultPanelHeight
}
