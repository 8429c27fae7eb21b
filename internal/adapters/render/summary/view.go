package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	progressBarWidth = 24
	timeLayout       = "2006-01-02 15:04"
)

type RenderOptions struct {
	Now time.Time
}

// RenderOverview renders every session's status and headline statistics.
func RenderOverview(rows []application.OverviewRow, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return overviewView(rows, opts, s)
	})
}

// RenderReport renders one session with overall and per-round statistics.
func RenderReport(report application.Report) (string, error) {
	return run(func(s styles) string {
		return reportView(report, s)
	})
}

// OverviewView is RenderOverview for callers already inside a bubbletea program.
func OverviewView(rows []application.OverviewRow, opts RenderOptions) string {
	return overviewView(rows, opts, newStyles())
}

// ReportView is RenderReport for callers already inside a bubbletea program.
func ReportView(report application.Report) string {
	return reportView(report, newStyles())
}

func overviewView(rows []application.OverviewRow, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Reaction Test Sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(rows))),
	}

	if len(rows) == 0 {
		lines = append(lines, s.empty.Render("No sessions recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, row := range rows {
		lines = append(lines, s.section.Render(renderRow(row, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRow(row application.OverviewRow, opts RenderOptions, s styles) string {
	total := domain.TotalRounds * domain.TrialsPerRound

	progress := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.statKey.Render("trials:"),
		" ",
		renderProgressBar(float64(row.ValidTrials)/float64(total), progressBarWidth, s),
		" ",
		s.statMeta.Render(fmt.Sprintf("%d/%d", row.ValidTrials, total)),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.session.Render(sessionTitle(row.User, row.ID)),
		statusLine(row, opts, s),
		progress,
		s.detail.Render(fmt.Sprintf("avg: %s  best: %s  sd: %s",
			optionalMs(row.Average), optionalMs(row.Best), optionalMs(row.StdDev))),
	)
}

func statusLine(row application.OverviewRow, opts RenderOptions, s styles) string {
	started := s.statMeta.Render("started " + formatStarted(row.StartTime, opts.Now))
	if row.Active {
		return s.active.Render(fmt.Sprintf("active: round %d, trial %d", row.Progress.Round, row.Progress.Trial)) + " " + started
	}

	label := "completed"
	if row.EndTime != nil {
		label = fmt.Sprintf("completed in %s", formatDuration(row.EndTime.Sub(row.StartTime)))
	}
	return s.completed.Render(label) + " " + started
}

func reportView(report application.Report, s styles) string {
	session := report.Session

	status := s.active.Render("active")
	if session.EndTime != nil {
		status = s.completed.Render("completed " + session.EndTime.Local().Format(timeLayout))
	}

	lines := []string{
		s.title.Render(sessionTitle(session.User, session.ID)),
		s.header.Render(fmt.Sprintf("started %s", session.StartTime.Local().Format(timeLayout))) + " " + status,
		s.section.Render(s.session.Render("Overall")),
		statsLine(report.Overall, s),
	}

	for _, round := range report.Rounds {
		lines = append(lines,
			s.section.Render(s.session.Render(fmt.Sprintf("Round %d: %s", round.RoundNumber, round.SoundLevel))),
			statsLine(round.Stats, s),
			s.statMeta.Render(trialTimes(round.Trials)),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statsLine(stats domain.StatValues, s styles) string {
	if stats.Empty() {
		return s.empty.Render("no recorded trials")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.detail.Render(fmt.Sprintf("avg: %s ms  median: %s ms  best: %s ms  n=%d",
			domain.FormatMs(stats.Average), domain.FormatMs(stats.Median), domain.FormatMs(stats.Best), stats.Count)),
		s.statKey.Render(fmt.Sprintf("sd: %s ms  sem: %s ms  q1: %s ms  q3: %s ms  range: %s-%s ms",
			domain.FormatMs(stats.StdDev), domain.FormatMs(stats.SEM),
			domain.FormatMs(stats.Q1), domain.FormatMs(stats.Q3),
			domain.FormatMs(stats.Min), domain.FormatMs(stats.Max))),
	)
}

func trialTimes(trials []domain.TrialScore) string {
	parts := make([]string, 0, len(trials))
	for _, trial := range trials {
		value := "-"
		if trial.Recorded() {
			value = domain.FormatMs(*trial.Time)
		}
		parts = append(parts, fmt.Sprintf("#%d %s", trial.TrialNumber, value))
	}
	return strings.Join(parts, "  ")
}

func sessionTitle(user domain.User, id domain.SessionID) string {
	name := strings.TrimSpace(user.Name)
	if user.Sex == "" {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return fmt.Sprintf("%s, %s (%s)", name, user.Sex, id)
}

func optionalMs(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return domain.FormatMs(*v) + " ms"
}

func renderProgressBar(fraction float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampFraction(fraction)))
	empty := width - filled

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func formatStarted(start, now time.Time) string {
	if now.IsZero() || start.After(now) {
		return start.Local().Format(timeLayout)
	}

	elapsed := now.Sub(start)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < 24*time.Hour:
		return formatDuration(elapsed) + " ago"
	default:
		return start.Local().Format(timeLayout)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
