package application

import (
	"regexp"
	"strings"
	"time"

	"github.com/bnema/reaction-test-cli/internal/domain"
)

type RoundReport struct {
	RoundNumber int
	SoundLevel  string
	ChartLabel  string
	Trials      []domain.TrialScore
	Stats       domain.StatValues
}

// Report carries a session with statistics computed from its raw times.
type Report struct {
	Session domain.Session
	Overall domain.StatValues
	Rounds  []RoundReport
}

// ChartSeries is the input of chart renderers: one label and one summary per
// round, ordered by ascending sound level.
type ChartSeries struct {
	Labels []string
	Stats  []domain.StatValues
}

func BuildReport(session domain.Session) Report {
	rounds := make([]RoundReport, 0, len(session.Rounds))
	for _, round := range session.Rounds {
		level := domain.SoundLevel(round.RoundNumber)
		rounds = append(rounds, RoundReport{
			RoundNumber: round.RoundNumber,
			SoundLevel:  level,
			ChartLabel:  ChartLabel(level),
			Trials:      round.Trials,
			Stats:       domain.Summarize(round.Times()),
		})
	}

	return Report{
		Session: session,
		Overall: domain.Summarize(session.Times()),
		Rounds:  rounds,
	}
}

func (r Report) Round(roundNumber int) (RoundReport, bool) {
	for _, round := range r.Rounds {
		if round.RoundNumber == roundNumber {
			return round, true
		}
	}
	return RoundReport{}, false
}

func (r Report) ChartSeries() ChartSeries {
	series := ChartSeries{
		Labels: make([]string, 0, len(domain.ChartRoundOrder)),
		Stats:  make([]domain.StatValues, 0, len(domain.ChartRoundOrder)),
	}
	for _, roundNumber := range domain.ChartRoundOrder {
		round, ok := r.Round(roundNumber)
		if !ok {
			continue
		}
		series.Labels = append(series.Labels, round.ChartLabel)
		series.Stats = append(series.Stats, round.Stats)
	}
	return series
}

var decibelPattern = regexp.MustCompile(`\d+dB`)

// ChartLabel shortens a sound level for chart axes, e.g.
// "No music (Control, 35dB)" becomes "Control (35dB)".
func ChartLabel(soundLevel string) string {
	label := soundLevel
	if match := decibelPattern.FindString(soundLevel); match != "" {
		label = match
	}
	if strings.Contains(strings.ToLower(soundLevel), "control") {
		label = "Control (" + label + ")"
	}
	return label
}

// OverviewRow is one line of the all-sessions overview.
type OverviewRow struct {
	ID          domain.SessionID
	User        domain.User
	StartTime   time.Time
	EndTime     *time.Time
	Active      bool
	Progress    domain.Progress
	Average     *float64
	Best        *float64
	StdDev      *float64
	ValidTrials int
}

// BuildOverview summarizes every session. Average and Best are absent without
// any recorded trial; StdDev needs at least two.
func BuildOverview(sessions []domain.Session) []OverviewRow {
	rows := make([]OverviewRow, 0, len(sessions))
	for _, session := range sessions {
		stats := domain.Summarize(session.Times())
		row := OverviewRow{
			ID:          session.ID,
			User:        session.User,
			StartTime:   session.StartTime,
			EndTime:     session.EndTime,
			Active:      session.Active(),
			Progress:    domain.Locate(session),
			ValidTrials: stats.Count,
		}
		if stats.Count > 0 {
			row.Average = floatPtr(stats.Average)
			row.Best = floatPtr(stats.Best)
		}
		if stats.Count >= 2 {
			row.StdDev = floatPtr(stats.StdDev)
		}
		rows = append(rows, row)
	}
	return rows
}

func floatPtr(v float64) *float64 {
	return &v
}
