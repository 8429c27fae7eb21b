// Package csv writes session exports in the column layout used by the lab's
// spreadsheets.
package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
)

const isoLayout = "2006-01-02T15:04:05.000Z"

var ErrNoSessions = errors.New("no sessions to export")

var SessionDetailHeader = []string{
	"SessionID", "UserName", "UserSex", "SessionStartTimeISO", "SessionEndTimeISO",
	"RoundNumber", "SoundLevel", "TrialWithinRound", "ReactionTimeMs",
	"RoundAverage", "RoundMedian", "RoundStdDev", "RoundSEM",
	"OverallAverage", "OverallMedian", "OverallStdDev", "OverallSEM",
}

var AllSessionsHeader = []string{
	"SessionID", "UserName", "UserSex",
	"StartTimeISO", "EndTimeISO",
	"OverallAverageTimeMs", "OverallBestTimeMs", "OverallStdDevMs",
	"TotalValidTrials",
}

// WriteSessionDetail writes one row per recorded trial of the report's session.
func WriteSessionDetail(w io.Writer, report application.Report) error {
	cw := stdcsv.NewWriter(w)
	if err := cw.Write(SessionDetailHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	session := report.Session
	overall := report.Overall
	for _, round := range report.Rounds {
		for _, trial := range round.Trials {
			if !trial.Recorded() {
				continue
			}
			row := []string{
				string(session.ID),
				session.User.Name,
				string(session.User.Sex),
				formatISO(session.StartTime),
				formatOptionalISO(session.EndTime),
				strconv.Itoa(round.RoundNumber),
				round.SoundLevel,
				strconv.Itoa(trial.TrialNumber),
				domain.FormatMs(*trial.Time),
				domain.FormatMs(round.Stats.Average),
				domain.FormatMs(round.Stats.Median),
				domain.FormatMs(round.Stats.StdDev),
				domain.FormatMs(round.Stats.SEM),
				domain.FormatMs(overall.Average),
				domain.FormatMs(overall.Median),
				domain.FormatMs(overall.StdDev),
				domain.FormatMs(overall.SEM),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write round %d trial %d: %w", round.RoundNumber, trial.TrialNumber, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAllSessions writes one summary row per session.
func WriteAllSessions(w io.Writer, sessions []domain.Session) error {
	if len(sessions) == 0 {
		return ErrNoSessions
	}

	cw := stdcsv.NewWriter(w)
	if err := cw.Write(AllSessionsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range application.BuildOverview(sessions) {
		record := []string{
			string(row.ID),
			row.User.Name,
			string(row.User.Sex),
			formatISO(row.StartTime),
			formatOptionalISO(row.EndTime),
			formatOptionalMs(row.Average),
			formatOptionalMs(row.Best),
			formatOptionalMs(row.StdDev),
			strconv.Itoa(row.ValidTrials),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write session %s: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func formatOptionalISO(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatISO(*t)
}

func formatOptionalMs(v *float64) string {
	if v == nil {
		return ""
	}
	return domain.FormatMs(*v)
}
