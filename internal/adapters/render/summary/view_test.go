package summary

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summaryNow = time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

func activeSession(t *testing.T) domain.Session {
	t.Helper()

	session, err := domain.NewSession("session-active", domain.User{Name: "Ada", Sex: domain.SexFemale}, summaryNow.Add(-2*time.Hour))
	require.NoError(t, err)
	for trial := 1; trial <= domain.TrialsPerRound; trial++ {
		require.NoError(t, session.RecordTrial(1, trial, float64(200+trial*10)))
	}
	require.NoError(t, session.RecordTrial(2, 1, 400))
	return session
}

func TestRenderOverview(t *testing.T) {
	example := domain.NewExampleSession(summaryNow, rand.New(rand.NewSource(1)))
	rows := application.BuildOverview([]domain.Session{activeSession(t), example})

	output, err := RenderOverview(rows, RenderOptions{Now: summaryNow})
	require.NoError(t, err)

	assert.Contains(t, output, "sessions: 2")
	assert.Contains(t, output, "Ada, Female (session-active)")
	assert.Contains(t, output, "active: round 2, trial 2")
	assert.Contains(t, output, "started 2h00m ago")
	assert.Contains(t, output, "7/30")
	assert.Contains(t, output, "Max, Male (example_session_max)")
	assert.Contains(t, output, "completed in 15m")
	assert.Contains(t, output, "30/30")
}

func TestRenderOverviewEmpty(t *testing.T) {
	output, err := RenderOverview(nil, RenderOptions{Now: summaryNow})
	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 0")
	assert.Contains(t, output, "No sessions recorded yet.")
}

func TestRenderOverviewMissingStats(t *testing.T) {
	session, err := domain.NewSession("session-new", domain.User{Name: "Bo", Sex: domain.SexMale}, summaryNow)
	require.NoError(t, err)

	output := OverviewView(application.BuildOverview([]domain.Session{session}), RenderOptions{Now: summaryNow})

	assert.Contains(t, output, "avg: n/a  best: n/a  sd: n/a")
	assert.Contains(t, output, "started just now")
	assert.Contains(t, output, "0/30")
}

func TestRenderReport(t *testing.T) {
	output, err := RenderReport(application.BuildReport(activeSession(t)))
	require.NoError(t, err)

	assert.Contains(t, output, "Ada, Female (session-active)")
	assert.Contains(t, output, "active")
	assert.Contains(t, output, "Round 1: No music (Control, 35dB)")
	assert.Contains(t, output, "avg: 235.000 ms  median: 235.000 ms  best: 210.000 ms  n=6")
	assert.Contains(t, output, "Round 3: 70 dB")
	assert.Contains(t, output, "no recorded trials")
	assert.Contains(t, output, "#1 400.000  #2 -")
	assert.Equal(t, 1, strings.Count(output, "Round 5:"))
}

func TestRenderProgressBar(t *testing.T) {
	s := newStyles()

	assert.Equal(t, "", renderProgressBar(0.5, 0, s))
	bar := renderProgressBar(0.5, 10, s)
	assert.Contains(t, bar, strings.Repeat("=", 5))
	assert.Contains(t, bar, strings.Repeat("-", 5))
	assert.Contains(t, renderProgressBar(2, 4, s), "====")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "15m", formatDuration(15*time.Minute))
	assert.Equal(t, "2h05m", formatDuration(2*time.Hour+5*time.Minute))
}
