package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bnema/reaction-test-cli/internal/adapters/tui"
)

const fixtureSessionID = "session_1772445600000_abcd1234"

func TestVersionPrintsBuildVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestSessionListWithEmptyHomeShowsExampleSession(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sessions: 1")
	assert.Contains(t, stdout, "Max, Male (example_session_max)")
	assert.Contains(t, stdout, "30/30")
}

func TestSessionListShowsStoredSessionProgress(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sessions: 2")
	assert.Contains(t, stdout, "Ada, Female ("+fixtureSessionID+")")
	assert.Contains(t, stdout, "active: round 2, trial 3")
	assert.Contains(t, stdout, "8/30")
}

func TestSessionListJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	stdout, _, err := executeCLI(t, home, "session", "list", "--json")
	require.NoError(t, err)
	require.True(t, json.Valid([]byte(stdout)))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, fixtureSessionID, rows[0]["id"])
	assert.Equal(t, true, rows[0]["active"])
	assert.Equal(t, float64(8), rows[0]["valid_trials"])
	assert.Equal(t, "example_session_max", rows[1]["id"])
}

func TestSessionListIgnoresCorruptStore(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeRawSessions(home, "sessions = ["))

	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sessions: 1")
	assert.Contains(t, stdout, "example_session_max")
}

func TestSessionListKeepsReadableSessionsNextToABrokenOne(t *testing.T) {
	home := t.TempDir()
	broken := strings.Replace(sessionsFixture(), fixtureSessionID, "session-broken", 1)
	broken = strings.Replace(broken, "2026-03-02T10:00:00Z", "yesterday", 1)
	require.NoError(t, writeRawSessions(home, sessionsFixture()+"\n"+strings.TrimPrefix(broken, "version = 1\n\n")))

	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sessions: 2")
	assert.Contains(t, stdout, fixtureSessionID)
	assert.NotContains(t, stdout, "session-broken")
}

func TestSessionShowText(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	stdout, _, err := executeCLI(t, home, "session", "show", fixtureSessionID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ada, Female ("+fixtureSessionID+")")
	assert.Contains(t, stdout, "Round 1: No music (Control, 35dB)")
	assert.Contains(t, stdout, "avg: 235.500 ms  median: 235.500 ms  best: 210.500 ms  n=6")
	assert.Contains(t, stdout, "no recorded trials")
}

func TestSessionShowJSON(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	stdout, _, err := executeCLI(t, home, "session", "show", fixtureSessionID, "--format", "json")
	require.NoError(t, err)

	var doc sessionDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, fixtureSessionID, doc.ID)
	assert.Equal(t, "Ada", doc.Name)
	assert.Nil(t, doc.EndTime)
	assert.Equal(t, 8, doc.Overall.Count)
	require.Len(t, doc.Rounds, 5)
	require.Len(t, doc.Rounds[1].TimesMs, 6)
	require.NotNil(t, doc.Rounds[1].TimesMs[1])
	assert.Equal(t, 220.5, *doc.Rounds[1].TimesMs[1])
	assert.Nil(t, doc.Rounds[1].TimesMs[2])
}

func TestSessionShowYAML(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "session", "show", "example_session_max", "--format", "yaml")
	require.NoError(t, err)

	var doc sessionDocument
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "example_session_max", doc.ID)
	assert.Equal(t, "Male", doc.Sex)
	require.NotNil(t, doc.EndTime)
	assert.Equal(t, 30, doc.Overall.Count)
	assert.Equal(t, "No music (Control, 35dB)", doc.Rounds[0].SoundLevel)
}

func TestSessionShowUnknownFormat(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "show", "example_session_max", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format \"xml\"")
}

func TestSessionShowUnknownSession(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "show", "session-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestSessionContinueRejectsCompletedSession(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "session", "continue", "example_session_max")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session already completed")
}

func TestSessionContinueOpensExperimentAtNextTrial(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	var view string
	stubProgram(t, func(model tea.Model) {
		m, ok := model.(*tui.Model)
		require.True(t, ok)
		view = m.View()
	})

	_, _, err := executeCLI(t, home, "session", "continue", fixtureSessionID)
	require.NoError(t, err)
	assert.Contains(t, view, "Round 2 of 5")
	assert.Contains(t, view, "Resuming at trial 3 of 6")
}

func TestRunPrefillsIdentificationForm(t *testing.T) {
	var view string
	stubProgram(t, func(model tea.Model) {
		view = model.View()
	})

	_, _, err := executeCLI(t, t.TempDir(), "run", "--name", "Grace", "--sex", "f")
	require.NoError(t, err)
	assert.Contains(t, view, "Grace")
	assert.Contains(t, view, "(•) Female")
}

func TestRunRejectsInvalidSex(t *testing.T) {
	stubProgram(t, func(tea.Model) {
		t.Fatal("program must not start")
	})

	_, _, err := executeCLI(t, t.TempDir(), "run", "--sex", "other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sex")
}

func TestExportSessionWritesDetailCSV(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))
	outDir := filepath.Join(t.TempDir(), "exports")

	stdout, _, err := executeCLI(t, home, "export", "session", fixtureSessionID, "--out", outDir)
	require.NoError(t, err)

	path := strings.TrimSpace(stdout)
	assert.Equal(t, outDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "session_detail_session__"))

	records := readCSV(t, path)
	require.Len(t, records, 9)
	assert.Equal(t, "SessionID", records[0][0])
	assert.Equal(t, fixtureSessionID, records[1][0])
	assert.Equal(t, "210.500", records[1][8])
}

func TestExportSessionWritesHTMLCharts(t *testing.T) {
	outDir := t.TempDir()

	stdout, _, err := executeCLI(t, t.TempDir(), "export", "session", "example_session_max", "--format", "html", "--out", outDir)
	require.NoError(t, err)

	path := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "session_charts_example__"))
	assert.True(t, strings.HasSuffix(path, ".html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Reaction Time Distribution by Sound Condition")
}

func TestExportAllWritesOneRowPerSession(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))
	outDir := t.TempDir()

	stdout, _, err := executeCLI(t, home, "export", "all", "--out", outDir)
	require.NoError(t, err)

	path := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "all_sessions_export_"))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, fixtureSessionID, records[1][0])
	assert.Equal(t, "example_session_max", records[2][0])
}

func TestExportSessionWritesPDFSummary(t *testing.T) {
	outDir := t.TempDir()

	stdout, _, err := executeCLI(t, t.TempDir(), "export", "session", "example_session_max", "--format", "pdf", "--out", outDir)
	require.NoError(t, err)

	path := strings.TrimSpace(stdout)
	assert.Equal(t, outDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "session_summary_example__"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportActiveSessionLogsWarning(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeSessionsFixture(home))

	_, stderr, err := executeCLI(t, home, "--verbose", "export", "session", fixtureSessionID, "--out", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stderr, "exporting active session")

	_, stderr, err = executeCLI(t, home, "--verbose", "export", "session", "example_session_max", "--out", t.TempDir())
	require.NoError(t, err)
	assert.NotContains(t, stderr, "exporting active session")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "export", "session", "example_session_max", "--format", "docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format \"docx\"")
}

func TestExportIsLoggedToFile(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "export", "all", "--out", t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(home, ".reaction-test", "logs", "rt.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sessions exported")
}

func TestVerboseMirrorsLogsToStderr(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfig(home, "[logging]\nlevel = \"debug\"\n"))

	_, stderr, err := executeCLI(t, home, "--verbose", "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "app wired")
}

func TestConfiguredSessionsPathIsUsed(t *testing.T) {
	home := t.TempDir()
	sessionsPath := filepath.Join(t.TempDir(), "lab", "sessions.toml")
	require.NoError(t, writeConfig(home, fmt.Sprintf("[sessions]\npath = %q\n", sessionsPath)))
	require.NoError(t, os.MkdirAll(filepath.Dir(sessionsPath), 0o755))
	require.NoError(t, os.WriteFile(sessionsPath, []byte(sessionsFixture()), 0o600))

	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, fixtureSessionID)
}

func TestContinueCompletesFullyRecordedSession(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeRawSessions(home, sessionsFixtureWith(30)))
	stubProgram(t, func(tea.Model) {
		t.Fatal("program must not start")
	})

	stdout, _, err := executeCLI(t, home, "session", "continue", fixtureSessionID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "session "+fixtureSessionID+" completed")

	stdout, _, err = executeCLI(t, home, "session", "show", fixtureSessionID, "--format", "json")
	require.NoError(t, err)
	var doc sessionDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.NotNil(t, doc.EndTime)
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("RT_SESSIONS_PATH", "")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func stubProgram(t *testing.T, inspect func(tea.Model)) {
	t.Helper()

	previous := runProgram
	runProgram = func(model tea.Model, _ ...tea.ProgramOption) (tea.Model, error) {
		inspect(model)
		return model, nil
	}
	t.Cleanup(func() { runProgram = previous })
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func writeConfig(home, content string) error {
	configDir := filepath.Join(home, ".reaction-test")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644)
}

func writeRawSessions(home, content string) error {
	configDir := filepath.Join(home, ".reaction-test")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "sessions.toml"), []byte(content), 0o600)
}

func writeSessionsFixture(home string) error {
	return writeRawSessions(home, sessionsFixture())
}

// sessionsFixture stores one active session for Ada with round 1 and the
// first two trials of round 2 recorded.
func sessionsFixture() string {
	return sessionsFixtureWith(8)
}

func sessionsFixtureWith(recorded int) string {
	var b strings.Builder
	b.WriteString("version = 1\n\n")
	b.WriteString("[[sessions]]\n")
	fmt.Fprintf(&b, "id = %q\n", fixtureSessionID)
	b.WriteString("start_time = \"2026-03-02T10:00:00Z\"\n\n")
	b.WriteString("[sessions.user]\nname = \"Ada\"\nsex = \"Female\"\n")

	n := 0
	for round := 1; round <= 5; round++ {
		fmt.Fprintf(&b, "\n[[sessions.rounds]]\nround_number = %d\n", round)
		for trial := 1; trial <= 6; trial++ {
			fmt.Fprintf(&b, "\n[[sessions.rounds.trials]]\ntrial_number = %d\n", trial)
			if n < recorded {
				fmt.Fprintf(&b, "time_ms = %.1f\n", float64(200+trial*10)+0.5)
			}
			n++
		}
	}

	return b.String()
}
