package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStart = time.Date(2026, 2, 14, 11, 0, 0, 123456789, time.UTC)

func newTestRepository(t *testing.T, path string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(SessionsPathKey, path)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func partialSession(t *testing.T, id domain.SessionID) domain.Session {
	t.Helper()

	session, err := domain.NewSession(id, domain.User{Name: "Ada", Sex: domain.SexFemale}, repoStart)
	require.NoError(t, err)
	require.NoError(t, session.RecordTrial(1, 1, 251.125))
	require.NoError(t, session.RecordTrial(1, 2, 0))
	require.NoError(t, session.RecordTrial(2, 1, 198.5))
	return session
}

func completedSession(t *testing.T, id domain.SessionID) domain.Session {
	t.Helper()

	session, err := domain.NewSession(id, domain.User{Name: "Linus", Sex: domain.SexMale}, repoStart)
	require.NoError(t, err)
	for round := 1; round <= domain.TotalRounds; round++ {
		for trial := 1; trial <= domain.TrialsPerRound; trial++ {
			require.NoError(t, session.RecordTrial(round, trial, float64(200+round*10+trial)))
		}
	}
	require.NoError(t, session.Complete(repoStart.Add(12*time.Minute)))
	return session
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "sessions.toml"))

	partial := partialSession(t, "session-partial")
	completed := completedSession(t, "session-done")

	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partial, completed}))

	sessions, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, partial.ID, sessions[0].ID)
	assert.Equal(t, partial.User, sessions[0].User)
	assert.True(t, partial.StartTime.Equal(sessions[0].StartTime))
	assert.Nil(t, sessions[0].EndTime)
	assert.Equal(t, partial.Times(), sessions[0].Times())
	require.NoError(t, sessions[0].ValidateShape())

	assert.Equal(t, domain.Progress{Round: 1, Trial: 3}, domain.Locate(sessions[0]))
	require.NotNil(t, sessions[0].Rounds[0].Trials[1].Time, "a zero time is still a recorded time")
	assert.Equal(t, 0.0, *sessions[0].Rounds[0].Trials[1].Time)
	assert.Nil(t, sessions[0].Rounds[4].Trials[5].Time)

	require.NotNil(t, sessions[1].EndTime)
	assert.True(t, completed.EndTime.Equal(*sessions[1].EndTime))
	assert.Equal(t, completed.Times(), sessions[1].Times())
}

func TestRepositorySaveAllReplacesHistory(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "sessions.toml"))

	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{
		partialSession(t, "session-a"),
		partialSession(t, "session-b"),
	}))
	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partialSession(t, "session-b")}))

	sessions, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.SessionID("session-b"), sessions[0].ID)
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partialSession(t, "session-a")}))

	sessionsPath := filepath.Join(homeDir, ".reaction-test", "sessions.toml")
	assert.Equal(t, sessionsPath, repo.Path())
	info, err := os.Stat(sessionsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryMissingFileIsEmptyHistory(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "sessions.toml"))

	sessions, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRepositoryMalformedTOMLIsCorrupt(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	require.NoError(t, os.WriteFile(sessionsPath, []byte("sessions = ["), 0o600))

	repo := newTestRepository(t, sessionsPath)

	_, err := repo.LoadAll(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.ErrorContains(t, err, "decode sessions file")
}

func TestRepositoryBadTimestampIsCorrupt(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	require.NoError(t, os.WriteFile(sessionsPath, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[[sessions]]",
		"id = \"session-a\"",
		"start_time = \"yesterday\"",
		"",
		"[sessions.user]",
		"name = \"Ada\"",
		"sex = \"Female\"",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, sessionsPath)

	_, err := repo.LoadAll(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.ErrorContains(t, err, "session-a")
}

func TestRepositoryLoadSkipsUnreadableSessions(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	repo := newTestRepository(t, sessionsPath)

	odd := partialSession(t, "session-b")
	odd.StartTime = repoStart.Add(time.Hour)
	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{
		partialSession(t, "session-a"),
		odd,
		completedSession(t, "session-c"),
	}))

	data, err := os.ReadFile(sessionsPath)
	require.NoError(t, err)
	damaged := strings.Replace(string(data), formatTime(odd.StartTime), "not-a-time", 1)
	require.NotEqual(t, string(data), damaged)
	require.NoError(t, os.WriteFile(sessionsPath, []byte(damaged), 0o600))

	sessions, err := newTestRepository(t, sessionsPath).LoadAll(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.ErrorContains(t, err, "skipped 1 of 3 sessions")
	assert.ErrorContains(t, err, "session-b")
	require.Len(t, sessions, 2)
	assert.Equal(t, domain.SessionID("session-a"), sessions[0].ID)
	assert.Equal(t, domain.SessionID("session-c"), sessions[1].ID)
}

func TestRepositoryLoadSkipsSessionsWithInvalidValues(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	repo := newTestRepository(t, sessionsPath)

	badSex := partialSession(t, "session-bad-sex")
	badSex.User.Sex = "Other"
	badTime := partialSession(t, "session-bad-time")
	negative := -5.0
	badTime.Rounds[0].Trials[0].Time = &negative
	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{
		badSex,
		partialSession(t, "session-ok"),
		badTime,
	}))

	sessions, err := newTestRepository(t, sessionsPath).LoadAll(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.ErrorIs(t, err, domain.ErrInvalidSex)
	assert.ErrorIs(t, err, domain.ErrInvalidTrialTime)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.SessionID("session-ok"), sessions[0].ID)
}

func TestRepositorySaveAfterUnreadableLoadKeepsOldFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sessionsPath := filepath.Join(dir, "sessions.toml")
	require.NoError(t, os.WriteFile(sessionsPath, []byte("sessions = ["), 0o600))

	repo := newTestRepository(t, sessionsPath)
	repo.now = func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) }

	_, err := repo.LoadAll(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptStore)

	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partialSession(t, "session-a")}))
	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partialSession(t, "session-b")}))

	kept, err := os.ReadFile(sessionsPath + ".corrupt-20260506T070809")
	require.NoError(t, err)
	assert.Equal(t, "sessions = [", string(kept))

	backups, err := filepath.Glob(sessionsPath + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, backups, 1, "only the first save after the failed load moves the file aside")

	sessions, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.SessionID("session-b"), sessions[0].ID)
}

func TestRepositorySaveAfterCleanLoadLeavesNoBackup(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	repo := newTestRepository(t, sessionsPath)
	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partialSession(t, "session-a")}))

	_, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partialSession(t, "session-b")}))

	backups, err := filepath.Glob(sessionsPath + ".corrupt-*")
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRepositoryFutureSchemaVersionIsCorrupt(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	require.NoError(t, os.WriteFile(sessionsPath, []byte("version = 999\n\nsessions = []\n"), 0o600))

	repo := newTestRepository(t, sessionsPath)

	_, err := repo.LoadAll(context.Background())
	require.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.ErrorContains(t, err, "unsupported sessions schema version")
}

func TestRepositorySaveSerializedTOMLIncludesVersionAndOmitsPendingTimes(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	repo := newTestRepository(t, sessionsPath)

	require.NoError(t, repo.SaveAll(context.Background(), []domain.Session{partialSession(t, "session-a")}))

	data, err := os.ReadFile(sessionsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Equal(t, 3, strings.Count(string(data), "time_ms"))
	assert.NotContains(t, string(data), "end_time")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "sessions.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.SaveAll(ctx, []domain.Session{partialSession(t, "session-a")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesNeverTearFile(t *testing.T) {
	t.Parallel()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.toml")
	repoA := newTestRepository(t, sessionsPath)
	repoB := newTestRepository(t, sessionsPath)

	snapshotA := []domain.Session{partialSession(t, "session-a")}
	snapshotB := []domain.Session{partialSession(t, "session-b"), completedSession(t, "session-c")}

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repoA.SaveAll(context.Background(), snapshotA)
		}
	}()

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repoB.SaveAll(context.Background(), snapshotB)
		}
	}()

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	sessions, err := repoA.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Contains(t, []int{len(snapshotA), len(snapshotB)}, len(sessions))
}
