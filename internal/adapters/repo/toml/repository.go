package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/bnema/reaction-test-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	SessionsPathKey    = "sessions.path"
	sessionsFileMode   = 0o600
	sessionsDirMode    = 0o700
	sessionsConfigDir  = ".reaction-test"
	sessionsConfigFile = "sessions.toml"
	tempFilePattern    = ".sessions-*.toml.tmp"
	backupTimeLayout   = "20060102T150405"
)

// Repository stores every session in a single TOML file. Each save replaces
// the file atomically. Once a load finds unreadable content, the next save
// first moves the old file aside to <path>.corrupt-<timestamp>.
type Repository struct {
	sessionsPath string
	mu           *sync.RWMutex
	now          func() time.Time
	keepOnSave   atomic.Bool
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(SessionsPathKey, filepath.Join(homeDir, sessionsConfigDir, sessionsConfigFile))

	sessionsPath := cfg.GetString(SessionsPathKey)
	if sessionsPath == "" {
		return nil, errors.New("sessions path is empty")
	}
	sessionsPath, err = normalizeSessionsPath(sessionsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{sessionsPath: sessionsPath, mu: lockForPath(sessionsPath), now: time.Now}, nil
}

func (r *Repository) Path() string {
	return r.sessionsPath
}

// LoadAll returns the stored sessions in file order. A missing file is an
// empty history. An unreadable file returns no sessions and an error wrapping
// domain.ErrCorruptStore; an unreadable session is skipped and reported the
// same way next to the readable ones.
func (r *Repository) LoadAll(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		r.keepOnSave.Store(true)
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(file.Sessions))
	var skipped []error
	for _, entry := range file.Sessions {
		session, err := fromSchema(entry)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("session %q: %w", entry.ID, err))
			continue
		}
		sessions = append(sessions, session)
	}

	if len(skipped) > 0 {
		r.keepOnSave.Store(true)
		return sessions, fmt.Errorf("%w: skipped %d of %d sessions: %w",
			domain.ErrCorruptStore, len(skipped), len(file.Sessions), errors.Join(skipped...))
	}

	return sessions, nil
}

// SaveAll replaces the stored history with sessions.
func (r *Repository) SaveAll(ctx context.Context, sessions []domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := fileSchema{Sessions: make([]sessionSchema, 0, len(sessions))}
	for _, session := range sessions {
		file.Sessions = append(file.Sessions, toSchema(session))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if r.keepOnSave.Load() {
		if err := r.backupUnreadable(); err != nil {
			return err
		}
	}

	if err := r.writeSchema(file); err != nil {
		return err
	}
	r.keepOnSave.Store(false)
	return nil
}

func (r *Repository) backupUnreadable() error {
	backupPath := fmt.Sprintf("%s.corrupt-%s", r.sessionsPath, r.now().UTC().Format(backupTimeLayout))
	if err := os.Rename(r.sessionsPath, backupPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("keep unreadable sessions file: %w", err)
	}

	return nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.sessionsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read sessions file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("%w: decode sessions file: %v", domain.ErrCorruptStore, err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, fmt.Errorf("%w: %v", domain.ErrCorruptStore, err)
	}
	file.applyDefaults()

	return file, nil
}

func normalizeSessionsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sessions path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.sessionsPath), sessionsDirMode); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode sessions file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.sessionsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp sessions file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp sessions file: %w", err)
	}

	if err := tempFile.Chmod(sessionsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp sessions file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp sessions file: %w", err)
	}

	if err := os.Rename(tempName, r.sessionsPath); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(session domain.Session) sessionSchema {
	rounds := make([]roundSchema, 0, len(session.Rounds))
	for _, round := range session.Rounds {
		trials := make([]trialSchema, 0, len(round.Trials))
		for _, trial := range round.Trials {
			entry := trialSchema{TrialNumber: trial.TrialNumber}
			if trial.Time != nil {
				value := *trial.Time
				entry.TimeMs = &value
			}
			trials = append(trials, entry)
		}
		rounds = append(rounds, roundSchema{RoundNumber: round.RoundNumber, Trials: trials})
	}

	entry := sessionSchema{
		ID:        string(session.ID),
		User:      userSchema{Name: session.User.Name, Sex: string(session.User.Sex)},
		StartTime: formatTime(session.StartTime),
		Rounds:    rounds,
	}
	if session.EndTime != nil {
		entry.EndTime = formatTime(*session.EndTime)
	}

	return entry
}

func fromSchema(entry sessionSchema) (domain.Session, error) {
	start, err := parseTime(entry.StartTime)
	if err != nil {
		return domain.Session{}, fmt.Errorf("start time: %w", err)
	}

	session := domain.Session{
		ID:        domain.SessionID(entry.ID),
		User:      domain.User{Name: entry.User.Name, Sex: domain.Sex(entry.User.Sex)},
		StartTime: start,
		Rounds:    make([]domain.RoundData, 0, len(entry.Rounds)),
	}

	if entry.EndTime != "" {
		end, err := parseTime(entry.EndTime)
		if err != nil {
			return domain.Session{}, fmt.Errorf("end time: %w", err)
		}
		session.EndTime = &end
	}

	for _, round := range entry.Rounds {
		trials := make([]domain.TrialScore, 0, len(round.Trials))
		for _, trial := range round.Trials {
			score := domain.TrialScore{TrialNumber: trial.TrialNumber}
			if trial.TimeMs != nil {
				value := *trial.TimeMs
				score.Time = &value
			}
			trials = append(trials, score)
		}
		session.Rounds = append(session.Rounds, domain.RoundData{RoundNumber: round.RoundNumber, Trials: trials})
	}

	if err := session.Validate(); err != nil {
		return domain.Session{}, err
	}

	return session, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing timestamp")
	}

	return time.Parse(time.RFC3339Nano, raw)
}

func formatTime(value time.Time) string {
	return value.Format(time.RFC3339Nano)
}
