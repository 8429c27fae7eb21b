package csv

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/bnema/reaction-test-cli/internal/ports"
)

const (
	fileTimestampLayout = "20060102_150405"
	exportFileMode      = 0o644
	exportDirMode       = 0o755
)

// Exporter writes CSV files into a directory, naming them after the session
// and the local export time.
type Exporter struct {
	dir   string
	clock ports.Clock
}

func NewExporter(dir string, clock ports.Clock) *Exporter {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Exporter{dir: dir, clock: clock}
}

func SessionDetailFileName(id domain.SessionID, at time.Time) string {
	prefix := string(id)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("session_detail_%s_%s.csv", prefix, at.Format(fileTimestampLayout))
}

func AllSessionsFileName(at time.Time) string {
	return fmt.Sprintf("all_sessions_export_%s.csv", at.Format(fileTimestampLayout))
}

// ExportSession writes the detailed CSV of one session and returns its path.
func (e *Exporter) ExportSession(session domain.Session) (string, error) {
	path := filepath.Join(e.dir, SessionDetailFileName(session.ID, e.clock.Now()))
	report := application.BuildReport(session)

	if err := e.create(path, func(f *os.File) error {
		return WriteSessionDetail(f, report)
	}); err != nil {
		return "", err
	}
	return path, nil
}

// ExportAll writes the all-sessions summary CSV and returns its path.
func (e *Exporter) ExportAll(sessions []domain.Session) (string, error) {
	if len(sessions) == 0 {
		return "", ErrNoSessions
	}

	path := filepath.Join(e.dir, AllSessionsFileName(e.clock.Now()))
	if err := e.create(path, func(f *os.File) error {
		return WriteAllSessions(f, sessions)
	}); err != nil {
		return "", err
	}
	return path, nil
}

func (e *Exporter) create(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(e.dir, exportDirMode); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, exportFileMode)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}
