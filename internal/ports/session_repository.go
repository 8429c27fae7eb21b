package ports

import (
	"context"

	"github.com/bnema/reaction-test-cli/internal/domain"
)

// SessionRepository persists the whole session collection as one snapshot.
// LoadAll may return the readable sessions together with an error wrapping
// domain.ErrCorruptStore when some stored sessions could not be read.
type SessionRepository interface {
	LoadAll(ctx context.Context) ([]domain.Session, error)
	SaveAll(ctx context.Context, sessions []domain.Session) error
}
