package application

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/bnema/reaction-test-cli/internal/ports"
)

type SessionIDGenerator struct {
	clock ports.Clock
}

var _ ports.SessionIDGenerator = SessionIDGenerator{}

func NewSessionIDGenerator(clock ports.Clock) SessionIDGenerator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return SessionIDGenerator{clock: clock}
}

// NewSessionID returns ids shaped like session_<unix millis>_<random suffix>.
func (g SessionIDGenerator) NewSessionID() domain.SessionID {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return domain.SessionID(fmt.Sprintf("session_%d_%s", g.clock.Now().UnixMilli(), suffix))
}
