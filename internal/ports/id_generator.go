package ports

import "github.com/bnema/reaction-test-cli/internal/domain"

type SessionIDGenerator interface {
	NewSessionID() domain.SessionID
}
