package domain

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionCompleted     = errors.New("session already completed")
	ErrSessionIncomplete    = errors.New("session has unrecorded trials")
	ErrInvalidSessionShape  = errors.New("invalid session shape")
	ErrTrialOutOfRange      = errors.New("trial coordinate out of range")
	ErrTrialAlreadyRecorded = errors.New("trial already recorded")
	ErrInvalidTrialTime     = errors.New("invalid trial time")
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidSex           = errors.New("invalid sex")
	ErrCorruptStore         = errors.New("session store is corrupt")
)
