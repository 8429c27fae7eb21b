package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported sessions schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	ID        string        `toml:"id"`
	User      userSchema    `toml:"user"`
	StartTime string        `toml:"start_time"`
	EndTime   string        `toml:"end_time,omitempty"`
	Rounds    []roundSchema `toml:"rounds"`
}

type userSchema struct {
	Name string `toml:"name"`
	Sex  string `toml:"sex"`
}

type roundSchema struct {
	RoundNumber int           `toml:"round_number"`
	Trials      []trialSchema `toml:"trials"`
}

// trialSchema leaves time_ms out entirely for a trial that has not run yet.
type trialSchema struct {
	TrialNumber int      `toml:"trial_number"`
	TimeMs      *float64 `toml:"time_ms,omitempty"`
}
