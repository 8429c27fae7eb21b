package domain

import (
	"fmt"
	"strings"
)

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale:
		return true
	default:
		return false
	}
}

// ParseSex accepts the canonical labels case-insensitively, plus "m" and "f".
func ParseSex(raw string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "m":
		return SexMale, nil
	case "female", "f":
		return SexFemale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSex, raw)
	}
}

type User struct {
	Name string
	Sex  Sex
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrNameRequired
	}
	if !u.Sex.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSex, u.Sex)
	}

	return nil
}
