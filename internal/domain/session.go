package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type SessionID string

// TrialScore is one trial slot. A nil Time means the trial has not been recorded yet.
type TrialScore struct {
	TrialNumber int
	Time        *float64
}

func (t TrialScore) Recorded() bool {
	return t.Time != nil
}

type RoundData struct {
	RoundNumber int
	Trials      []TrialScore
}

// Times returns the recorded times of the round in trial order.
func (r RoundData) Times() []float64 {
	times := make([]float64, 0, len(r.Trials))
	for _, trial := range r.Trials {
		if trial.Time != nil {
			times = append(times, *trial.Time)
		}
	}
	return times
}

type Session struct {
	ID        SessionID
	User      User
	Rounds    []RoundData
	StartTime time.Time
	EndTime   *time.Time
}

// NewSession allocates every round and trial slot up front. The shape never
// changes afterwards; only trial times move from absent to present.
func NewSession(id SessionID, user User, startTime time.Time) (Session, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Session{}, fmt.Errorf("%w: id is required", ErrInvalidSessionShape)
	}
	if err := user.Validate(); err != nil {
		return Session{}, err
	}

	rounds := make([]RoundData, TotalRounds)
	for i := range rounds {
		trials := make([]TrialScore, TrialsPerRound)
		for j := range trials {
			trials[j] = TrialScore{TrialNumber: j + 1}
		}
		rounds[i] = RoundData{RoundNumber: i + 1, Trials: trials}
	}

	session := Session{
		ID:        id,
		User:      User{Name: strings.TrimSpace(user.Name), Sex: user.Sex},
		Rounds:    rounds,
		StartTime: startTime,
	}
	if err := session.ValidateShape(); err != nil {
		return Session{}, err
	}

	return session, nil
}

// ValidateShape checks the round/trial layout: TotalRounds rounds numbered
// 1..TotalRounds, each holding TrialsPerRound trials numbered 1..TrialsPerRound.
func (s Session) ValidateShape() error {
	if len(s.Rounds) != TotalRounds {
		return fmt.Errorf("%w: %d rounds, want %d", ErrInvalidSessionShape, len(s.Rounds), TotalRounds)
	}
	for i, round := range s.Rounds {
		if round.RoundNumber != i+1 {
			return fmt.Errorf("%w: round %d numbered %d", ErrInvalidSessionShape, i+1, round.RoundNumber)
		}
		if len(round.Trials) != TrialsPerRound {
			return fmt.Errorf("%w: round %d has %d trials, want %d", ErrInvalidSessionShape, round.RoundNumber, len(round.Trials), TrialsPerRound)
		}
		for j, trial := range round.Trials {
			if trial.TrialNumber != j+1 {
				return fmt.Errorf("%w: round %d trial %d numbered %d", ErrInvalidSessionShape, round.RoundNumber, j+1, trial.TrialNumber)
			}
		}
	}

	return nil
}

// Validate checks a session read back from storage: its id, user, shape and
// every recorded time.
func (s Session) Validate() error {
	if strings.TrimSpace(string(s.ID)) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSessionShape)
	}
	if err := s.User.Validate(); err != nil {
		return err
	}
	if err := s.ValidateShape(); err != nil {
		return err
	}
	for _, round := range s.Rounds {
		for _, trial := range round.Trials {
			if trial.Time == nil {
				continue
			}
			if ms := *trial.Time; math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
				return fmt.Errorf("%w: round %d trial %d: %v", ErrInvalidTrialTime, round.RoundNumber, trial.TrialNumber, ms)
			}
		}
	}

	return nil
}

func (s Session) Active() bool {
	return s.EndTime == nil
}

func (s Session) Completed() bool {
	return s.EndTime != nil
}

// RecordTrial stores the time of a single slot. A slot is written once.
func (s *Session) RecordTrial(roundNumber, trialNumber int, ms float64) error {
	if s.Completed() {
		return ErrSessionCompleted
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTrialTime, ms)
	}

	trial, err := s.slot(roundNumber, trialNumber)
	if err != nil {
		return err
	}
	if trial.Time != nil {
		return fmt.Errorf("%w: round %d trial %d", ErrTrialAlreadyRecorded, roundNumber, trialNumber)
	}

	value := ms
	trial.Time = &value
	return nil
}

// Complete stamps the end time. It succeeds once, after every slot is recorded.
func (s *Session) Complete(now time.Time) error {
	if s.Completed() {
		return ErrSessionCompleted
	}
	if !Locate(*s).Complete {
		return ErrSessionIncomplete
	}

	end := now
	s.EndTime = &end
	return nil
}

// Times returns every recorded time in round then trial order.
func (s Session) Times() []float64 {
	times := make([]float64, 0, TotalRounds*TrialsPerRound)
	for _, round := range s.Rounds {
		times = append(times, round.Times()...)
	}
	return times
}

// RecordedCount counts the slots holding a time.
func (s Session) RecordedCount() int {
	count := 0
	for _, round := range s.Rounds {
		for _, trial := range round.Trials {
			if trial.Time != nil {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy that shares no pointers with s.
func (s Session) Clone() Session {
	clone := s
	clone.Rounds = make([]RoundData, len(s.Rounds))
	for i, round := range s.Rounds {
		trials := make([]TrialScore, len(round.Trials))
		for j, trial := range round.Trials {
			trials[j] = TrialScore{TrialNumber: trial.TrialNumber}
			if trial.Time != nil {
				value := *trial.Time
				trials[j].Time = &value
			}
		}
		clone.Rounds[i] = RoundData{RoundNumber: round.RoundNumber, Trials: trials}
	}
	if s.EndTime != nil {
		end := *s.EndTime
		clone.EndTime = &end
	}

	return clone
}

func (s *Session) slot(roundNumber, trialNumber int) (*TrialScore, error) {
	for i := range s.Rounds {
		if s.Rounds[i].RoundNumber != roundNumber {
			continue
		}
		for j := range s.Rounds[i].Trials {
			if s.Rounds[i].Trials[j].TrialNumber == trialNumber {
				return &s.Rounds[i].Trials[j], nil
			}
		}
	}

	return nil, fmt.Errorf("%w: round %d trial %d", ErrTrialOutOfRange, roundNumber, trialNumber)
}
