package domain

import (
	"math"
	"math/rand"
	"time"
)

const ExampleSessionID SessionID = "example_session_max"

var exampleBaseTimes = [TotalRounds]float64{180, 220, 250, 280, 320}

const (
	exampleVariation = 50.0
	exampleFloor     = 100.0
)

// NewExampleSession builds the completed demonstration session shown next to
// real participants. It is never persisted.
func NewExampleSession(now time.Time, r *rand.Rand) Session {
	rounds := make([]RoundData, TotalRounds)
	for i := range rounds {
		trials := make([]TrialScore, TrialsPerRound)
		for j := range trials {
			variation := r.Float64()*exampleVariation - exampleVariation/2
			value := math.Max(exampleFloor, math.Round(exampleBaseTimes[i]+variation))
			trials[j] = TrialScore{TrialNumber: j + 1, Time: &value}
		}
		rounds[i] = RoundData{RoundNumber: i + 1, Trials: trials}
	}

	start := now.Add(-30 * time.Minute)
	end := start.Add(15 * time.Minute)

	return Session{
		ID:        ExampleSessionID,
		User:      User{Name: "Max", Sex: SexMale},
		Rounds:    rounds,
		StartTime: start,
		EndTime:   &end,
	}
}

func IsExampleSession(id SessionID) bool {
	return id == ExampleSessionID
}
