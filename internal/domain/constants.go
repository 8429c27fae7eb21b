package domain

import "time"

const (
	MinDelay = 1000 * time.Millisecond
	MaxDelay = 3000 * time.Millisecond

	TotalRounds    = 5
	TrialsPerRound = 6

	// ScorePrecision is the number of decimals used when a time is shown.
	ScorePrecision = 3
)

// RoundSoundLevels holds the auditory condition of each round, indexed by round number - 1.
var RoundSoundLevels = [TotalRounds]string{
	"No music (Control, 35dB)",
	"40 dB",
	"70 dB",
	"50 dB",
	"60 dB",
}

// ChartRoundOrder lists round numbers by ascending sound level.
var ChartRoundOrder = [TotalRounds]int{1, 2, 4, 5, 3}

// SoundLevel returns the condition label for a 1-indexed round.
func SoundLevel(roundNumber int) string {
	if roundNumber < 1 || roundNumber > TotalRounds {
		return "N/A"
	}
	return RoundSoundLevels[roundNumber-1]
}
