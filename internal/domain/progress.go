package domain

// Progress is the coordinate of the next trial to run.
type Progress struct {
	Round    int
	Trial    int
	Complete bool
}

// Locate scans rounds, then trials, in stored order and returns the first slot
// without a time. A fully recorded session reports Complete pinned at the last slot.
func Locate(session Session) Progress {
	for _, round := range session.Rounds {
		for _, trial := range round.Trials {
			if trial.Time == nil {
				return Progress{Round: round.RoundNumber, Trial: trial.TrialNumber}
			}
		}
	}

	return Progress{Round: TotalRounds, Trial: TrialsPerRound, Complete: true}
}
