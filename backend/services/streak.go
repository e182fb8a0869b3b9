package services

import (
	"time"

	"learnhub/backend/utils"
)

type StreakChange int

const (
	StreakUnchanged StreakChange = iota
	StreakStarted
	StreakExtended
	StreakReset
)

// NextStreak computes the study streak after studying at now, given the
// previous streak and last study date. Days are compared at midnight in loc.
func NextStreak(current int, last *time.Time, now time.Time, loc *time.Location) (int, StreakChange) {
	if last == nil {
		return 1, StreakStarted
	}

	switch gap := utils.DaysBetween(*last, now, loc); {
	case gap > 1:
		return 1, StreakReset
	case gap == 1:
		return current + 1, StreakExtended
	default:
		// Same day, or a last date in the future after a clock change.
		if current < 1 {
			return 1, StreakUnchanged
		}
		return current, StreakUnchanged
	}
}
