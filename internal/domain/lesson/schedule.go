package lesson

import "time"

// reviewIntervals holds the spacing between reviews in days, indexed by
// review level - 1. Growth plateaus at the last entry.
var reviewIntervals = [...]int{1, 2, 4, 7, 14, 30, 60}

// NextReview advances the spaced-repetition schedule for a review performed
// at reviewedAt. The new level is always currentLevel + 1; the next review
// time is reviewedAt plus the table interval, using plain duration arithmetic
// with no calendar rounding.
func NextReview(currentLevel int, reviewedAt time.Time) (newLevel int, nextReviewAt time.Time) {
	if currentLevel < 0 {
		currentLevel = 0
	}
	newLevel = currentLevel + 1

	idx := newLevel - 1
	if idx >= len(reviewIntervals) {
		idx = len(reviewIntervals) - 1
	}
	days := reviewIntervals[idx]

	return newLevel, reviewedAt.Add(time.Duration(days) * 24 * time.Hour)
}

// ReviewIntervalDays returns the interval applied when advancing to level.
// Levels beyond the table saturate at the last entry.
func ReviewIntervalDays(level int) int {
	if level < 1 {
		level = 1
	}
	idx := level - 1
	if idx >= len(reviewIntervals) {
		idx = len(reviewIntervals) - 1
	}
	return reviewIntervals[idx]
}
