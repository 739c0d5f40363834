// Package engine derives streaks, overdue flags, dashboard aggregates and
// goal progress from the tracker's persisted records. Every function is
// pure: the current time is always passed in, and nothing is cached.
package engine

import (
	"sort"

	"github.com/julianstephens/stride/internal/models"
)

// Streak returns the length of the unbroken run of consecutive completion
// days ending today or yesterday. A gap of two or more days before today
// yields 0; any skipped day inside the run ends it.
func Streak(days []models.Day, today models.Day) int {
	sorted := uniqueDescending(days)
	if len(sorted) == 0 {
		return 0
	}

	if today.DaysSince(sorted[0]) > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].DaysSince(sorted[i]) != 1 {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive days anywhere in the set.
func LongestStreak(days []models.Day) int {
	sorted := uniqueDescending(days)
	if len(sorted) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].DaysSince(sorted[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// uniqueDescending drops malformed and duplicate days and sorts the rest newest first.
func uniqueDescending(days []models.Day) []models.Day {
	seen := make(map[models.Day]struct{}, len(days))
	out := make([]models.Day, 0, len(days))
	for _, d := range days {
		if !d.Valid() {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}
