package engine

import (
	"math"
	"time"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/models"
)

// OverdueThreshold returns the number of whole days a habit of the given
// frequency may go uncompleted. ok is false for unknown frequencies.
func OverdueThreshold(f models.Frequency) (days int, ok bool) {
	switch f {
	case models.FrequencyDaily:
		return constants.OverdueDaysDaily, true
	case models.FrequencyWeekly:
		return constants.OverdueDaysWeekly, true
	case models.FrequencyMonthly:
		return constants.OverdueDaysMonthly, true
	default:
		return 0, false
	}
}

// IsOverdue reports whether more than the frequency's threshold of whole
// days has elapsed since the habit was last completed. Habits never
// completed are overdue; habits with an unknown frequency never are.
func IsOverdue(h models.Habit, now time.Time) bool {
	if h.LastCompletedAt == nil {
		return true
	}

	threshold, ok := OverdueThreshold(h.Frequency)
	if !ok {
		return false
	}

	return DaysElapsed(*h.LastCompletedAt, now) > threshold
}

// DaysElapsed returns the number of whole 24h periods from since to now.
func DaysElapsed(since, now time.Time) int {
	return int(math.Floor(now.Sub(since).Hours() / 24))
}
