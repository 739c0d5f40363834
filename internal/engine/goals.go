package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/stride/internal/models"
)

// GoalPercent returns current as a percentage of target. The result is not
// clamped, so it exceeds 100 once the target is passed. A non-positive
// target yields 0.
func GoalPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return current / target * 100
}

// HabitPercent returns the habit's completion count as a percentage of its
// goal, clamped to 100 for progress bars.
func HabitPercent(h models.Habit) float64 {
	if h.Goal <= 0 {
		return 0
	}
	return math.Min(float64(h.CompletedCount)/float64(h.Goal)*100, 100)
}

// DaysRemaining returns the ceiling of the whole days between now and the
// start of the deadline day in now's location. Negative values mean the
// deadline has passed by that many days.
func DaysRemaining(deadline models.Day, now time.Time) int {
	due := deadline.Midnight(now.Location())
	if due.IsZero() {
		return 0
	}
	days := math.Ceil(due.Sub(now).Hours() / 24)
	if days == 0 {
		// Avoid reporting -0 from math.Ceil on small negative values.
		return 0
	}
	return int(days)
}

// FormatDaysRemaining renders a DaysRemaining result for display.
func FormatDaysRemaining(days int) string {
	if days < 0 {
		return fmt.Sprintf("%d days overdue", -days)
	}
	return fmt.Sprintf("%d days remaining", days)
}

// RoundHalfUp rounds half-way values toward positive infinity.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
