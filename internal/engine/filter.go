package engine

import (
	"time"

	"github.com/julianstephens/stride/internal/models"
)

// Filter narrows the habit list for display. Zero values disable the axis.
type Filter struct {
	Category models.Category
	Status   models.Status
}

// FilterHabits returns the habits matching f, preserving insertion order.
// Unknown status values do not filter.
func FilterHabits(habits []models.Habit, completions map[string][]models.Day, f Filter, now time.Time) []models.Habit {
	today := models.DayOf(now)
	out := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		if f.Category != "" && h.Category != f.Category {
			continue
		}
		if !matchesStatus(h, completions[h.ID], f.Status, today, now) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func matchesStatus(h models.Habit, days []models.Day, status models.Status, today models.Day, now time.Time) bool {
	if status == "" {
		return true
	}
	doneToday := containsDay(days, today)
	switch status {
	case models.StatusCompleted:
		return doneToday
	case models.StatusActive:
		return !doneToday
	case models.StatusOverdue:
		return !doneToday && IsOverdue(h, now)
	default:
		return true
	}
}
