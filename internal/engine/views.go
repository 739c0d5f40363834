package engine

import (
	"time"

	"github.com/julianstephens/stride/internal/models"
)

// HabitView carries a habit with the fields derived for display.
type HabitView struct {
	Habit          models.Habit
	Streak         int
	LongestStreak  int
	CompletedToday bool
	Overdue        bool
	Percent        float64 // completed/goal, clamped to 100
}

// GoalView carries a goal with the fields derived for display.
type GoalView struct {
	Goal          models.Goal
	Percent       float64 // uncapped
	DaysRemaining int
	PastDeadline  bool
}

// ViewHabit derives the display fields for one habit.
func ViewHabit(h models.Habit, days []models.Day, now time.Time) HabitView {
	today := models.DayOf(now)
	return HabitView{
		Habit:          h,
		Streak:         Streak(days, today),
		LongestStreak:  LongestStreak(days),
		CompletedToday: containsDay(days, today),
		Overdue:        IsOverdue(h, now),
		Percent:        HabitPercent(h),
	}
}

// ViewHabits derives display fields for each habit in order.
func ViewHabits(habits []models.Habit, completions map[string][]models.Day, now time.Time) []HabitView {
	views := make([]HabitView, len(habits))
	for i, h := range habits {
		views[i] = ViewHabit(h, completions[h.ID], now)
	}
	return views
}

// ViewGoal derives the display fields for one goal.
func ViewGoal(g models.Goal, now time.Time) GoalView {
	days := DaysRemaining(g.Deadline, now)
	return GoalView{
		Goal:          g,
		Percent:       GoalPercent(g.Current, g.Target),
		DaysRemaining: days,
		PastDeadline:  days < 0,
	}
}

// ViewGoals derives display fields for each goal in order.
func ViewGoals(goals []models.Goal, now time.Time) []GoalView {
	views := make([]GoalView, len(goals))
	for i, g := range goals {
		views[i] = ViewGoal(g, now)
	}
	return views
}
