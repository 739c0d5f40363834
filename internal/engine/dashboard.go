package engine

import (
	"time"

	"github.com/julianstephens/stride/internal/models"
)

// Snapshot holds the four dashboard aggregates.
type Snapshot struct {
	TotalHabits         int `json:"total_habits"`
	CompletedToday      int `json:"completed_today"`
	CurrentStreak       int `json:"current_streak"`
	OverallGoalProgress int `json:"overall_goal_progress"`
}

// Dashboard computes the dashboard aggregates for state as of now.
func Dashboard(state models.State, now time.Time) Snapshot {
	today := models.DayOf(now)

	snap := Snapshot{TotalHabits: len(state.Habits)}
	for _, h := range state.Habits {
		days := state.Completions[h.ID]
		if containsDay(days, today) {
			snap.CompletedToday++
		}
		if s := Streak(days, today); s > snap.CurrentStreak {
			snap.CurrentStreak = s
		}
	}
	snap.OverallGoalProgress = OverallGoalProgress(state.Goals)
	return snap
}

// OverallGoalProgress averages every goal's uncapped percentage and rounds
// to the nearest integer. It is 0 when there are no goals.
func OverallGoalProgress(goals []models.Goal) int {
	if len(goals) == 0 {
		return 0
	}
	var total float64
	for _, g := range goals {
		total += GoalPercent(g.Current, g.Target)
	}
	return RoundHalfUp(total / float64(len(goals)))
}

func containsDay(days []models.Day, day models.Day) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
