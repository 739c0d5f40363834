package store

import (
	"time"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/utils"
)

type seedHabit struct {
	id          string
	name        string
	description string
	category    models.Category
	color       string
	daysBack    int // completions on today and the daysBack-1 days before
}

var seedHabits = []seedHabit{
	{
		id:          constants.SeedHabitExercise,
		name:        "Morning Exercise",
		description: "30 minutes of cardio or strength training",
		category:    models.CategoryHealth,
		color:       "#48bb78",
		daysBack:    3,
	},
	{
		id:          constants.SeedHabitReading,
		name:        "Read Books",
		description: "Read at least 20 pages",
		category:    models.CategoryLearning,
		color:       "#ed8936",
		daysBack:    2,
	},
	{
		id:          constants.SeedHabitMeditation,
		name:        "Meditation",
		description: "10 minutes of mindfulness practice",
		category:    models.CategoryMindfulness,
		color:       "#9f7aea",
		daysBack:    7,
	},
}

// seedState returns the sample data installed on first run. Completion
// histories are relative to now, and each habit's count matches its set.
func seedState(now time.Time) models.State {
	s := models.NewState()
	today := models.DayOf(now)

	for _, sh := range seedHabits {
		days := make([]models.Day, 0, sh.daysBack)
		for i := sh.daysBack - 1; i >= 0; i-- {
			days = append(days, today.AddDays(-i))
		}
		last := now
		s.Habits = append(s.Habits, models.Habit{
			ID:              sh.id,
			Name:            sh.name,
			Description:     sh.description,
			Category:        sh.category,
			Frequency:       models.FrequencyDaily,
			Goal:            1,
			Color:           sh.color,
			CreatedAt:       now,
			CompletedCount:  len(days),
			Streak:          engine.Streak(days, today),
			LastCompletedAt: &last,
		})
		s.Completions[sh.id] = days
	}

	deadline := utils.EndOfYear(now)
	s.Goals = []models.Goal{
		{
			ID:          constants.SeedGoalBooks,
			Title:       "Read 12 Books This Year",
			Description: "Complete one book per month",
			Target:      12,
			Unit:        "books",
			Deadline:    deadline,
			Color:       "#4299e1",
			CreatedAt:   now,
			Current:     3,
		},
		{
			ID:          constants.SeedGoalMiles,
			Title:       "Run 500 Miles",
			Description: "Track running distance throughout the year",
			Target:      500,
			Unit:        "miles",
			Deadline:    deadline,
			Color:       "#48bb78",
			CreatedAt:   now,
			Current:     45,
		},
	}
	for _, g := range s.Goals {
		s.GoalProgress[g.ID] = engine.GoalPercent(g.Current, g.Target)
	}
	return s
}
