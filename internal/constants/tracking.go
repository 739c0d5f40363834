package constants

// Storage keys. All four entries are written together after every mutation.
const (
	KeyHabits       = "habits"
	KeyGoals        = "goals"
	KeyCompletions  = "completions"
	KeyGoalProgress = "goalProgress"
)

// StorageKeys lists every persisted entry in write order.
var StorageKeys = []string{KeyHabits, KeyGoals, KeyCompletions, KeyGoalProgress}

// Overdue thresholds in whole days since the last completion.
const (
	OverdueDaysDaily   = 1
	OverdueDaysWeekly  = 7
	OverdueDaysMonthly = 30
)

// Seed record ids
const (
	SeedHabitExercise   = "sample1"
	SeedHabitReading    = "sample2"
	SeedHabitMeditation = "sample3"
	SeedGoalBooks       = "goal1"
	SeedGoalMiles       = "goal2"
)

// WeeklySeriesDays is the number of days shown in the weekly completion chart.
const WeeklySeriesDays = 7
