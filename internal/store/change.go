package store

import "github.com/julianstephens/stride/internal/models"

// ChangeKind identifies the mutation a Change describes.
type ChangeKind string

const (
	ChangeHabitAdded         ChangeKind = "habit_added"
	ChangeGoalAdded          ChangeKind = "goal_added"
	ChangeCompletionRecorded ChangeKind = "completion_recorded"
	ChangeGoalProgressed     ChangeKind = "goal_progressed"
	ChangeHabitDeleted       ChangeKind = "habit_deleted"
	ChangeGoalDeleted        ChangeKind = "goal_deleted"
	ChangeReplaced           ChangeKind = "replaced"
	ChangeReloaded           ChangeKind = "reloaded"
)

// Change describes one successful mutation. Fields that do not apply to
// Kind are zero.
type Change struct {
	Kind  ChangeKind
	ID    string
	Day   models.Day
	Delta float64
}

// Subscriber is called synchronously after each successful mutation.
type Subscriber func(Change)
