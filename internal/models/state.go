package models

// State holds the four persisted collections.
type State struct {
	Habits       []Habit            `json:"habits"`
	Goals        []Goal             `json:"goals"`
	Completions  map[string][]Day   `json:"completions"`  // habit id -> completion days
	GoalProgress map[string]float64 `json:"goalProgress"` // goal id -> percent
}

// NewState returns an empty state with initialized maps.
func NewState() State {
	return State{
		Habits:       []Habit{},
		Goals:        []Goal{},
		Completions:  make(map[string][]Day),
		GoalProgress: make(map[string]float64),
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Habits:       make([]Habit, len(s.Habits)),
		Goals:        make([]Goal, len(s.Goals)),
		Completions:  make(map[string][]Day, len(s.Completions)),
		GoalProgress: make(map[string]float64, len(s.GoalProgress)),
	}
	for i, h := range s.Habits {
		if h.LastCompletedAt != nil {
			t := *h.LastCompletedAt
			h.LastCompletedAt = &t
		}
		out.Habits[i] = h
	}
	copy(out.Goals, s.Goals)
	for id, days := range s.Completions {
		out.Completions[id] = append([]Day(nil), days...)
	}
	for id, p := range s.GoalProgress {
		out.GoalProgress[id] = p
	}
	return out
}

// HabitIndex returns the position of the habit with the given id, or -1.
func (s State) HabitIndex(id string) int {
	for i, h := range s.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// GoalIndex returns the position of the goal with the given id, or -1.
func (s State) GoalIndex(id string) int {
	for i, g := range s.Goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// HasCompletion reports whether the habit was completed on day.
func (s State) HasCompletion(habitID string, day Day) bool {
	for _, d := range s.Completions[habitID] {
		if d == day {
			return true
		}
	}
	return false
}
