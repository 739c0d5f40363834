package store

import (
	"fmt"
	"strings"

	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
)

// State returns a deep copy of the current records.
func (s *Store) State() models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Habits returns every habit in insertion order.
func (s *Store) Habits() []models.Habit {
	return s.State().Habits
}

// Goals returns every goal in insertion order.
func (s *Store) Goals() []models.Goal {
	return s.State().Goals
}

// Habit returns the habit with the given id.
func (s *Store) Habit(id string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.HabitIndex(id); i >= 0 {
		h := s.state.Habits[i]
		if h.LastCompletedAt != nil {
			t := *h.LastCompletedAt
			h.LastCompletedAt = &t
		}
		return h, nil
	}
	return models.Habit{}, fmt.Errorf("%w: habit %s", ErrNotFound, id)
}

// Goal returns the goal with the given id.
func (s *Store) Goal(id string) (models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.GoalIndex(id); i >= 0 {
		return s.state.Goals[i], nil
	}
	return models.Goal{}, fmt.Errorf("%w: goal %s", ErrNotFound, id)
}

// Completions returns the completion days of a habit. Unknown ids yield an
// empty set.
func (s *Store) Completions(habitID string) []models.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Day{}, s.state.Completions[habitID]...)
}

// GoalProgress returns the stored percentage for a goal, 0 when unknown.
func (s *Store) GoalProgress(goalID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.GoalProgress[goalID]
}

// FilteredHabits returns the habits matching f as of now.
func (s *Store) FilteredHabits(f engine.Filter) []models.Habit {
	state := s.State()
	return engine.FilterHabits(state.Habits, state.Completions, f, s.clock.Now())
}

// Dashboard returns the dashboard aggregates as of now.
func (s *Store) Dashboard() engine.Snapshot {
	return engine.Dashboard(s.State(), s.clock.Now())
}

// HabitViews returns display views for the habits matching f.
func (s *Store) HabitViews(f engine.Filter) []engine.HabitView {
	state := s.State()
	now := s.clock.Now()
	habits := engine.FilterHabits(state.Habits, state.Completions, f, now)
	return engine.ViewHabits(habits, state.Completions, now)
}

// GoalViews returns display views for every goal.
func (s *Store) GoalViews() []engine.GoalView {
	return engine.ViewGoals(s.Goals(), s.clock.Now())
}

// ResolveHabit finds a habit by id, or by a case-insensitive name that
// matches exactly one habit.
func (s *Store) ResolveHabit(ref string) (models.Habit, error) {
	if h, err := s.Habit(ref); err == nil {
		return h, nil
	}

	var matches []models.Habit
	for _, h := range s.Habits() {
		if strings.EqualFold(h.Name, strings.TrimSpace(ref)) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%w: habit %q", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%w: %q matches %d habits, use the id", ErrValidation, ref, len(matches))
	}
}

// ResolveGoal finds a goal by id, or by a case-insensitive title that
// matches exactly one goal.
func (s *Store) ResolveGoal(ref string) (models.Goal, error) {
	if g, err := s.Goal(ref); err == nil {
		return g, nil
	}

	var matches []models.Goal
	for _, g := range s.Goals() {
		if strings.EqualFold(g.Title, strings.TrimSpace(ref)) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return models.Goal{}, fmt.Errorf("%w: goal %q", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Goal{}, fmt.Errorf("%w: %q matches %d goals, use the id", ErrValidation, ref, len(matches))
	}
}
