package store

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/models"
)

// encodeState renders each collection as its own JSON document.
func encodeState(s models.State) (map[string][]byte, error) {
	docs := map[string]any{
		constants.KeyHabits:       s.Habits,
		constants.KeyGoals:        s.Goals,
		constants.KeyCompletions:  s.Completions,
		constants.KeyGoalProgress: s.GoalProgress,
	}

	out := make(map[string][]byte, len(docs))
	for key, v := range docs {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}

// decodeState rebuilds state from stored entries. Missing entries read as empty.
func decodeState(entries map[string][]byte) (models.State, error) {
	s := models.NewState()
	targets := map[string]any{
		constants.KeyHabits:       &s.Habits,
		constants.KeyGoals:        &s.Goals,
		constants.KeyCompletions:  &s.Completions,
		constants.KeyGoalProgress: &s.GoalProgress,
	}

	for _, key := range constants.StorageKeys {
		data, ok := entries[key]
		if !ok || len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, targets[key]); err != nil {
			return models.State{}, fmt.Errorf("failed to decode %s: %w", key, err)
		}
	}

	// A stored JSON null leaves nil collections behind.
	if s.Habits == nil {
		s.Habits = []models.Habit{}
	}
	if s.Goals == nil {
		s.Goals = []models.Goal{}
	}
	if s.Completions == nil {
		s.Completions = make(map[string][]models.Day)
	}
	if s.GoalProgress == nil {
		s.GoalProgress = make(map[string]float64)
	}
	return s, nil
}
