package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/stride/internal/models"
)

func validHabit() models.Habit {
	return models.Habit{
		ID:        "h1",
		Name:      "Stretch",
		Category:  models.CategoryHealth,
		Frequency: models.FrequencyDaily,
		Goal:      1,
		Color:     "#4CAF50",
	}
}

func validGoal() models.Goal {
	return models.Goal{
		ID:       "g1",
		Title:    "Read 12 Books",
		Target:   12,
		Unit:     "books",
		Deadline: "2026-12-31",
		Color:    "#2196F3",
	}
}

func TestHabit(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Habit)
		wantErr []string
	}{
		{name: "valid", mutate: func(*models.Habit) {}},
		{name: "short color", mutate: func(h *models.Habit) { h.Color = "#abc" }},
		{name: "blank name", mutate: func(h *models.Habit) { h.Name = "   " }, wantErr: []string{"name is required"}},
		{name: "unknown category", mutate: func(h *models.Habit) { h.Category = "hobbies" }, wantErr: []string{"unknown category"}},
		{name: "unknown frequency", mutate: func(h *models.Habit) { h.Frequency = "hourly" }, wantErr: []string{"unknown frequency"}},
		{name: "zero goal", mutate: func(h *models.Habit) { h.Goal = 0 }, wantErr: []string{"goal must be at least 1"}},
		{name: "bad color", mutate: func(h *models.Habit) { h.Color = "green" }, wantErr: []string{"invalid color"}},
		{
			name: "every problem reported",
			mutate: func(h *models.Habit) {
				*h = models.Habit{}
			},
			wantErr: []string{"name is required", "unknown category", "unknown frequency", "goal must be at least 1", "invalid color"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHabit()
			tt.mutate(&h)
			err := Habit(h)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestGoal(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Goal)
		wantErr string
	}{
		{name: "valid", mutate: func(*models.Goal) {}},
		{name: "fractional target", mutate: func(g *models.Goal) { g.Target = 0.5 }},
		{name: "blank title", mutate: func(g *models.Goal) { g.Title = "" }, wantErr: "title is required"},
		{name: "zero target", mutate: func(g *models.Goal) { g.Target = 0 }, wantErr: "target must be greater than 0"},
		{name: "negative target", mutate: func(g *models.Goal) { g.Target = -4 }, wantErr: "target must be greater than 0"},
		{name: "missing unit", mutate: func(g *models.Goal) { g.Unit = " " }, wantErr: "unit is required"},
		{name: "bad deadline", mutate: func(g *models.Goal) { g.Deadline = "12/31/2026" }, wantErr: "invalid deadline"},
		{name: "impossible deadline", mutate: func(g *models.Goal) { g.Deadline = "2026-02-30" }, wantErr: "invalid deadline"},
		{name: "bad color", mutate: func(g *models.Goal) { g.Color = "#12345" }, wantErr: "invalid color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGoal()
			tt.mutate(&g)
			err := Goal(g)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDelta(t *testing.T) {
	assert.NoError(t, Delta(0))
	assert.NoError(t, Delta(2.5))
	assert.Error(t, Delta(-1))
}

func consistentState() models.State {
	s := models.NewState()
	h := validHabit()
	h.CompletedCount = 2
	s.Habits = []models.Habit{h}
	s.Completions[h.ID] = []models.Day{"2026-10-17", "2026-10-18"}
	g := validGoal()
	g.Current = 3
	s.Goals = []models.Goal{g}
	s.GoalProgress[g.ID] = 25
	return s
}

func TestValidateState_Clean(t *testing.T) {
	result := New().ValidateState(consistentState())
	if result.HasConflicts() {
		t.Fatalf("expected no conflicts, got:\n%s", result.FormatReport())
	}
	assert.Equal(t, "No conflicts detected.", result.FormatReport())
}

func TestValidateState_DetectsProblems(t *testing.T) {
	s := consistentState()
	s.Completions["h1"] = append(s.Completions["h1"], "2026-10-18", "yesterday")
	s.Completions["ghost"] = []models.Day{"2026-10-01"}
	s.GoalProgress["g1"] = 40
	s.GoalProgress["gone"] = 10
	dup := validHabit()
	dup.ID = "h2"
	s.Habits = append(s.Habits, dup)

	result := New().ValidateState(s)

	found := make(map[ConflictType]bool)
	for _, c := range result.Conflicts {
		found[c.Type] = true
	}
	for _, want := range []ConflictType{
		ConflictDuplicateDay,
		ConflictInvalidDay,
		ConflictCountMismatch,
		ConflictOrphanCompletions,
		ConflictProgressMismatch,
		ConflictOrphanProgress,
		ConflictDuplicateName,
	} {
		assert.True(t, found[want], "expected %s conflict", want)
	}
	assert.True(t, strings.HasPrefix(result.FormatReport(), "Conflicts detected:"))
}

func TestRepair(t *testing.T) {
	s := consistentState()
	s.Completions["h1"] = append(s.Completions["h1"], "2026-10-18", "bogus")
	s.Completions["ghost"] = []models.Day{"2026-10-01"}
	s.GoalProgress["g1"] = 40
	s.GoalProgress["gone"] = 10

	v := New()
	fixed, actions := v.Repair(s)

	assert.NotEmpty(t, actions)
	assert.Equal(t, []models.Day{"2026-10-17", "2026-10-18"}, fixed.Completions["h1"])
	assert.Equal(t, 2, fixed.Habits[0].CompletedCount)
	assert.NotContains(t, fixed.Completions, "ghost")
	assert.NotContains(t, fixed.GoalProgress, "gone")
	assert.InDelta(t, 25.0, fixed.GoalProgress["g1"], 1e-9)

	after := v.ValidateState(fixed)
	assert.False(t, after.HasConflicts(), after.FormatReport())

	// The input is left untouched.
	assert.Len(t, s.Completions["h1"], 4)
}
