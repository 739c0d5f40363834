package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/julianstephens/stride/internal/models"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// progressTolerance absorbs float noise when comparing stored and derived progress.
const progressTolerance = 1e-6

// Habit checks the user-supplied fields of h. All problems are joined into
// one error so a form can show them together.
func Habit(h models.Habit) error {
	var errs []error
	if strings.TrimSpace(h.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !h.Category.Valid() {
		errs = append(errs, fmt.Errorf("unknown category %q", h.Category))
	}
	if !h.Frequency.Valid() {
		errs = append(errs, fmt.Errorf("unknown frequency %q", h.Frequency))
	}
	if h.Goal < 1 {
		errs = append(errs, fmt.Errorf("goal must be at least 1, got %d", h.Goal))
	}
	if err := Color(h.Color); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Goal checks the user-supplied fields of g.
func Goal(g models.Goal) error {
	var errs []error
	if strings.TrimSpace(g.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if math.IsNaN(g.Target) || math.IsInf(g.Target, 0) || g.Target <= 0 {
		errs = append(errs, fmt.Errorf("target must be greater than 0, got %v", g.Target))
	}
	if strings.TrimSpace(g.Unit) == "" {
		errs = append(errs, errors.New("unit is required"))
	}
	if !g.Deadline.Valid() {
		errs = append(errs, fmt.Errorf("invalid deadline %q (expected YYYY-MM-DD)", g.Deadline))
	}
	if err := Color(g.Color); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Color accepts #RGB and #RRGGBB hex colors.
func Color(c string) error {
	if !colorPattern.MatchString(c) {
		return fmt.Errorf("invalid color %q (expected #RRGGBB)", c)
	}
	return nil
}

// Delta rejects progress deltas that would move a goal backwards.
func Delta(d float64) error {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Errorf("invalid progress delta %v", d)
	}
	if d < 0 {
		return fmt.Errorf("progress delta must not be negative, got %v", d)
	}
	return nil
}

// ConflictType represents the kind of integrity problem found in stored state
type ConflictType string

const (
	ConflictDuplicateID       ConflictType = "duplicate_id"
	ConflictDuplicateName     ConflictType = "duplicate_habit_name"
	ConflictCountMismatch     ConflictType = "completed_count_mismatch"
	ConflictInvalidDay        ConflictType = "invalid_day"
	ConflictDuplicateDay      ConflictType = "duplicate_day"
	ConflictOrphanCompletions ConflictType = "orphaned_completions"
	ConflictOrphanProgress    ConflictType = "orphaned_progress"
	ConflictProgressMismatch  ConflictType = "progress_mismatch"
)

// Conflict represents one detected integrity problem
type Conflict struct {
	Type        ConflictType
	Description string
	ID          string // habit or goal id involved
	Fixable     bool
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

// Validator checks persisted state for integrity problems
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateState checks the cross-collection invariants of s.
func (v *Validator) ValidateState(s models.State) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	add := func(c Conflict) { result.Conflicts = append(result.Conflicts, c) }

	habitIDs := make(map[string]bool, len(s.Habits))
	names := make(map[string][]string)
	for _, h := range s.Habits {
		if habitIDs[h.ID] {
			add(Conflict{
				Type:        ConflictDuplicateID,
				Description: fmt.Sprintf("Duplicate habit id: %s", h.ID),
				ID:          h.ID,
			})
		}
		habitIDs[h.ID] = true
		if h.Name != "" {
			names[h.Name] = append(names[h.Name], h.ID)
		}

		days := s.Completions[h.ID]
		seen := make(map[models.Day]bool, len(days))
		for _, d := range days {
			switch {
			case !d.Valid():
				add(Conflict{
					Type:        ConflictInvalidDay,
					Description: fmt.Sprintf("Habit %q has malformed completion day %q", h.Name, d),
					ID:          h.ID,
					Fixable:     true,
				})
			case seen[d]:
				add(Conflict{
					Type:        ConflictDuplicateDay,
					Description: fmt.Sprintf("Habit %q has duplicate completion day %s", h.Name, d),
					ID:          h.ID,
					Fixable:     true,
				})
			}
			seen[d] = true
		}

		if h.CompletedCount != len(days) {
			add(Conflict{
				Type: ConflictCountMismatch,
				Description: fmt.Sprintf("Habit %q has completed_count %d but %d completion days",
					h.Name, h.CompletedCount, len(days)),
				ID:      h.ID,
				Fixable: true,
			})
		}
	}

	dupNames := make([]string, 0)
	for name, ids := range names {
		if len(ids) > 1 {
			dupNames = append(dupNames, name)
		}
	}
	sort.Strings(dupNames)
	for _, name := range dupNames {
		add(Conflict{
			Type:        ConflictDuplicateName,
			Description: fmt.Sprintf("Duplicate habit name: %q (IDs: %v)", name, names[name]),
			ID:          names[name][0],
		})
	}

	for _, id := range sortedKeys(s.Completions) {
		if !habitIDs[id] {
			add(Conflict{
				Type:        ConflictOrphanCompletions,
				Description: fmt.Sprintf("Completions stored for unknown habit %s", id),
				ID:          id,
				Fixable:     true,
			})
		}
	}

	goalIDs := make(map[string]bool, len(s.Goals))
	for _, g := range s.Goals {
		if goalIDs[g.ID] {
			add(Conflict{
				Type:        ConflictDuplicateID,
				Description: fmt.Sprintf("Duplicate goal id: %s", g.ID),
				ID:          g.ID,
			})
		}
		goalIDs[g.ID] = true

		want := percent(g)
		if got, ok := s.GoalProgress[g.ID]; !ok || math.Abs(got-want) > progressTolerance {
			add(Conflict{
				Type:        ConflictProgressMismatch,
				Description: fmt.Sprintf("Goal %q has stored progress %.2f%% but current/target is %.2f%%", g.Title, got, want),
				ID:          g.ID,
				Fixable:     true,
			})
		}
	}

	for _, id := range sortedKeys(s.GoalProgress) {
		if !goalIDs[id] {
			add(Conflict{
				Type:        ConflictOrphanProgress,
				Description: fmt.Sprintf("Progress stored for unknown goal %s", id),
				ID:          id,
				Fixable:     true,
			})
		}
	}

	return result
}

// Repair returns a copy of s with every fixable conflict resolved, along
// with the actions taken. Conflicts that need a human decision are left.
func (v *Validator) Repair(s models.State) (models.State, []FixAction) {
	result := v.ValidateState(s)
	out := s.Clone()
	var actions []FixAction

	cleaned := make(map[string]bool)
	for _, c := range result.Conflicts {
		if !c.Fixable {
			continue
		}
		switch c.Type {
		case ConflictInvalidDay, ConflictDuplicateDay:
			if cleaned[c.ID] {
				continue
			}
			cleaned[c.ID] = true
			out.Completions[c.ID] = cleanDays(out.Completions[c.ID])
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Removed malformed or duplicate completion days for habit %s", c.ID),
				SourceConflict: c,
			})
		case ConflictOrphanCompletions:
			delete(out.Completions, c.ID)
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Removed completions of unknown habit %s", c.ID),
				SourceConflict: c,
			})
		case ConflictOrphanProgress:
			delete(out.GoalProgress, c.ID)
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Removed progress of unknown goal %s", c.ID),
				SourceConflict: c,
			})
		case ConflictProgressMismatch:
			if i := out.GoalIndex(c.ID); i >= 0 {
				out.GoalProgress[c.ID] = percent(out.Goals[i])
				actions = append(actions, FixAction{
					Action:         fmt.Sprintf("Recomputed progress of goal %s", c.ID),
					SourceConflict: c,
				})
			}
		}
	}

	// Counts are fixed last so they reflect the cleaned completion sets.
	for _, c := range result.Conflicts {
		if c.Type != ConflictCountMismatch {
			continue
		}
		if i := out.HabitIndex(c.ID); i >= 0 {
			out.Habits[i].CompletedCount = len(out.Completions[c.ID])
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Set completed_count of habit %s to %d", c.ID, out.Habits[i].CompletedCount),
				SourceConflict: c,
			})
		}
	}
	for i, h := range out.Habits {
		if !cleaned[h.ID] || h.CompletedCount == len(out.Completions[h.ID]) {
			continue
		}
		out.Habits[i].CompletedCount = len(out.Completions[h.ID])
	}

	return out, actions
}

func percent(g models.Goal) float64 {
	if g.Target <= 0 {
		return 0
	}
	return g.Current / g.Target * 100
}

func cleanDays(days []models.Day) []models.Day {
	seen := make(map[models.Day]bool, len(days))
	out := make([]models.Day, 0, len(days))
	for _, d := range days {
		if !d.Valid() || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
