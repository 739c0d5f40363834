package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/utils"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// flakyProvider wraps a provider and fails writes on demand.
type flakyProvider struct {
	storage.Provider
	failWrites bool
	writes     int
}

func (p *flakyProvider) PutAll(ctx context.Context, entries map[string][]byte) error {
	if p.failWrites {
		return errors.New("disk full")
	}
	p.writes++
	return p.Provider.PutAll(ctx, entries)
}

func newProvider(t *testing.T) *flakyProvider {
	t.Helper()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Init(context.Background()))
	return &flakyProvider{Provider: mem}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func openStore(t *testing.T, p storage.Provider, seed bool) *Store {
	t.Helper()
	s, err := Open(context.Background(), p, Options{
		Clock: utils.FixedClock{T: testNow},
		Seed:  seed,
		NewID: sequentialIDs(),
	})
	require.NoError(t, err)
	return s
}

func addDailyHabit(t *testing.T, s *Store, name string, category models.Category) models.Habit {
	t.Helper()
	h, _, err := s.AddHabit(context.Background(), HabitInput{
		Name:      name,
		Category:  category,
		Frequency: models.FrequencyDaily,
		Goal:      1,
	})
	require.NoError(t, err)
	return h
}

func TestSeedScenario(t *testing.T) {
	p := newProvider(t)
	s := openStore(t, p, true)

	snap := s.Dashboard()
	assert.Equal(t, 3, snap.TotalHabits)
	assert.Equal(t, 3, snap.CompletedToday)
	assert.Equal(t, 7, snap.CurrentStreak)
	assert.Equal(t, 17, snap.OverallGoalProgress)

	meditation, err := s.Habit(constants.SeedHabitMeditation)
	require.NoError(t, err)
	assert.Equal(t, "Meditation", meditation.Name)
	assert.Equal(t, 7, meditation.Streak)
	assert.Equal(t, 7, meditation.CompletedCount)
	assert.Len(t, s.Completions(constants.SeedHabitMeditation), 7)

	for _, h := range s.Habits() {
		assert.Equal(t, len(s.Completions(h.ID)), h.CompletedCount, "completed_count of %s", h.ID)
	}

	assert.InDelta(t, 25.0, s.GoalProgress(constants.SeedGoalBooks), 1e-9)
	assert.InDelta(t, 9.0, s.GoalProgress(constants.SeedGoalMiles), 1e-9)

	books, err := s.Goal(constants.SeedGoalBooks)
	require.NoError(t, err)
	assert.Equal(t, models.Day("2026-12-31"), books.Deadline)

	assert.Equal(t, 1, p.writes, "seed is persisted immediately")

	series := engine.WeeklySeries(s.State(), s.Now())
	assert.Equal(t, 3, series[len(series)-1].Count)
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	p := newProvider(t)
	s := openStore(t, p, false)
	assert.Empty(t, s.Habits(), "seeding disabled")
	addDailyHabit(t, s, "Journal", models.CategoryMindfulness)

	reopened := openStore(t, p, true)
	require.Len(t, reopened.Habits(), 1, "existing habits block seeding")
	assert.Equal(t, "Journal", reopened.Habits()[0].Name)
}

func TestAddHabit(t *testing.T) {
	s := openStore(t, newProvider(t), false)

	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })

	h, change, err := s.AddHabit(context.Background(), HabitInput{
		Name:      "  Stretch  ",
		Category:  models.CategoryHealth,
		Frequency: models.FrequencyWeekly,
		Goal:      3,
	})
	require.NoError(t, err)

	assert.Equal(t, "Stretch", h.Name)
	assert.Equal(t, constants.DefaultHabitColor, h.Color)
	assert.Zero(t, h.CompletedCount)
	assert.Zero(t, h.Streak)
	assert.Nil(t, h.LastCompletedAt)
	assert.Equal(t, testNow, h.CreatedAt)
	assert.Equal(t, Change{Kind: ChangeHabitAdded, ID: h.ID}, change)
	assert.Equal(t, []Change{change}, got)
}

func TestAddHabitValidation(t *testing.T) {
	p := newProvider(t)
	s := openStore(t, p, false)

	var notified int
	s.Subscribe(func(Change) { notified++ })

	_, _, err := s.AddHabit(context.Background(), HabitInput{Name: "", Category: "hobbies", Frequency: models.FrequencyDaily, Goal: 0})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "unknown category")
	assert.Contains(t, err.Error(), "goal must be at least 1")

	assert.Empty(t, s.Habits())
	assert.Zero(t, notified)
	assert.Zero(t, p.writes)
}

func TestAddGoal(t *testing.T) {
	s := openStore(t, newProvider(t), false)

	g, change, err := s.AddGoal(context.Background(), GoalInput{
		Title:    "Learn Go",
		Target:   10,
		Unit:     "chapters",
		Deadline: "2026-12-01",
	})
	require.NoError(t, err)
	assert.Equal(t, ChangeGoalAdded, change.Kind)
	assert.Zero(t, g.Current)
	assert.Equal(t, constants.DefaultGoalColor, g.Color)

	progress := s.State().GoalProgress
	require.Contains(t, progress, g.ID)
	assert.Zero(t, progress[g.ID])

	_, _, err = s.AddGoal(context.Background(), GoalInput{Title: "Bad", Target: 0, Unit: "x", Deadline: "soon"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordCompletion(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), false)
	h := addDailyHabit(t, s, "Floss", models.CategoryHealth)

	today := s.Today()
	_, err := s.RecordCompletion(ctx, h.ID, today.AddDays(-2))
	require.NoError(t, err)
	change, err := s.CompleteHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, Change{Kind: ChangeCompletionRecorded, ID: h.ID, Day: today}, change)

	got, err := s.Habit(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompletedCount)
	assert.Equal(t, 1, got.Streak, "today and today-2 are not adjacent")
	require.NotNil(t, got.LastCompletedAt)
	assert.Equal(t, testNow, *got.LastCompletedAt)

	_, err = s.RecordCompletion(ctx, h.ID, today.AddDays(-1))
	require.NoError(t, err)
	got, _ = s.Habit(h.ID)
	assert.Equal(t, 3, got.Streak)
}

func TestBackfilledCompletionKeepsHabitOverdue(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), false)
	h := addDailyHabit(t, s, "Journal", models.CategoryMindfulness)

	tenDaysAgo := s.Today().AddDays(-10)
	_, err := s.RecordCompletion(ctx, h.ID, tenDaysAgo)
	require.NoError(t, err)

	got, err := s.Habit(h.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCompletedAt)
	assert.Equal(t, tenDaysAgo.Midnight(time.UTC), *got.LastCompletedAt)
	assert.Equal(t, 0, got.Streak)
	assert.True(t, engine.IsOverdue(got, testNow))

	overdue := s.FilteredHabits(engine.Filter{Status: models.StatusOverdue})
	require.Len(t, overdue, 1)
	assert.Equal(t, h.ID, overdue[0].ID)
}

func TestLastCompletedAtNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), false)
	h := addDailyHabit(t, s, "Stretch", models.CategoryHealth)
	today := s.Today()

	_, err := s.RecordCompletion(ctx, h.ID, today.AddDays(-2))
	require.NoError(t, err)
	_, err = s.RecordCompletion(ctx, h.ID, today.AddDays(-5))
	require.NoError(t, err)

	got, err := s.Habit(h.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCompletedAt)
	assert.Equal(t, today.AddDays(-2).Midnight(time.UTC), *got.LastCompletedAt)

	_, err = s.CompleteHabit(ctx, h.ID)
	require.NoError(t, err)
	_, err = s.RecordCompletion(ctx, h.ID, today.AddDays(-1))
	require.NoError(t, err)

	got, _ = s.Habit(h.ID)
	assert.Equal(t, testNow, *got.LastCompletedAt)
	assert.Equal(t, 3, got.Streak)
	assert.False(t, engine.IsOverdue(got, testNow))
}

func TestRecordCompletionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s := openStore(t, p, false)
	h := addDailyHabit(t, s, "Water plants", models.CategoryOther)

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	_, err := s.CompleteHabit(ctx, h.ID)
	require.NoError(t, err)
	before := s.State()
	writes := p.writes

	_, err = s.CompleteHabit(ctx, h.ID)
	require.ErrorIs(t, err, ErrDuplicateCompletion)

	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("duplicate completion changed state (-before +after):\n%s", diff)
	}
	assert.Equal(t, writes, p.writes)
	assert.Len(t, changes, 1)
}

func TestRecordCompletionErrors(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), false)
	h := addDailyHabit(t, s, "Walk", models.CategoryHealth)

	_, err := s.RecordCompletion(ctx, "missing", s.Today())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RecordCompletion(ctx, h.ID, "18/10/2026")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.RecordCompletion(ctx, h.ID, s.Today().AddDays(1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGoalProgressIsUncapped(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), false)
	g, _, err := s.AddGoal(ctx, GoalInput{Title: "Books", Target: 12, Unit: "books", Deadline: "2026-12-31"})
	require.NoError(t, err)

	for _, delta := range []float64{3, 9} {
		_, err := s.AddGoalProgress(ctx, g.ID, delta)
		require.NoError(t, err)
	}
	got, _ := s.Goal(g.ID)
	assert.InDelta(t, 12.0, got.Current, 1e-9)
	assert.InDelta(t, 100.0, s.GoalProgress(g.ID), 1e-9)

	change, err := s.AddGoalProgress(ctx, g.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, Change{Kind: ChangeGoalProgressed, ID: g.ID, Delta: 6}, change)
	got, _ = s.Goal(g.ID)
	assert.InDelta(t, 18.0, got.Current, 1e-9)
	assert.InDelta(t, 150.0, s.GoalProgress(g.ID), 1e-9)

	_, err = s.AddGoalProgress(ctx, g.ID, 0)
	assert.NoError(t, err, "a zero delta is accepted")

	_, err = s.AddGoalProgress(ctx, g.ID, -1)
	assert.ErrorIs(t, err, ErrValidation)
	got, _ = s.Goal(g.ID)
	assert.InDelta(t, 18.0, got.Current, 1e-9)

	_, err = s.AddGoalProgress(ctx, "nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletionCascade(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), true)

	change, err := s.DeleteHabit(ctx, constants.SeedHabitExercise)
	require.NoError(t, err)
	assert.Equal(t, ChangeHabitDeleted, change.Kind)
	assert.Empty(t, s.Completions(constants.SeedHabitExercise))
	assert.NotContains(t, s.State().Completions, constants.SeedHabitExercise)
	assert.Len(t, s.Habits(), 2)

	_, err = s.DeleteHabit(ctx, constants.SeedHabitExercise)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.DeleteGoal(ctx, constants.SeedGoalMiles)
	require.NoError(t, err)
	assert.NotContains(t, s.State().GoalProgress, constants.SeedGoalMiles)
	assert.Zero(t, s.GoalProgress(constants.SeedGoalMiles))
	assert.Equal(t, 25, s.Dashboard().OverallGoalProgress)

	_, err = s.DeleteGoal(ctx, constants.SeedGoalMiles)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistenceFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	s := openStore(t, p, true)

	var notified int
	s.Subscribe(func(Change) { notified++ })

	before := s.State()
	p.failWrites = true

	_, _, err := s.AddHabit(ctx, HabitInput{Name: "Yoga", Category: models.CategoryHealth, Frequency: models.FrequencyDaily, Goal: 1})
	assert.ErrorIs(t, err, ErrPersistence)
	_, err = s.DeleteHabit(ctx, constants.SeedHabitReading)
	assert.ErrorIs(t, err, ErrPersistence)
	_, err = s.AddGoalProgress(ctx, constants.SeedGoalBooks, 1)
	assert.ErrorIs(t, err, ErrPersistence)

	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("failed writes changed state (-before +after):\n%s", diff)
	}
	assert.Zero(t, notified)

	p.failWrites = false
	_, err = s.DeleteHabit(ctx, constants.SeedHabitReading)
	assert.NoError(t, err, "the store keeps working after a failed write")
	assert.Equal(t, 1, notified)
}

func TestOpenFailsWhenSeedCannotBePersisted(t *testing.T) {
	p := newProvider(t)
	p.failWrites = true
	_, err := Open(context.Background(), p, Options{Clock: utils.FixedClock{T: testNow}, Seed: true})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), false)

	var first, second []ChangeKind
	unsubscribe := s.Subscribe(func(c Change) { first = append(first, c.Kind) })
	s.Subscribe(func(c Change) { second = append(second, c.Kind) })

	h := addDailyHabit(t, s, "Read", models.CategoryLearning)
	unsubscribe()
	unsubscribe()
	_, err := s.CompleteHabit(ctx, h.ID)
	require.NoError(t, err)

	assert.Equal(t, []ChangeKind{ChangeHabitAdded}, first)
	assert.Equal(t, []ChangeKind{ChangeHabitAdded, ChangeCompletionRecorded}, second)
}

func TestSubscriberMayQueryStore(t *testing.T) {
	s := openStore(t, newProvider(t), false)

	var total int
	s.Subscribe(func(Change) { total = s.Dashboard().TotalHabits })
	addDailyHabit(t, s, "Plan the day", models.CategoryProductivity)
	assert.Equal(t, 1, total)
}

func TestFilteredHabits(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newProvider(t), true)

	stale := addDailyHabit(t, s, "Push-ups", models.CategoryHealth)
	_, err := s.RecordCompletion(ctx, stale.ID, s.Today().AddDays(-3))
	require.NoError(t, err)
	neverDone := addDailyHabit(t, s, "Cold shower", models.CategoryHealth)

	overdue := s.FilteredHabits(engine.Filter{Category: models.CategoryHealth, Status: models.StatusOverdue})
	var ids []string
	for _, h := range overdue {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{stale.ID, neverDone.ID}, ids)

	completed := s.FilteredHabits(engine.Filter{Status: models.StatusCompleted})
	assert.Len(t, completed, 3, "the seeded habits are done today")

	learning := s.FilteredHabits(engine.Filter{Category: models.CategoryLearning})
	require.Len(t, learning, 1)
	assert.Equal(t, constants.SeedHabitReading, learning[0].ID)
}

func TestRoundTripThroughSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stride.db")

	p := storage.NewSQLiteStore(path)
	require.NoError(t, p.Init(ctx))
	s := openStore(t, p, true)
	h := addDailyHabit(t, s, "Sketch", models.CategoryOther)
	_, err := s.CompleteHabit(ctx, h.ID)
	require.NoError(t, err)
	_, err = s.AddGoalProgress(ctx, constants.SeedGoalMiles, 5)
	require.NoError(t, err)
	want := s.State()
	require.NoError(t, p.Close())

	p2 := storage.NewSQLiteStore(path)
	require.NoError(t, p2.Load(ctx))
	t.Cleanup(func() { p2.Close() })
	reopened := openStore(t, p2, true)

	if diff := cmp.Diff(want, reopened.State()); diff != "" {
		t.Errorf("reopened state mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripThroughJSONFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stride.json")

	p := storage.NewJSONStore(path)
	require.NoError(t, p.Init(ctx))
	s := openStore(t, p, true)
	_, err := s.DeleteGoal(ctx, constants.SeedGoalBooks)
	require.NoError(t, err)
	want := s.State()

	p2 := storage.NewJSONStore(path)
	require.NoError(t, p2.Load(ctx))
	reopened := openStore(t, p2, false)

	if diff := cmp.Diff(want, reopened.State()); diff != "" {
		t.Errorf("reopened state mismatch (-want +got):\n%s", diff)
	}
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Init(ctx))

	a := openStore(t, mem, true)
	b := openStore(t, mem, false)

	var changes []Change
	a.Subscribe(func(c Change) { changes = append(changes, c) })

	changed, err := a.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "nothing changed in the backend")
	assert.Empty(t, changes)

	_, err = b.DeleteHabit(ctx, constants.SeedHabitMeditation)
	require.NoError(t, err)

	changed, err = a.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []Change{{Kind: ChangeReloaded}}, changes)
	assert.Len(t, a.Habits(), 2)
}

func TestResolve(t *testing.T) {
	s := openStore(t, newProvider(t), true)

	h, err := s.ResolveHabit("meditation")
	require.NoError(t, err)
	assert.Equal(t, constants.SeedHabitMeditation, h.ID)

	h, err = s.ResolveHabit(constants.SeedHabitReading)
	require.NoError(t, err)
	assert.Equal(t, "Read Books", h.Name)

	_, err = s.ResolveHabit("juggling")
	assert.ErrorIs(t, err, ErrNotFound)

	addDailyHabit(t, s, "Meditation", models.CategoryMindfulness)
	_, err = s.ResolveHabit("Meditation")
	assert.ErrorIs(t, err, ErrValidation)

	g, err := s.ResolveGoal("run 500 miles")
	require.NoError(t, err)
	assert.Equal(t, constants.SeedGoalMiles, g.ID)
	_, err = s.ResolveGoal("fly")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStreaksRefreshOnOpen(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Init(ctx))
	openStore(t, mem, true)

	// Three days later every seeded chain has lapsed.
	later, err := Open(ctx, mem, Options{Clock: utils.FixedClock{T: testNow.AddDate(0, 0, 3)}})
	require.NoError(t, err)
	for _, h := range later.Habits() {
		assert.Zero(t, h.Streak, "streak of %s", h.ID)
	}
	assert.Zero(t, later.Dashboard().CurrentStreak)
}

func TestOpenRejectsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Init(ctx))
	require.NoError(t, mem.PutAll(ctx, map[string][]byte{constants.KeyHabits: []byte(`{"not":"a list"}`)}))

	_, err := Open(ctx, mem, Options{Clock: utils.FixedClock{T: testNow}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode habits")
}
