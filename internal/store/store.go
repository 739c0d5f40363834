// Package store owns the tracker's records. It loads them from a
// storage.Provider, applies mutations on a copy, persists all collections
// together and only then swaps the copy in and notifies subscribers.
package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/utils"
	"github.com/julianstephens/stride/internal/validation"
)

// Options configures a Store.
type Options struct {
	// Clock supplies "now"; its location decides calendar days.
	Clock utils.Clock
	// Seed installs the sample records when no habits are stored.
	Seed bool
	// NewID generates record ids. Defaults to random UUIDs.
	NewID func() string
}

// HabitInput carries the user-supplied fields of a new habit.
type HabitInput struct {
	Name        string
	Description string
	Category    models.Category
	Frequency   models.Frequency
	Goal        int
	Color       string
}

// GoalInput carries the user-supplied fields of a new goal.
type GoalInput struct {
	Title       string
	Description string
	Target      float64
	Unit        string
	Deadline    models.Day
	Color       string
}

// Store is the single owner of the tracker's state.
type Store struct {
	mu       sync.RWMutex
	provider storage.Provider
	clock    utils.Clock
	newID    func() string
	state    models.State

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int
}

// Open reads the provider's entries and returns a ready store. The
// provider must already be loaded or initialized.
func Open(ctx context.Context, provider storage.Provider, opts Options) (*Store, error) {
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	s := &Store{
		provider: provider,
		clock:    opts.Clock,
		newID:    opts.NewID,
		subs:     make(map[int]Subscriber),
	}

	state, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	if len(state.Habits) == 0 && opts.Seed {
		state = seedState(s.clock.Now())
		if err := s.persist(ctx, state); err != nil {
			return nil, fmt.Errorf("%w: seeding: %v", ErrPersistence, err)
		}
		logger.Info("installed sample data", "habits", len(state.Habits), "goals", len(state.Goals))
	}

	s.state = state
	logger.Debug("store opened", "backend", storage.KindOfProvider(provider), "habits", len(state.Habits), "goals", len(state.Goals))
	return s, nil
}

func (s *Store) read(ctx context.Context) (models.State, error) {
	entries, err := s.provider.Get(ctx, constants.StorageKeys...)
	if err != nil {
		return models.State{}, fmt.Errorf("failed to read store: %w", err)
	}
	state, err := decodeState(entries)
	if err != nil {
		return models.State{}, err
	}
	refreshStreaks(&state, models.DayOf(s.clock.Now()))
	return state, nil
}

func (s *Store) persist(ctx context.Context, state models.State) error {
	entries, err := encodeState(state)
	if err != nil {
		return err
	}
	return s.provider.PutAll(ctx, entries)
}

// refreshStreaks recomputes every habit's stored streak against today.
func refreshStreaks(state *models.State, today models.Day) {
	for i, h := range state.Habits {
		state.Habits[i].Streak = engine.Streak(state.Completions[h.ID], today)
	}
}

// mutate applies fn to a copy of the state, persists the copy and swaps
// it in. Subscribers run after the lock is released.
func (s *Store) mutate(ctx context.Context, fn func(next *models.State) (Change, error)) (Change, error) {
	s.mu.Lock()
	next := s.state.Clone()
	change, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		return Change{}, err
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		logger.Warn("persist failed", "change", change.Kind, "id", change.ID, "error", err)
		return Change{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.state = next
	s.mu.Unlock()

	logger.Debug("store changed", "change", change.Kind, "id", change.ID)
	s.notify(change)
	return change, nil
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Today returns the current calendar day in the clock's location.
func (s *Store) Today() models.Day {
	return models.DayOf(s.clock.Now())
}

// Provider returns the backend the store persists to.
func (s *Store) Provider() storage.Provider {
	return s.provider
}

// AddHabit validates in and appends a new habit.
func (s *Store) AddHabit(ctx context.Context, in HabitInput) (models.Habit, Change, error) {
	h := models.Habit{
		ID:          s.newID(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Frequency:   in.Frequency,
		Goal:        in.Goal,
		Color:       in.Color,
		CreatedAt:   s.clock.Now(),
	}
	if h.Color == "" {
		h.Color = constants.DefaultHabitColor
	}
	if err := validation.Habit(h); err != nil {
		return models.Habit{}, Change{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	change, err := s.mutate(ctx, func(next *models.State) (Change, error) {
		next.Habits = append(next.Habits, h)
		return Change{Kind: ChangeHabitAdded, ID: h.ID}, nil
	})
	if err != nil {
		return models.Habit{}, Change{}, err
	}
	return h, change, nil
}

// AddGoal validates in and appends a new goal with no progress.
func (s *Store) AddGoal(ctx context.Context, in GoalInput) (models.Goal, Change, error) {
	g := models.Goal{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Target:      in.Target,
		Unit:        strings.TrimSpace(in.Unit),
		Deadline:    in.Deadline,
		Color:       in.Color,
		CreatedAt:   s.clock.Now(),
	}
	if g.Color == "" {
		g.Color = constants.DefaultGoalColor
	}
	if err := validation.Goal(g); err != nil {
		return models.Goal{}, Change{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	change, err := s.mutate(ctx, func(next *models.State) (Change, error) {
		next.Goals = append(next.Goals, g)
		next.GoalProgress[g.ID] = 0
		return Change{Kind: ChangeGoalAdded, ID: g.ID}, nil
	})
	if err != nil {
		return models.Goal{}, Change{}, err
	}
	return g, change, nil
}

// RecordCompletion marks habitID as done on day. Days after today are
// rejected. A past day stamps lastCompletedAt with that day's midnight, and
// lastCompletedAt never moves backwards.
func (s *Store) RecordCompletion(ctx context.Context, habitID string, day models.Day) (Change, error) {
	if !day.Valid() {
		return Change{}, fmt.Errorf("%w: invalid day %q", ErrValidation, day)
	}
	now := s.clock.Now()
	today := models.DayOf(now)
	if day.DaysSince(today) > 0 {
		return Change{}, fmt.Errorf("%w: %s is in the future", ErrValidation, day)
	}

	return s.mutate(ctx, func(next *models.State) (Change, error) {
		i := next.HabitIndex(habitID)
		if i < 0 {
			return Change{}, fmt.Errorf("%w: habit %s", ErrNotFound, habitID)
		}
		if next.HasCompletion(habitID, day) {
			return Change{}, fmt.Errorf("%w: %s on %s", ErrDuplicateCompletion, next.Habits[i].Name, day)
		}

		next.Completions[habitID] = append(next.Completions[habitID], day)
		h := &next.Habits[i]
		h.CompletedCount++
		last := now
		if day != today {
			last = day.Midnight(now.Location())
		}
		if h.LastCompletedAt == nil || last.After(*h.LastCompletedAt) {
			h.LastCompletedAt = &last
		}
		h.Streak = engine.Streak(next.Completions[habitID], today)
		return Change{Kind: ChangeCompletionRecorded, ID: habitID, Day: day}, nil
	})
}

// CompleteHabit records a completion for today.
func (s *Store) CompleteHabit(ctx context.Context, habitID string) (Change, error) {
	return s.RecordCompletion(ctx, habitID, s.Today())
}

// AddGoalProgress adds delta to a goal's accumulator and recomputes its
// percentage. Negative deltas are rejected.
func (s *Store) AddGoalProgress(ctx context.Context, goalID string, delta float64) (Change, error) {
	if err := validation.Delta(delta); err != nil {
		return Change{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return s.mutate(ctx, func(next *models.State) (Change, error) {
		i := next.GoalIndex(goalID)
		if i < 0 {
			return Change{}, fmt.Errorf("%w: goal %s", ErrNotFound, goalID)
		}
		g := &next.Goals[i]
		g.Current += delta
		next.GoalProgress[goalID] = engine.GoalPercent(g.Current, g.Target)
		return Change{Kind: ChangeGoalProgressed, ID: goalID, Delta: delta}, nil
	})
}

// DeleteHabit removes a habit and its completion set.
func (s *Store) DeleteHabit(ctx context.Context, habitID string) (Change, error) {
	return s.mutate(ctx, func(next *models.State) (Change, error) {
		i := next.HabitIndex(habitID)
		if i < 0 {
			return Change{}, fmt.Errorf("%w: habit %s", ErrNotFound, habitID)
		}
		next.Habits = append(next.Habits[:i], next.Habits[i+1:]...)
		delete(next.Completions, habitID)
		return Change{Kind: ChangeHabitDeleted, ID: habitID}, nil
	})
}

// DeleteGoal removes a goal and its progress entry.
func (s *Store) DeleteGoal(ctx context.Context, goalID string) (Change, error) {
	return s.mutate(ctx, func(next *models.State) (Change, error) {
		i := next.GoalIndex(goalID)
		if i < 0 {
			return Change{}, fmt.Errorf("%w: goal %s", ErrNotFound, goalID)
		}
		next.Goals = append(next.Goals[:i], next.Goals[i+1:]...)
		delete(next.GoalProgress, goalID)
		return Change{Kind: ChangeGoalDeleted, ID: goalID}, nil
	})
}

// Replace persists state wholesale, as when repairing or importing records.
func (s *Store) Replace(ctx context.Context, state models.State) (Change, error) {
	return s.mutate(ctx, func(next *models.State) (Change, error) {
		*next = state.Clone()
		refreshStreaks(next, s.Today())
		return Change{Kind: ChangeReplaced}, nil
	})
}

// Reload re-reads the backend. Subscribers are notified only when the
// stored records differ from the in-memory ones.
func (s *Store) Reload(ctx context.Context) (changed bool, err error) {
	s.mu.Lock()
	fresh, err := s.read(ctx)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	same, err := sameState(s.state, fresh)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if same {
		s.mu.Unlock()
		return false, nil
	}
	s.state = fresh
	s.mu.Unlock()

	logger.Debug("store reloaded from backend")
	s.notify(Change{Kind: ChangeReloaded})
	return true, nil
}

func sameState(a, b models.State) (bool, error) {
	ea, err := encodeState(a)
	if err != nil {
		return false, err
	}
	eb, err := encodeState(b)
	if err != nil {
		return false, err
	}
	for _, key := range constants.StorageKeys {
		if !bytes.Equal(ea[key], eb[key]) {
			return false, nil
		}
	}
	return true, nil
}

// Subscribe registers fn for change notifications and returns a function
// that unregisters it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(change Change) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Subscriber, len(ids))
	for i, id := range ids {
		fns[i] = s.subs[id]
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
