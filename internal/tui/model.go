package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/store"
	"github.com/julianstephens/stride/internal/tui/components/goallist"
	"github.com/julianstephens/stride/internal/tui/components/habitlist"
	"github.com/julianstephens/stride/internal/tui/components/stats"
)

// changeBuffer bounds queued store notifications. Any notification causes
// a full refresh, so dropped ones are harmless.
const changeBuffer = 16

var tabs = []struct {
	state constants.SessionState
	title string
}{
	{constants.StateDashboard, "Dashboard"},
	{constants.StateHabits, "Habits"},
	{constants.StateGoals, "Goals"},
	{constants.StateStats, "Stats"},
}

type HabitFormModel struct {
	Name        string
	Description string
	Category    models.Category
	Frequency   models.Frequency
	Goal        string
}

type GoalFormModel struct {
	Title       string
	Description string
	Target      string
	Unit        string
	Deadline    string
}

type DeltaFormModel struct {
	GoalID string
	Title  string
	Amount string
}

type deleteTarget struct {
	goal bool
	id   string
	name string
}

// subscription forwards store changes to the program. It is shared by
// every copy of the Model.
type subscription struct {
	changes     chan store.Change
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func (s *subscription) close() {
	s.once.Do(func() {
		s.unsubscribe()
		close(s.done)
	})
}

type Model struct {
	ctx   context.Context
	store *store.Store
	sub   *subscription

	state constants.SessionState
	tab   constants.SessionState
	keys  KeyMap
	help  help.Model

	habitsModel habitlist.Model
	goalsModel  goallist.Model
	statsModel  stats.Model
	snapshot    engine.Snapshot
	today       []engine.HabitView
	filter      engine.Filter

	form      *huh.Form
	habitForm *HabitFormModel
	goalForm  *GoalFormModel
	deltaForm *DeltaFormModel
	toDelete  deleteTarget
	notice    string
	noticeErr bool
	noticeSeq int
	quitting  bool
	width     int
	height    int
}

// NewModel builds the interface over s and subscribes to its changes.
// Close releases the subscription.
func NewModel(ctx context.Context, s *store.Store) Model {
	sub := &subscription{
		changes: make(chan store.Change, changeBuffer),
		done:    make(chan struct{}),
	}
	sub.unsubscribe = s.Subscribe(func(c store.Change) {
		select {
		case sub.changes <- c:
		default:
		}
	})

	m := Model{
		ctx:         ctx,
		store:       s,
		sub:         sub,
		state:       constants.StateDashboard,
		tab:         constants.StateDashboard,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitsModel: habitlist.New(nil, 0, 0),
		goalsModel:  goallist.New(nil, 0, 0),
		statsModel:  stats.New(0, 0),
	}
	m.refresh()
	return m
}

// Close stops forwarding store changes.
func (m Model) Close() {
	m.sub.close()
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.sub)
}

// refresh re-derives every view from the store.
func (m *Model) refresh() {
	m.snapshot = m.store.Dashboard()
	m.today = m.store.HabitViews(engine.Filter{})
	m.habitsModel.SetHabits(m.store.HabitViews(m.filter))
	m.goalsModel.SetGoals(m.store.GoalViews())

	state := m.store.State()
	data := stats.Data{
		Weekly:      engine.WeeklySeries(state, m.store.Now()),
		Categories:  engine.CategoryBreakdown(state.Habits),
		TotalHabits: len(state.Habits),
	}
	for i, v := range m.today {
		if data.Best == nil || v.LongestStreak > data.Best.LongestStreak {
			data.Best = &m.today[i]
		}
	}
	m.statsModel.SetData(data)
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateHabits:
		h := habitlist.DefaultKeyMap()
		keys = append(keys, h.Add, h.Complete, h.Delete, h.Category, h.Status)
	case constants.StateGoals:
		g := goallist.DefaultKeyMap()
		keys = append(keys, g.Add, g.Increment, g.Custom, g.Delete)
	case constants.StateConfirmDelete:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case constants.StateHabits:
		h := habitlist.DefaultKeyMap()
		actions = []key.Binding{h.Add, h.Complete, h.Delete, h.Category, h.Status}
	case constants.StateGoals:
		g := goallist.DefaultKeyMap()
		actions = []key.Binding{g.Add, g.Increment, g.Custom, g.Delete}
	}

	return [][]key.Binding{global, navigation, actions}
}
