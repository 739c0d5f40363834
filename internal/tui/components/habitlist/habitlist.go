package habitlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/stride/internal/engine"
)

type AddHabitMsg struct{}

type CompleteHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID   string
	Name string
}

type CycleCategoryMsg struct{}

type CycleStatusMsg struct{}

type Item struct {
	View engine.HabitView
}

func (i Item) Title() string {
	mark := "○"
	switch {
	case i.View.CompletedToday:
		mark = "✓"
	case i.View.Overdue:
		mark = "!"
	}
	return mark + " " + i.View.Habit.Name
}

func (i Item) Description() string {
	h := i.View.Habit
	desc := fmt.Sprintf("%s | %s | streak %d | %d/%d",
		engine.CategoryName(h.Category), h.Frequency, i.View.Streak, h.CompletedCount, h.Goal)
	if i.View.Overdue && !i.View.CompletedToday {
		desc += " | overdue"
	}
	return desc
}

func (i Item) FilterValue() string { return i.View.Habit.Name }

type KeyMap struct {
	Add      key.Binding
	Complete key.Binding
	Delete   key.Binding
	Category key.Binding
	Status   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Complete: key.NewBinding(
			key.WithKeys("m", "enter"),
			key.WithHelp("m", "mark done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Category: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "category"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "status"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(views []engine.HabitView, width, height int) Model {
	l := list.New(toItems(views), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Complete, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Complete, keys.Delete, keys.Category, keys.Status}
	}

	return Model{list: l, keys: keys}
}

// SetHabits replaces the rows while keeping the cursor in range.
func (m *Model) SetHabits(views []engine.HabitView) {
	m.list.SetItems(toItems(views))
}

// Selected returns the highlighted habit view.
func (m Model) Selected() (engine.HabitView, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.View, ok
}

// Filtering reports whether the list filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Category):
			return m, func() tea.Msg { return CycleCategoryMsg{} }
		case key.Matches(msg, m.keys.Status):
			return m, func() tea.Msg { return CycleStatusMsg{} }
		case key.Matches(msg, m.keys.Complete):
			if v, ok := m.Selected(); ok {
				return m, func() tea.Msg { return CompleteHabitMsg{ID: v.Habit.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if v, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: v.Habit.ID, Name: v.Habit.Name} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits match.\n  Press 'a' to add one or 'c'/'s' to change the filter."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

func toItems(views []engine.HabitView) []list.Item {
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = Item{View: v}
	}
	return items
}
