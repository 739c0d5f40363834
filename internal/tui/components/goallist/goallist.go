package goallist

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/stride/internal/engine"
)

const barWidth = 24

type AddGoalMsg struct{}

// ProgressMsg asks for Delta to be added to a goal. Custom asks the user
// for the amount first.
type ProgressMsg struct {
	ID     string
	Title  string
	Delta  float64
	Custom bool
}

type DeleteGoalMsg struct {
	ID    string
	Title string
}

type Item struct {
	View engine.GoalView
	bar  string
}

func (i Item) Title() string { return i.View.Goal.Title }

func (i Item) Description() string {
	g := i.View.Goal
	return fmt.Sprintf("%s %3.0f%% | %s/%s %s | %s",
		i.bar, i.View.Percent,
		formatAmount(g.Current), formatAmount(g.Target), g.Unit,
		engine.FormatDaysRemaining(i.View.DaysRemaining))
}

func (i Item) FilterValue() string { return i.View.Goal.Title }

type KeyMap struct {
	Add       key.Binding
	Increment key.Binding
	Custom    key.Binding
	Delete    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Increment: key.NewBinding(
			key.WithKeys("p", "+"),
			key.WithHelp("p", "+1"),
		),
		Custom: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "add amount"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
	bar  progress.Model
}

func New(views []engine.GoalView, width, height int) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage())

	m := Model{keys: DefaultKeyMap(), bar: bar}
	l := list.New(m.toItems(views), list.NewDefaultDelegate(), width, height)
	l.Title = "Goals"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := m.keys
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Increment, keys.Custom, keys.Delete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys
	m.list = l
	return m
}

func (m *Model) SetGoals(views []engine.GoalView) {
	m.list.SetItems(m.toItems(views))
}

func (m Model) Selected() (engine.GoalView, bool) {
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
			return m, func() tea.Msg { return AddGoalMsg{} }
		case key.Matches(msg, m.keys.Increment), key.Matches(msg, m.keys.Custom):
			v, ok := m.Selected()
			if !ok {
				return m, nil
			}
			custom := key.Matches(msg, m.keys.Custom)
			return m, func() tea.Msg {
				return ProgressMsg{ID: v.Goal.ID, Title: v.Goal.Title, Delta: 1, Custom: custom}
			}
		case key.Matches(msg, m.keys.Delete):
			if v, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteGoalMsg{ID: v.Goal.ID, Title: v.Goal.Title} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No goals yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// toItems renders each bar once; progress above 100% draws as full.
func (m Model) toItems(views []engine.GoalView) []list.Item {
	items := make([]list.Item, len(views))
	for i, v := range views {
		ratio := math.Max(0, math.Min(v.Percent/100, 1))
		items[i] = Item{View: v, bar: m.bar.ViewAs(ratio)}
	}
	return items
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
