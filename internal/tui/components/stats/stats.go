package stats

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/engine"
)

var headingStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	Bold(true).
	MarginTop(1)

// Data is everything the statistics view draws.
type Data struct {
	Weekly      []engine.DayCount
	Categories  []engine.CategoryCount
	TotalHabits int
	Best        *engine.HabitView
}

type Model struct {
	viewport viewport.Model
	data     Data
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetData(d Data) {
	m.data = d
	m.Render()
}

func (m *Model) Render() {
	if m.data.TotalHabits == 0 {
		m.viewport.SetContent("No habits yet. Add one from the Habits tab.")
		return
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Last 7 days") + "\n")
	b.WriteString(cli.WeeklyChart(m.data.Weekly, m.data.TotalHabits) + "\n")
	b.WriteString(headingStyle.Render("Habits by category") + "\n")
	b.WriteString(cli.CategoryChart(m.data.Categories) + "\n")
	if m.data.Best != nil {
		fmt.Fprintf(&b, "\nLongest streak: %d days (%s)\n", m.data.Best.LongestStreak, m.data.Best.Habit.Name)
	}
	m.viewport.SetContent(b.String())
}
