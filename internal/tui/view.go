package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/engine"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case constants.StateDashboard:
		content = m.viewDashboard()
	case constants.StateHabits:
		content = lipgloss.JoinVertical(lipgloss.Left, m.viewFilter(), docStyle.Render(m.habitsModel.View()))
	case constants.StateGoals:
		content = docStyle.Render(m.goalsModel.View())
	case constants.StateStats:
		content = docStyle.Render(m.statsModel.View())
	case constants.StateAddHabit, constants.StateAddGoal, constants.StateGoalDelta:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewNotice(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var out []string
	for _, t := range tabs {
		if m.tab == t.state {
			out = append(out, activeTabStyle.Render(t.title))
		} else {
			out = append(out, inactiveTabStyle.Render(t.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	b.WriteString(cli.DashboardView(m.snapshot))
	b.WriteString("\n\n")
	b.WriteString(cli.Title("Today " + string(m.store.Today())))
	b.WriteString("\n")
	if len(m.today) == 0 {
		b.WriteString("No habits yet. Press tab to open Habits and 'a' to add one.")
	}
	for _, v := range m.today {
		b.WriteString(cli.HabitLine(v))
		b.WriteString("\n")
	}
	return docStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewFilter() string {
	category := "all"
	if m.filter.Category != "" {
		category = engine.CategoryName(m.filter.Category)
	}
	status := "all"
	if m.filter.Status != "" {
		status = string(m.filter.Status)
	}
	return filterStyle.Render(fmt.Sprintf("  category: %s  status: %s  (%d shown)", category, status, m.habitsModel.Len()))
}

func (m Model) viewNotice() string {
	if m.notice == "" {
		return ""
	}
	if m.noticeErr {
		return errorStyle.Render("✗ " + m.notice)
	}
	return noticeStyle.Render("✓ " + m.notice)
}

func (m Model) viewConfirmDelete() string {
	kind := "habit"
	if m.toDelete.goal {
		kind = "goal"
	}
	return lipgloss.Place(m.width, max(m.height-chrome, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %s %q?", kind, m.toDelete.name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
