package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/stride/internal/engine"
)

const barWidth = 20

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Align(lipgloss.Center)
)

// Title renders a section heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Bar renders percent as a fixed-width bar. Values outside 0..100 are
// clamped for drawing only.
func Bar(percent float64, width int, color string) string {
	p := math.Max(0, math.Min(percent, 100))
	filled := int(math.Round(p / 100 * float64(width)))
	fill := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled))
	return fill + mutedStyle.Render(strings.Repeat("░", width-filled))
}

// HabitLine renders one habit row.
func HabitLine(v engine.HabitView) string {
	h := v.Habit
	mark := "○"
	switch {
	case v.CompletedToday:
		mark = doneStyle.Render("✓")
	case v.Overdue:
		mark = overdueStyle.Render("!")
	}
	line := fmt.Sprintf("%s %s %s  %s  streak %d  %d/%d %s",
		mark,
		lipgloss.NewStyle().Bold(true).Render(h.Name),
		mutedStyle.Render(fmt.Sprintf("[%s, %s]", engine.CategoryName(h.Category), h.Frequency)),
		Bar(v.Percent, barWidth/2, h.Color),
		v.Streak,
		h.CompletedCount, h.Goal,
		mutedStyle.Render(h.ID),
	)
	if v.Overdue && !v.CompletedToday {
		line += " " + overdueStyle.Render("overdue")
	}
	return line
}

// GoalLine renders one goal row.
func GoalLine(v engine.GoalView) string {
	g := v.Goal
	days := engine.FormatDaysRemaining(v.DaysRemaining)
	if v.PastDeadline {
		days = overdueStyle.Render(days)
	}
	return fmt.Sprintf("%s  %s %3.0f%%  %s/%s %s  %s  %s",
		lipgloss.NewStyle().Bold(true).Render(g.Title),
		Bar(v.Percent, barWidth, g.Color),
		v.Percent,
		FormatAmount(g.Current), FormatAmount(g.Target), g.Unit,
		days,
		mutedStyle.Render(g.ID),
	)
}

// DashboardView renders the four dashboard aggregates side by side.
func DashboardView(s engine.Snapshot) string {
	card := func(label string, value string) string {
		return statStyle.Width(18).Render(lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Bold(true).Render(value),
			mutedStyle.Render(label),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total habits", fmt.Sprint(s.TotalHabits)),
		card("Completed today", fmt.Sprint(s.CompletedToday)),
		card("Current streak", fmt.Sprintf("%d days", s.CurrentStreak)),
		card("Goal progress", fmt.Sprintf("%d%%", s.OverallGoalProgress)),
	)
}

// WeeklyChart renders the seven-day completion series as horizontal bars
// scaled to the habit count.
func WeeklyChart(series []engine.DayCount, totalHabits int) string {
	var b strings.Builder
	for _, d := range series {
		pct := 0.0
		if totalHabits > 0 {
			pct = float64(d.Count) / float64(totalHabits) * 100
		}
		fmt.Fprintf(&b, "%s %s %d\n", d.Label, Bar(pct, barWidth, "#4299e1"), d.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

// CategoryChart renders each category's share of habits.
func CategoryChart(counts []engine.CategoryCount) string {
	total := 0
	width := 0
	for _, c := range counts {
		total += c.Count
		width = max(width, lipgloss.Width(c.Name))
	}
	var b strings.Builder
	for _, c := range counts {
		pct := float64(c.Count) / float64(total) * 100
		fmt.Fprintf(&b, "%-*s %s %d (%.0f%%)\n", width, c.Name, Bar(pct, barWidth, c.Color), c.Count, pct)
	}
	return strings.TrimRight(b.String(), "\n")
}
