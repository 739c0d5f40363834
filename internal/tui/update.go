package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/tui/components/goallist"
	"github.com/julianstephens/stride/internal/tui/components/habitlist"
)

// chrome is the number of rows used by tabs, filter line, notice and help.
const chrome = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		w, ht := msg.Width-h, max(msg.Height-v-chrome, 1)
		m.habitsModel.SetSize(w, ht)
		m.goalsModel.SetSize(w, ht)
		m.statsModel.SetSize(w, ht)
		return m, nil

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.sub)

	case noticeMsg:
		m.notice = msg.text
		m.noticeErr = msg.err
		m.noticeSeq++
		return m, clearNoticeAfter(m.noticeSeq)

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil

	case habitlist.AddHabitMsg:
		m.habitForm = &HabitFormModel{
			Category:  models.CategoryHealth,
			Frequency: models.FrequencyDaily,
			Goal:      "1",
		}
		m.form = newHabitForm(m.habitForm)
		m.state = constants.StateAddHabit
		return m, m.form.Init()

	case goallist.AddGoalMsg:
		m.goalForm = &GoalFormModel{}
		m.form = newGoalForm(m.goalForm)
		m.state = constants.StateAddGoal
		return m, m.form.Init()

	case habitlist.CompleteHabitMsg:
		return m, m.completeHabit(msg.ID)

	case goallist.ProgressMsg:
		if !msg.Custom {
			return m, m.addProgress(msg.ID, msg.Title, msg.Delta)
		}
		m.deltaForm = &DeltaFormModel{GoalID: msg.ID, Title: msg.Title}
		m.form = newDeltaForm(m.deltaForm)
		m.state = constants.StateGoalDelta
		return m, m.form.Init()

	case habitlist.DeleteHabitMsg:
		m.toDelete = deleteTarget{id: msg.ID, name: msg.Name}
		m.state = constants.StateConfirmDelete
		return m, nil

	case goallist.DeleteGoalMsg:
		m.toDelete = deleteTarget{goal: true, id: msg.ID, name: msg.Title}
		m.state = constants.StateConfirmDelete
		return m, nil

	case habitlist.CycleCategoryMsg:
		m.filter.Category = nextCategory(m.filter.Category)
		m.refresh()
		return m, nil

	case habitlist.CycleStatusMsg:
		m.filter.Status = nextStatus(m.filter.Status)
		m.refresh()
		return m, nil
	}

	switch m.state {
	case constants.StateAddHabit, constants.StateAddGoal, constants.StateGoalDelta:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			m.switchTab(1)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.switchTab(-1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case constants.StateGoals:
		m.goalsModel, cmd = m.goalsModel.Update(msg)
	case constants.StateStats:
		m.statsModel, cmd = m.statsModel.Update(msg)
	}
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	case huh.StateCompleted:
		var submit tea.Cmd
		switch m.state {
		case constants.StateAddHabit:
			submit = m.addHabit(m.habitForm)
		case constants.StateAddGoal:
			submit = m.addGoal(m.goalForm)
		case constants.StateGoalDelta:
			submit = m.addProgress(m.deltaForm.GoalID, m.deltaForm.Title, m.deltaForm.delta())
		}
		m.closeForm()
		return m, submit
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.habitForm = nil
	m.goalForm = nil
	m.deltaForm = nil
	m.state = m.tab
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Confirm):
		target := m.toDelete
		m.toDelete = deleteTarget{}
		m.state = m.tab
		return m, m.deleteRecord(target)
	case key.Matches(k, m.keys.Cancel), key.Matches(k, m.keys.Quit):
		m.toDelete = deleteTarget{}
		m.state = m.tab
	}
	return m, nil
}

func (m *Model) switchTab(step int) {
	n := len(tabs)
	cur := 0
	for i, t := range tabs {
		if t.state == m.tab {
			cur = i
		}
	}
	m.tab = tabs[(cur+step+n)%n].state
	m.state = m.tab
}

// filtering reports whether a list is capturing keys for its filter input.
func (m Model) filtering() bool {
	switch m.state {
	case constants.StateHabits:
		return m.habitsModel.Filtering()
	case constants.StateGoals:
		return m.goalsModel.Filtering()
	}
	return false
}

// nextCategory cycles through all categories and back to no filter.
func nextCategory(c models.Category) models.Category {
	if c == "" {
		return models.Categories[0]
	}
	for i, known := range models.Categories {
		if known == c && i+1 < len(models.Categories) {
			return models.Categories[i+1]
		}
	}
	return ""
}

var statusCycle = []models.Status{"", models.StatusCompleted, models.StatusActive, models.StatusOverdue}

func nextStatus(s models.Status) models.Status {
	for i, known := range statusCycle {
		if known == s {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return ""
}
