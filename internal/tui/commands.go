package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/store"
)

// changeMsg reports that the store changed, from this program or elsewhere.
type changeMsg struct {
	change store.Change
}

// noticeMsg carries the outcome of a mutation.
type noticeMsg struct {
	text string
	err  bool
}

type clearNoticeMsg struct {
	seq int
}

func waitForChange(sub *subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-sub.changes:
			return changeMsg{change: c}
		case <-sub.done:
			return nil
		}
	}
}

func clearNoticeAfter(seq int) tea.Cmd {
	return tea.Tick(constants.NoticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

// mutate runs fn off the update loop and turns its result into a notice.
func (m Model) mutate(success string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		err := fn()
		switch {
		case err == nil:
			return noticeMsg{text: success}
		case errors.Is(err, store.ErrDuplicateCompletion):
			return noticeMsg{text: "Already completed today"}
		default:
			logger.Warn("tui action failed", "error", err)
			return noticeMsg{text: err.Error(), err: true}
		}
	}
}

func (m Model) completeHabit(id string) tea.Cmd {
	s, ctx := m.store, m.ctx
	return m.mutate("Habit completed", func() error {
		_, err := s.CompleteHabit(ctx, id)
		return err
	})
}

func (m Model) addHabit(f *HabitFormModel) tea.Cmd {
	s, ctx, in := m.store, m.ctx, f.input()
	return m.mutate(fmt.Sprintf("Added habit %q", in.Name), func() error {
		_, _, err := s.AddHabit(ctx, in)
		return err
	})
}

func (m Model) addGoal(f *GoalFormModel) tea.Cmd {
	s, ctx, in := m.store, m.ctx, f.input()
	return m.mutate(fmt.Sprintf("Added goal %q", in.Title), func() error {
		_, _, err := s.AddGoal(ctx, in)
		return err
	})
}

func (m Model) addProgress(id, title string, delta float64) tea.Cmd {
	s, ctx := m.store, m.ctx
	return m.mutate(fmt.Sprintf("Added %s to %q", cli.FormatAmount(delta), title), func() error {
		_, err := s.AddGoalProgress(ctx, id, delta)
		return err
	})
}

func (m Model) deleteRecord(t deleteTarget) tea.Cmd {
	s, ctx := m.store, m.ctx
	if t.goal {
		return m.mutate(fmt.Sprintf("Deleted goal %q", t.name), func() error {
			_, err := s.DeleteGoal(ctx, t.id)
			return err
		})
	}
	return m.mutate(fmt.Sprintf("Deleted habit %q", t.name), func() error {
		_, err := s.DeleteHabit(ctx, t.id)
		return err
	})
}
