package system

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/instance"
	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/tui"
	"github.com/julianstephens/stride/internal/watch"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	if pid, running := instance.Running(ctx.ConfigDir); running {
		logger.Info("another stride instance is running", "pid", pid)
	}
	lock, err := instance.Acquire(ctx.ConfigDir)
	if err != nil {
		logger.Warn("failed to write lockfile", "error", err)
	} else {
		defer lock.Release()
	}

	w, err := watch.New(ctx.Provider, s, watch.Options{})
	switch {
	case errors.Is(err, watch.ErrNotWatchable):
	case err != nil:
		logger.Warn("live reload disabled", "error", err)
	default:
		if err := w.Start(ctx.Ctx); err != nil {
			logger.Warn("live reload disabled", "error", err)
		} else {
			defer w.Stop()
		}
	}

	model := tui.NewModel(ctx.Ctx, s)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
