package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/stride/internal/backup"
	"github.com/julianstephens/stride/internal/config"
	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/store"
	"github.com/julianstephens/stride/internal/utils"
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(title, description string) (bool, error)

// Context is handed to every command's Run method.
type Context struct {
	Ctx      context.Context
	Config   *config.Config
	Provider storage.Provider
	Clock    utils.Clock
	Out      io.Writer
	Confirm  ConfirmFunc
	// ConfigDir holds the lockfile and logs.
	ConfigDir string

	store *store.Store
}

// NewContext wires a Context with the interactive defaults.
func NewContext(ctx context.Context, cfg *config.Config, provider storage.Provider, clock utils.Clock) *Context {
	return &Context{
		Ctx:       ctx,
		Config:    cfg,
		Provider:  provider,
		Clock:     clock,
		Out:       os.Stdout,
		Confirm:   HuhConfirm,
		ConfigDir: filepath.Dir(cfg.Path()),
	}
}

// Store loads the backend and opens the record store on first use.
func (c *Context) Store() (*store.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	if err := c.Provider.Load(c.Ctx); err != nil {
		return nil, err
	}
	s, err := store.Open(c.Ctx, c.Provider, store.Options{
		Clock: c.Clock,
		Seed:  c.Config.Seed,
	})
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// Close releases the backend.
func (c *Context) Close() error {
	return c.Provider.Close()
}

// PerformAutomaticBackup creates a backup of file-backed stores and only
// logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := backup.ForProvider(c.Provider)
	if err != nil {
		logger.Debug("skipping automatic backup", "reason", err)
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ConfirmAction returns true without asking when yes is set.
func (c *Context) ConfirmAction(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	if c.Confirm == nil {
		return false, fmt.Errorf("confirmation required, pass --yes")
	}
	return c.Confirm(title, description)
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Println writes a line to the command output.
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// HuhConfirm shows a huh confirmation prompt on the terminal.
func HuhConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ParseDay parses an optional YYYY-MM-DD flag, defaulting to today.
func (c *Context) ParseDay(s string) (models.Day, error) {
	if strings.TrimSpace(s) == "" {
		return models.DayOf(c.Clock.Now()), nil
	}
	day, err := models.ParseDay(s)
	if err != nil {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return day, nil
}

// FormatAmount prints goal quantities without trailing zeros.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
