package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/config"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/store"
)

type InitCmd struct {
	Force  bool   `help:"Reset existing data before initialization."`
	NoSeed bool   `help:"Do not install the sample habits and goals."`
	Source string `help:"Source data file or connection string to copy records from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	kind := storage.KindOfProvider(ctx.Provider)
	dataPath := ctx.Provider.GetConfigPath()

	if c.Force && kind.IsFile() {
		if c.Source != "" && samePath(c.Source, dataPath) {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dataPath)
		}
		if err := c.removeDataFile(ctx, dataPath); err != nil {
			return err
		}
	}

	if err := ctx.Provider.Init(ctx.Ctx); err != nil {
		return err
	}
	ctx.Printf("Initialized stride storage at: %s\n", dataPath)

	seed := ctx.Config.Seed && !c.NoSeed && c.Source == ""
	if c.Force && !kind.IsFile() {
		// Network backends are cleared in place.
		s, err := store.Open(ctx.Ctx, ctx.Provider, store.Options{Clock: ctx.Clock})
		if err != nil {
			return err
		}
		if _, err := s.Replace(ctx.Ctx, models.NewState()); err != nil {
			return err
		}
		ctx.Println("Cleared existing records.")
	}

	s, err := store.Open(ctx.Ctx, ctx.Provider, store.Options{Clock: ctx.Clock, Seed: seed})
	if err != nil {
		return err
	}

	if c.Source != "" {
		ctx.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx, s); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}
	return nil
}

func (c *InitCmd) removeDataFile(ctx *cli.Context, dataPath string) error {
	if _, err := os.Stat(dataPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to access existing data: %w", err)
	}
	if err := ctx.Provider.Close(); err != nil {
		return fmt.Errorf("failed to close existing data file: %w", err)
	}
	for _, p := range []string{dataPath, dataPath + "-wal", dataPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete existing data: %w", err)
		}
	}
	ctx.Printf("Deleted existing data at: %s\n", dataPath)
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context, dest *store.Store) error {
	opts := storage.Options{
		Target:      config.ExpandPath(c.Source),
		Password:    os.Getenv(config.EnvDBPassword),
		RedisPrefix: ctx.Config.RedisPrefix,
	}
	src, err := storage.Open(opts)
	if err != nil {
		return err
	}
	if err := src.Load(ctx.Ctx); err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	defer src.Close()

	from, err := store.Open(ctx.Ctx, src, store.Options{Clock: ctx.Clock})
	if err != nil {
		return err
	}
	state := from.State()

	if _, err := dest.Replace(ctx.Ctx, state); err != nil {
		return err
	}

	completions := 0
	for _, days := range state.Completions {
		completions += len(days)
	}
	ctx.Printf("    Migrated %d habits\n", len(state.Habits))
	ctx.Printf("    Migrated %d completions\n", completions)
	ctx.Printf("    Migrated %d goals\n", len(state.Goals))
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(config.ExpandPath(a))
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
