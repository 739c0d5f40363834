package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/cli/backups"
	"github.com/julianstephens/stride/internal/cli/goals"
	"github.com/julianstephens/stride/internal/cli/habits"
	"github.com/julianstephens/stride/internal/cli/reports"
	"github.com/julianstephens/stride/internal/cli/system"
	"github.com/julianstephens/stride/internal/config"
	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/errors"
	"github.com/julianstephens/stride/internal/keyring"
	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/store"
	"github.com/julianstephens/stride/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" default:"${config_file}"`
	Store    string `help:"SQLite or JSON file path, or a PostgreSQL, MySQL or Redis URL without a password. Use 'stride keyring set' for credentials."`
	Timezone string `help:"IANA timezone that decides calendar days."`
	Debug    bool   `help:"Log debug output to stderr."`
	NoSeed   bool   `help:"Do not install the sample habits and goals into an empty store."`

	Init      system.InitCmd       `cmd:"" help:"Initialize stride storage."`
	Tui       system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Dashboard reports.DashboardCmd `cmd:"" help:"Show today's dashboard."`
	Stats     reports.StatsCmd     `cmd:"" help:"Show weekly and category statistics."`
	Habit     habits.HabitCmd      `cmd:"" help:"Manage habits and completions."`
	Goal      goals.GoalCmd        `cmd:"" help:"Manage goals and progress."`
	Backup    backups.BackupCmd    `cmd:"" help:"Manage store backups."`
	Doctor    system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Keyring   system.KeyringCmd    `cmd:"" help:"Manage the store connection string in the OS keyring."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit and goal tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_file": config.ExpandPath(constants.DefaultConfigFile),
		},
	)

	os.Exit(run(kctx))
}

func run(kctx *kong.Context) int {
	configDir := filepath.Dir(CLI.Config)
	if err := config.LoadDotEnv(".env", filepath.Join(configDir, ".env")); err != nil {
		errors.Fatal(err)
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Store != "" {
		cfg.Store = CLI.Store
	}
	if CLI.Timezone != "" {
		cfg.Timezone = CLI.Timezone
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.NoSeed {
		cfg.Seed = false
	}
	if err := cfg.Validate(); err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogDir: cfg.LogDir, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return 1
	}

	provider, err := storage.Open(cfg.StoreOptions(keyring.GetConnectionString))
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := cli.NewContext(ctx, cfg, provider, utils.SystemClock{Location: loc})
	defer appCtx.Close()

	logger.Debug("running command", "command", kctx.Command(), "store", storage.KindOfProvider(provider))
	err = kctx.Run(appCtx)
	code := errors.ExitCode(err, store.ErrDuplicateCompletion)
	if code != 0 {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		fmt.Fprintln(os.Stderr, errors.Format(err))
	}
	return code
}
