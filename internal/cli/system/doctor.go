package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/stride/internal/backup"
	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/instance"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/validation"
)

type DoctorCmd struct {
	Fix bool `help:"Repair fixable data problems."`
}

type checkStatus int

const (
	statusOK checkStatus = iota
	statusWarn
	statusFail
	statusSkip
)

type doctorReport struct {
	ctx      *cli.Context
	hasError bool
}

func (r *doctorReport) record(name string, status checkStatus, detail error) {
	switch status {
	case statusOK:
		r.ctx.Printf("✓ %s: OK\n", name)
	case statusWarn:
		r.ctx.Printf("⚠ %s: WARNING\n", name)
		if detail != nil {
			r.ctx.Printf("   %v\n", detail)
		}
	case statusFail:
		r.hasError = true
		r.ctx.Printf("❌ %s: FAIL\n", name)
		if detail != nil {
			r.ctx.Printf("   Error: %v\n", detail)
		}
	case statusSkip:
		r.ctx.Printf("⊘ %s: SKIPPED (%v)\n", name, detail)
	}
}

func (r *doctorReport) check(name string, err error) {
	if err != nil {
		r.record(name, statusFail, err)
		return
	}
	r.record(name, statusOK, nil)
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	r := &doctorReport{ctx: ctx}
	errUnreachable := errors.New("store not reachable")

	reachErr := ctx.Provider.Load(ctx.Ctx)
	r.check("Store reachable", reachErr)
	reachable := reachErr == nil

	if reachable {
		r.check("Schema version", checkSchemaVersion(ctx))
	} else {
		r.record("Schema version", statusSkip, errUnreachable)
	}

	if err := checkBackupsPresent(ctx); err != nil {
		r.record("Backups present", statusWarn, err)
	} else {
		r.record("Backups present", statusOK, nil)
	}

	if reachable {
		r.check("Data integrity", cmd.checkIntegrity(ctx))
	} else {
		r.record("Data integrity", statusSkip, errUnreachable)
	}

	r.check("Clock/timezone", checkClockTimezone(ctx))

	if pid, running := instance.Running(ctx.ConfigDir); running {
		r.record("Running instances", statusWarn, fmt.Errorf("stride is already running (pid %d); changes sync through the data file", pid))
	} else {
		r.record("Running instances", statusOK, nil)
	}

	ctx.Println()
	if r.hasError {
		ctx.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sqlStore, ok := ctx.Provider.(*storage.SQLStore)
	if !ok {
		return nil
	}
	current, latest, err := sqlStore.SchemaVersion(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	switch {
	case current > latest:
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	case current < latest:
		return fmt.Errorf("database schema version (%d) is behind the latest version (%d)", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := backup.ForProvider(ctx.Provider)
	if errors.Is(err, backup.ErrUnsupported) {
		return nil
	}
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.GetBackupDir())
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func (cmd *DoctorCmd) checkIntegrity(ctx *cli.Context) error {
	s, err := ctx.Store()
	if err != nil {
		return err
	}

	v := validation.New()
	result := v.ValidateState(s.State())
	if !result.HasConflicts() {
		return nil
	}
	if !cmd.Fix {
		return fmt.Errorf("%s\n   Run 'stride doctor --fix' to repair fixable problems", result.FormatReport())
	}

	repaired, actions := v.Repair(s.State())
	if len(actions) > 0 {
		if _, err := s.Replace(ctx.Ctx, repaired); err != nil {
			return fmt.Errorf("failed to save repairs: %w", err)
		}
		for _, a := range actions {
			ctx.Printf("   fixed: %s\n", a.Action)
		}
	}

	remaining := v.ValidateState(s.State())
	if remaining.HasConflicts() {
		return fmt.Errorf("%s", remaining.FormatReport())
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}
	now := ctx.Clock.Now()
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if now.Location().String() != loc.String() {
		return fmt.Errorf("clock reports %s but timezone is configured as %s", now.Location(), loc)
	}
	return nil
}
