package backups

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/stride/internal/backup"
	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/config"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/store"
	"github.com/julianstephens/stride/internal/utils"
)

func setupTestContext(t *testing.T, provider storage.Provider) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	if err := provider.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	cfg := config.Default()
	cfg.Seed = false

	var out bytes.Buffer
	ctx := cli.NewContext(context.Background(), cfg, provider, utils.FixedClock{T: time.Now().UTC()})
	ctx.Out = &out
	ctx.ConfigDir = t.TempDir()
	ctx.Confirm = func(string, string) (bool, error) { return true, nil }
	return ctx, &out
}

func TestBackupCreateAndList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stride.db")
	ctx, out := setupTestContext(t, storage.NewSQLiteStore(dbPath))
	defer ctx.Close()

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("expected empty list, got %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out.String(), "Backup created: stride-") {
		t.Errorf("unexpected create output: %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 total") {
		t.Errorf("expected one backup, got %q", out.String())
	}
}

func TestBackupUnsupportedBackend(t *testing.T) {
	ctx, _ := setupTestContext(t, storage.NewMemoryStore())
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("expected an error for a memory store")
	}
}

func TestBackupRestore(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "stride.json")
	ctx, out := setupTestContext(t, storage.NewJSONStore(jsonPath))

	s, err := ctx.Store()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, _, err := s.AddHabit(ctx.Ctx, store.HabitInput{
		Name: "Keep me", Category: models.CategoryOther, Frequency: models.FrequencyDaily, Goal: 1,
	}); err != nil {
		t.Fatalf("add habit: %v", err)
	}

	mgr, err := backup.NewManager(storage.KindJSON, jsonPath)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}

	if _, _, err := s.AddHabit(ctx.Ctx, store.HabitInput{
		Name: "Lose me", Category: models.CategoryOther, Frequency: models.FrequencyDaily, Goal: 1,
	}); err != nil {
		t.Fatalf("add habit: %v", err)
	}

	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: filepath.Base(backupPath)}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Data restored successfully!") {
		t.Errorf("unexpected restore output: %q", out.String())
	}

	reopened := storage.NewJSONStore(jsonPath)
	if err := reopened.Load(context.Background()); err != nil {
		t.Fatalf("load restored data: %v", err)
	}
	restored, err := store.Open(context.Background(), reopened, store.Options{Clock: ctx.Clock})
	if err != nil {
		t.Fatalf("open restored data: %v", err)
	}
	habits := restored.Habits()
	if len(habits) != 1 || habits[0].Name != "Keep me" {
		t.Errorf("restored habits = %+v, want only %q", habits, "Keep me")
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _ := setupTestContext(t, storage.NewJSONStore(filepath.Join(t.TempDir(), "stride.json")))

	err := (&BackupRestoreCmd{BackupFile: "stride-19990101-000000.json", Yes: true}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "backup file not found") {
		t.Errorf("expected not found error, got %v", err)
	}
	if _, statErr := os.Stat(ctx.Provider.GetConfigPath()); statErr != nil {
		t.Errorf("data file should be untouched: %v", statErr)
	}
}
