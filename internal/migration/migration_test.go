package migration

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/stride/migrations"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func memFS(files map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, content := range files {
		out[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return out
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return count == 1
}

func TestCurrentVersionRoundTrip(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(openTestDB(t), memFS(nil), nil)

	version, err := runner.GetCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("fresh database version = %d, want 0", version)
	}

	if err := runner.SetVersion(ctx, 4); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if version, _ = runner.GetCurrentVersion(ctx); version != 4 {
		t.Errorf("version = %d, want 4", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    []string
		wantErr string
	}{
		{
			name: "sorted by version",
			files: map[string]string{
				"002_revisions.sql": "SELECT 1;",
				"001_init.sql":      "SELECT 1;",
				"010_later.sql":     "SELECT 1;",
				"README.md":         "ignored",
			},
			want: []string{"init", "revisions", "later"},
		},
		{
			name:    "missing underscore",
			files:   map[string]string{"001init.sql": "SELECT 1;"},
			wantErr: "invalid migration filename format",
		},
		{
			name:    "zero version",
			files:   map[string]string{"000_init.sql": "SELECT 1;"},
			wantErr: "version must be at least 1",
		},
		{
			name:    "non-numeric version",
			files:   map[string]string{"abc_init.sql": "SELECT 1;"},
			wantErr: "invalid version number",
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"001_init.sql":  "SELECT 1;",
				"001_other.sql": "SELECT 1;",
			},
			wantErr: "duplicate migration version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(nil, memFS(tt.files), nil)
			got, err := runner.ReadMigrationFiles()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMigrationFiles failed: %v", err)
			}
			var names []string
			for _, m := range got {
				names = append(names, m.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestApplyMigrationsIncremental(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	files := memFS(map[string]string{
		"001_init.sql": "CREATE TABLE entries (id INTEGER PRIMARY KEY);",
	})
	runner := NewRunner(db, files, nil)

	var logs []string
	count, err := runner.ApplyMigrations(ctx, func(msg string) { logs = append(logs, msg) })
	if err != nil {
		t.Fatalf("ApplyMigrations (1st) failed: %v", err)
	}
	if count != 1 {
		t.Errorf("applied %d, want 1", count)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	files["002_more.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE more_entries (id INTEGER);")}
	count, err = runner.ApplyMigrations(ctx, nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (2nd) failed: %v", err)
	}
	if count != 1 {
		t.Errorf("applied %d on second run, want 1", count)
	}

	count, err = runner.ApplyMigrations(ctx, nil)
	if err != nil || count != 0 {
		t.Errorf("third run = (%d, %v), want (0, nil)", count, err)
	}

	if !tableExists(t, db, "entries") || !tableExists(t, db, "more_entries") {
		t.Error("migration tables were not created")
	}
	if v, _ := runner.GetCurrentVersion(ctx); v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
}

func TestMigrationRollbackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	runner := NewRunner(db, memFS(map[string]string{
		"001_init.sql": `
			CREATE TABLE entries (id INTEGER PRIMARY KEY);
			THIS IS INVALID SQL;
		`,
	}), nil)

	if _, err := runner.ApplyMigrations(ctx, nil); err == nil {
		t.Fatal("ApplyMigrations should have failed with invalid SQL")
	}
	if v, _ := runner.GetCurrentVersion(ctx); v != 0 {
		t.Errorf("version = %d after failed migration, want 0", v)
	}
	if tableExists(t, db, "entries") {
		t.Error("table should not exist after failed migration")
	}
}

func TestNewerDatabaseIsRejected(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(openTestDB(t), memFS(map[string]string{
		"001_init.sql": "CREATE TABLE entries (id INTEGER);",
	}), nil)

	if err := runner.SetVersion(ctx, 9); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if err := runner.ValidateVersion(ctx); err == nil {
		t.Error("ValidateVersion should reject a newer schema")
	}
	if _, err := runner.ApplyMigrations(ctx, nil); err == nil {
		t.Error("ApplyMigrations should reject a newer schema")
	}
}

func TestRewriterIsApplied(t *testing.T) {
	var seen []string
	rewrite := func(q string) string {
		seen = append(seen, q)
		return q
	}
	runner := NewRunner(openTestDB(t), memFS(nil), rewrite)
	if err := runner.SetVersion(context.Background(), 1); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if len(seen) != 1 || !strings.Contains(seen[0], "VALUES (?)") {
		t.Errorf("rewriter saw %v", seen)
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	ctx := context.Background()
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatalf("fs.Sub failed: %v", err)
	}
	db := openTestDB(t)
	runner := NewRunner(db, sub, nil)

	if _, err := runner.ApplyMigrations(ctx, nil); err != nil {
		t.Fatalf("embedded migrations failed: %v", err)
	}
	if !tableExists(t, db, "kv_entries") {
		t.Error("kv_entries table was not created")
	}
	latest, _ := runner.GetLatestVersion()
	if v, _ := runner.GetCurrentVersion(ctx); v != latest {
		t.Errorf("version = %d, want %d", v, latest)
	}
}
