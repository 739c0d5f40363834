package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/store"
	"github.com/julianstephens/stride/internal/utils"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)

// seededSQLite creates a SQLite store holding the sample data.
func seededSQLite(t *testing.T) (*storage.SQLStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stride.db")
	p := storage.NewSQLiteStore(path)
	require.NoError(t, p.Init(context.Background()))
	_, err := store.Open(context.Background(), p, store.Options{Clock: utils.FixedClock{T: testNow}, Seed: true})
	require.NoError(t, err)
	return p, path
}

func seededJSON(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stride.json")
	p := storage.NewJSONStore(path)
	require.NoError(t, p.Init(context.Background()))
	_, err := store.Open(context.Background(), p, store.Options{Clock: utils.FixedClock{T: testNow}, Seed: true})
	require.NoError(t, err)
	return path
}

func fixedManager(t *testing.T, kind storage.Kind, path string, now time.Time) *Manager {
	t.Helper()
	m, err := NewManager(kind, path)
	require.NoError(t, err)
	m.now = func() time.Time { return now }
	return m
}

func openHabits(t *testing.T, p storage.Provider) int {
	t.Helper()
	require.NoError(t, p.Load(context.Background()))
	defer p.Close()
	s, err := store.Open(context.Background(), p, store.Options{Clock: utils.FixedClock{T: testNow}})
	require.NoError(t, err)
	return len(s.Habits())
}

func TestNewManagerRejectsNetworkBackends(t *testing.T) {
	for _, kind := range []storage.Kind{storage.KindPostgres, storage.KindMySQL, storage.KindRedis, storage.KindMemory} {
		_, err := NewManager(kind, "somewhere")
		assert.ErrorIs(t, err, ErrUnsupported, "kind %s", kind)
	}
}

func TestCreateBackupSQLiteWhileOpen(t *testing.T) {
	p, path := seededSQLite(t)
	defer p.Close()

	m := fixedManager(t, storage.KindSQLite, path, testNow)
	backupPath, err := m.CreateBackup()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), constants.BackupDirName, "stride-20261018-090000.db"), backupPath)
	assert.Equal(t, 3, openHabits(t, storage.NewSQLiteStore(backupPath)))
}

func TestCreateBackupJSON(t *testing.T) {
	path := seededJSON(t)
	m := fixedManager(t, storage.KindJSON, path, testNow)

	backupPath, err := m.CreateBackup()
	require.NoError(t, err)
	assert.Equal(t, "stride-20261018-090000.json", filepath.Base(backupPath))

	want, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCreateBackupMissingDataFile(t *testing.T) {
	m := fixedManager(t, storage.KindJSON, filepath.Join(t.TempDir(), "absent.json"), testNow)
	_, err := m.CreateBackup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestBackupNamesAreUnique(t *testing.T) {
	path := seededJSON(t)
	m := fixedManager(t, storage.KindJSON, path, testNow)

	var names []string
	for i := 0; i < 3; i++ {
		p, err := m.CreateBackup()
		require.NoError(t, err)
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{
		"stride-20261018-090000.json",
		"stride-20261018-090000-1.json",
		"stride-20261018-090000-2.json",
	}, names)

	backups, err := m.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "stride-20261018-090000-2.json", filepath.Base(backups[0].Path))
}

func TestListBackupsSkipsForeignFiles(t *testing.T) {
	path := seededJSON(t)
	m := fixedManager(t, storage.KindJSON, path, testNow)
	_, err := m.CreateBackup()
	require.NoError(t, err)

	for _, name := range []string{"notes.txt", "stride-latest.json", "stride-20261018-090000-x.json", "stride-20261018-090000.db"} {
		require.NoError(t, os.WriteFile(filepath.Join(m.GetBackupDir(), name), []byte("{}"), 0o600))
	}

	backups, err := m.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.True(t, backups[0].Timestamp.Equal(testNow))
	assert.Positive(t, backups[0].Size)
}

func TestListBackupsNoDirectory(t *testing.T) {
	m := fixedManager(t, storage.KindSQLite, filepath.Join(t.TempDir(), "stride.db"), testNow)
	backups, err := m.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRotationKeepsNewest(t *testing.T) {
	path := seededJSON(t)
	m := fixedManager(t, storage.KindJSON, path, testNow)

	for i := 0; i < constants.MaxBackups+3; i++ {
		m.now = func() time.Time { return testNow.Add(time.Duration(i) * time.Hour) }
		_, err := m.CreateBackup()
		require.NoError(t, err)
	}

	backups, err := m.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, constants.MaxBackups)
	assert.True(t, backups[0].Timestamp.Equal(testNow.Add(time.Duration(constants.MaxBackups+2)*time.Hour)))
	assert.True(t, backups[len(backups)-1].Timestamp.Equal(testNow.Add(3*time.Hour)))
}

func TestRestoreSQLite(t *testing.T) {
	ctx := context.Background()
	p, path := seededSQLite(t)
	m := fixedManager(t, storage.KindSQLite, path, testNow)
	backupPath, err := m.CreateBackup()
	require.NoError(t, err)

	s, err := store.Open(ctx, p, store.Options{Clock: utils.FixedClock{T: testNow}})
	require.NoError(t, err)
	_, err = s.DeleteHabit(ctx, constants.SeedHabitMeditation)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	m.now = func() time.Time { return testNow.Add(time.Minute) }
	previous, err := m.RestoreBackup(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "stride-20261018-090100.db", filepath.Base(previous))

	assert.Equal(t, 3, openHabits(t, storage.NewSQLiteStore(path)), "restored data has all seeded habits")
	assert.Equal(t, 2, openHabits(t, storage.NewSQLiteStore(previous)), "pre-restore copy keeps the edit")
	assert.NoFileExists(t, path+".restore.tmp")
}

func TestRestoreJSONByName(t *testing.T) {
	path := seededJSON(t)
	m := fixedManager(t, storage.KindJSON, path, testNow)
	backupPath, err := m.CreateBackup()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"revision":9,"entries":{}}`), 0o600))

	_, err = m.RestoreBackup(m.Resolve(filepath.Base(backupPath)))
	require.NoError(t, err)
	assert.Equal(t, 3, openHabits(t, storage.NewJSONStore(path)))
}

func TestRestoreRejectsInvalidBackups(t *testing.T) {
	path := seededJSON(t)
	m := fixedManager(t, storage.KindJSON, path, testNow)

	_, err := m.RestoreBackup(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "does not exist")

	bogus := filepath.Join(t.TempDir(), "bogus.json")
	require.NoError(t, os.WriteFile(bogus, []byte(`{"hello":"world"}`), 0o600))
	_, err = m.RestoreBackup(bogus)
	assert.ErrorContains(t, err, "corrupted or invalid")

	sqlPath := filepath.Join(t.TempDir(), "stride.db")
	sm := fixedManager(t, storage.KindSQLite, sqlPath, testNow)
	notDB := filepath.Join(t.TempDir(), "text.db")
	require.NoError(t, os.WriteFile(notDB, []byte("definitely not sqlite"), 0o600))
	_, err = sm.RestoreBackup(notDB)
	assert.ErrorContains(t, err, "corrupted or invalid")
}

func TestResolve(t *testing.T) {
	m := fixedManager(t, storage.KindSQLite, "/data/stride.db", testNow)
	assert.Equal(t, filepath.Join("/data", "backups", "stride-20261018-090000.db"), m.Resolve("stride-20261018-090000.db"))
	assert.Equal(t, "/elsewhere/x.db", m.Resolve("/elsewhere/x.db"))
}
