// Package backup keeps rotating copies of file-backed stores next to the
// data file.
package backup

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/storage"
)

const timestampFormat = "20060102-150405"

// ErrUnsupported is returned for backends that do not live in a local file.
var ErrUnsupported = errors.New("backups are only available for SQLite and JSON stores")

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager handles backup operations for one data file.
type Manager struct {
	kind      storage.Kind
	dataPath  string
	backupDir string
	suffix    string
	keep      int
	now       func() time.Time
}

// NewManager returns a manager for the data file at path. Backups go to a
// backups directory beside it.
func NewManager(kind storage.Kind, path string) (*Manager, error) {
	var suffix string
	switch kind {
	case storage.KindSQLite:
		suffix = ".db"
	case storage.KindJSON:
		suffix = ".json"
	default:
		return nil, fmt.Errorf("%w (backend is %s)", ErrUnsupported, kind)
	}
	return &Manager{
		kind:      kind,
		dataPath:  path,
		backupDir: filepath.Join(filepath.Dir(path), constants.BackupDirName),
		suffix:    suffix,
		keep:      constants.MaxBackups,
		now:       time.Now,
	}, nil
}

// ForProvider returns a manager for p's data file.
func ForProvider(p storage.Provider) (*Manager, error) {
	return NewManager(storage.KindOfProvider(p), p.GetConfigPath())
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup copies the data file into the backup directory and prunes
// the oldest copies beyond the retention limit.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(true)
}

func (m *Manager) createBackup(rotate bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dataPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("data file does not exist: %s", m.dataPath)
		}
		return "", fmt.Errorf("failed to access data file: %w", err)
	}

	backupPath, err := m.nextBackupPath()
	if err != nil {
		return "", err
	}

	switch m.kind {
	case storage.KindSQLite:
		err = m.vacuumInto(backupPath)
	default:
		err = copyFile(m.dataPath, backupPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", m.dataPath, err)
	}
	logger.Debug("backup created", "path", backupPath)

	if rotate {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("failed to rotate old backups", "error", err)
		}
	}
	return backupPath, nil
}

func (m *Manager) nextBackupPath() (string, error) {
	stamp := m.now().Format(timestampFormat)
	path := filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+m.suffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", errors.New("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, counter, m.suffix))
	}
}

// vacuumInto writes a consistent copy of the SQLite database even while
// another connection holds it open.
func (m *Manager) vacuumInto(dest string) error {
	db, err := sql.Open("sqlite", m.dataPath)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := verifySQLite(db); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("vacuum into backup: %w", err)
	}
	return nil
}

// ListBackups returns the backups, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := m.parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseName extracts the timestamp from prefix-YYYYMMDD-HHMMSS[-N]suffix.
func (m *Manager) parseName(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, constants.BackupFilePrefix)
	if !ok {
		return time.Time{}, false
	}
	rest, ok = strings.CutSuffix(rest, m.suffix)
	if !ok || len(rest) < len(timestampFormat) {
		return time.Time{}, false
	}
	if counter := rest[len(timestampFormat):]; counter != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(counter, "-"))
		if !strings.HasPrefix(counter, "-") || err != nil || n < 1 {
			return time.Time{}, false
		}
	}
	ts, err := time.ParseInLocation(timestampFormat, rest[:len(timestampFormat)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the data file with backupPath. The current file is
// backed up first. Callers must close any open provider beforehand.
func (m *Manager) RestoreBackup(backupPath string) (previous string, err error) {
	if _, err := os.Stat(backupPath); err != nil {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.verifyBackup(backupPath); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if _, err := os.Stat(m.dataPath); err == nil {
		previous, err = m.createBackup(false)
		if err != nil {
			return "", fmt.Errorf("failed to back up current data before restore: %w", err)
		}
	}

	tempPath := m.dataPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	if m.kind == storage.KindSQLite {
		// A leftover WAL would be replayed over the restored pages.
		for _, ext := range []string{"-wal", "-shm"} {
			if err := os.Remove(m.dataPath + ext); err != nil && !os.IsNotExist(err) {
				os.Remove(tempPath)
				return "", fmt.Errorf("failed to remove %s: %w", m.dataPath+ext, err)
			}
		}
	}
	if err := os.Rename(tempPath, m.dataPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to restore data file: %w", err)
	}
	logger.Info("restored backup", "backup", backupPath, "data", m.dataPath)
	return previous, nil
}

// Resolve accepts a backup path or a bare file name inside the backup
// directory.
func (m *Manager) Resolve(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(m.backupDir, name)
}

func (m *Manager) verifyBackup(path string) error {
	if m.kind == storage.KindSQLite {
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return err
		}
		defer db.Close()
		return verifySQLite(db)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if _, ok := doc["entries"]; !ok {
		return errors.New("not a stride data file")
	}
	return nil
}

func verifySQLite(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	var n int
	return db.QueryRow("SELECT COUNT(*) FROM kv_entries").Scan(&n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
