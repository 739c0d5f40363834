package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/migration"
	"github.com/julianstephens/stride/migrations"
)

// SQLStore keeps entries in the kv_entries table of a SQL database.
type SQLStore struct {
	dialect Dialect
	// dsn is handed to sql.Open; display is what GetConfigPath reports.
	dsn     string
	display string
	isFile  bool
	db      *sql.DB
}

// NewSQLiteStore returns a store backed by the SQLite file at path.
func NewSQLiteStore(path string) *SQLStore {
	return &SQLStore{
		dialect: SQLiteDialect{},
		dsn:     path,
		display: path,
		isFile:  true,
	}
}

// NewPostgresStore returns a store backed by PostgreSQL. Tables are created
// in the stride schema unless connStr sets search_path.
func NewPostgresStore(connStr string) *SQLStore {
	return &SQLStore{
		dialect: PostgresDialect{},
		dsn:     withSearchPath(connStr),
		display: connStr,
	}
}

// NewMySQLStore returns a store backed by MySQL. password is used only when
// connStr carries none.
func NewMySQLStore(connStr, password string) (*SQLStore, error) {
	dsn, err := mysqlDriverDSN(connStr, password)
	if err != nil {
		return nil, err
	}
	return &SQLStore{
		dialect: MySQLDialect{},
		dsn:     dsn,
		display: connStr,
	}, nil
}

func (s *SQLStore) Init(ctx context.Context) error {
	if s.isFile {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := s.open(ctx); err != nil {
		return err
	}

	if err := s.dialect.Prepare(ctx, s.db); err != nil {
		return err
	}

	if _, err := s.runner().ApplyMigrations(ctx, func(msg string) {
		logger.Debug("migration", "dialect", s.dialect.Name(), "msg", msg)
	}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if s.isFile {
		if _, err := os.Stat(s.dsn); os.IsNotExist(err) {
			return ErrNotInitialized
		}
	}

	if err := s.open(ctx); err != nil {
		return err
	}
	if !s.isFile {
		if err := s.dialect.Prepare(ctx, s.db); err != nil {
			return err
		}
	}

	current, latest, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current == 0 {
		return ErrNotInitialized
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d) - please upgrade the application", current, latest)
	}
	if current < latest {
		// Older schemas are brought forward in place.
		if _, err := s.runner().ApplyMigrations(ctx, nil); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open(s.dialect.DriverName(), s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if _, ok := s.dialect.(PostgresDialect); ok {
			return postgresConnectHint(s.display, err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := s.dialect.ConfigureConnection(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to configure connection: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLStore) runner() *migration.Runner {
	sub, err := fs.Sub(migrations.FS, s.dialect.MigrationsSubdir())
	if err != nil {
		// The subdirectories are embedded at build time.
		panic(err)
	}
	return migration.NewRunner(s.db, sub, s.dialect.RewriteQuery)
}

// SchemaVersion reports the database's schema version and the newest one
// this build knows about.
func (s *SQLStore) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	if s.db == nil {
		return 0, 0, ErrNotLoaded
	}
	r := s.runner()
	if current, err = r.GetCurrentVersion(ctx); err != nil {
		return 0, 0, err
	}
	if latest, err = r.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if s.db == nil {
		return nil, ErrNotLoaded
	}

	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := s.dialect.RewriteQuery(
		"SELECT entry_key, entry_value FROM kv_entries WHERE entry_key IN (" + inPlaceholders(len(keys)) + ")")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		out[key] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return out, nil
}

func (s *SQLStore) PutAll(ctx context.Context, entries map[string][]byte) (err error) {
	if s.db == nil {
		return ErrNotLoaded
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Warn("rollback failed", "error", rbErr)
			}
		}
	}()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	upsert := s.dialect.RewriteQuery(s.dialect.UpsertQuery())
	now := time.Now().UTC()
	for _, k := range keys {
		if _, err = tx.ExecContext(ctx, upsert, k, string(entries[k]), now); err != nil {
			return fmt.Errorf("failed to write entry %q: %w", k, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// Revision returns the total number of entry writes recorded in the table.
func (s *SQLStore) Revision(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrNotLoaded
	}
	var rev int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(revision), 0) FROM kv_entries").Scan(&rev); err != nil {
		return 0, fmt.Errorf("failed to read revision: %w", err)
	}
	return rev, nil
}

func (s *SQLStore) GetConfigPath() string {
	return s.display
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// GetDB returns the underlying connection, or nil before Init or Load.
func (s *SQLStore) GetDB() *sql.DB {
	return s.db
}
