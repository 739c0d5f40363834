package storage

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string       { return "sqlite" }
func (SQLiteDialect) DriverName() string { return "sqlite" }

func (SQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (SQLiteDialect) ConfigureConnection(ctx context.Context, db *sql.DB) error {
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return err
		}
	}
	return nil
}

func (SQLiteDialect) Prepare(context.Context, *sql.DB) error {
	return nil
}

func (SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (SQLiteDialect) UpsertQuery() string {
	return `INSERT INTO kv_entries (entry_key, entry_value, updated_at, revision) VALUES (?, ?, ?, 1)
		ON CONFLICT (entry_key) DO UPDATE SET
			entry_value = excluded.entry_value,
			updated_at = excluded.updated_at,
			revision = kv_entries.revision + 1`
}
