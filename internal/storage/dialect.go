package storage

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect captures what differs between the SQL databases behind SQLStore.
type Dialect interface {
	// Name identifies the dialect in diagnostics ("sqlite", "postgres", "mysql").
	Name() string

	// DriverName returns the driver name for sql.Open
	DriverName() string

	// RewriteQuery converts `?` placeholders if needed (e.g. to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies pool limits and session settings
	ConfigureConnection(ctx context.Context, db *sql.DB) error

	// Prepare runs once before migrations on Init (e.g. schema creation).
	Prepare(ctx context.Context, db *sql.DB) error

	// MigrationsSubdir returns the directory under migrations.FS for this dialect
	MigrationsSubdir() string

	// UpsertQuery writes one entry, bumping its revision when it already exists.
	// Parameters: key, value, updated_at.
	UpsertQuery() string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// inPlaceholders returns "?, ?, ..." with n placeholders.
func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
