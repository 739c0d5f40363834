// Package migrations embeds the per-dialect schema files applied by
// internal/migration.
package migrations

import "embed"

// FS holds one directory of NNN_name.sql files per SQL dialect.
//
//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var FS embed.FS
