package store

import "embed"

// MigrationFS embeds SQL migration files from internal/store/migrations.
// Used by the migrate runner (cmd/migrate) to apply schema changes.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
