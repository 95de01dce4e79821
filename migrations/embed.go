// Package migrations embeds the SQL schema of the import history
// database so the binary can migrate without files on disk.
package migrations

import "embed"

// FS holds the migration files at its root. Pass it to database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
