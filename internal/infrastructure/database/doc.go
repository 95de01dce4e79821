// Package database provides the SQLite connection used to keep a history
// of project imports.
//
// The connection runs with a single writer, an optional WAL journal and a
// busy timeout. Schema changes are versioned SQL files applied by Migrate
// from any fs.FS, normally the embedded migrations package:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. Applied versions are recorded in the
// schema_migrations table.
package database
