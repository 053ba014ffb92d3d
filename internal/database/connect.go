package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/slot-booking/internal/config"
)

// Connect opens the database selected by cfg.DBDriver and applies the
// schema.
func Connect(ctx context.Context, cfg config.Config) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	switch cfg.DBDriver {
	case "sqlite":
		db, err = OpenSQLite(cfg.SQLitePath)
		dialect = SQLite
	default:
		db, err = Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialect = MySQL
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, "", err
	}
	return db, dialect, nil
}
