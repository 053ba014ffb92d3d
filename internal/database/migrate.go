package database

import (
	"context"
	"database/sql"
	"fmt"
)

// mysqlSchema is the production schema.  Dates are DATE columns and
// local times are minute counts, so the application never has to
// reconcile driver time zones for anything but audit timestamps.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS resources (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tenant_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NULL,
		name VARCHAR(255) NOT NULL,
		kind VARCHAR(32) NOT NULL DEFAULT 'professional',
		is_owner TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_resources_user (user_id),
		KEY idx_resources_tenant (tenant_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS services (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		tenant_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		duration_min INT NOT NULL,
		KEY idx_services_tenant (tenant_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS weekly_availability (
		resource_id BIGINT UNSIGNED NOT NULL,
		day_of_week TINYINT NOT NULL,
		active TINYINT(1) NOT NULL DEFAULT 0,
		start_min SMALLINT NOT NULL,
		end_min SMALLINT NOT NULL,
		PRIMARY KEY (resource_id, day_of_week)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS availability_exceptions (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		resource_id BIGINT UNSIGNED NOT NULL,
		day DATE NOT NULL,
		all_day TINYINT(1) NOT NULL DEFAULT 0,
		start_min SMALLINT NULL,
		end_min SMALLINT NULL,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		kind VARCHAR(16) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_exceptions_resource_day (resource_id, day)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		resource_id BIGINT UNSIGNED NOT NULL,
		day DATE NOT NULL,
		start_min SMALLINT NOT NULL,
		end_min SMALLINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		client_id BIGINT UNSIGNED NULL,
		customer_name VARCHAR(255) NOT NULL DEFAULT '',
		customer_phone VARCHAR(64) NOT NULL DEFAULT '',
		modality VARCHAR(16) NOT NULL,
		space_id BIGINT UNSIGNED NULL,
		link_id BIGINT UNSIGNED NULL,
		source VARCHAR(16) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_appointments_resource_day (resource_id, day)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservation_links (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		token_hash CHAR(64) NOT NULL,
		resource_id BIGINT UNSIGNED NOT NULL,
		client_id BIGINT UNSIGNED NULL,
		date_from DATE NOT NULL,
		date_to DATE NOT NULL,
		modality VARCHAR(16) NOT NULL,
		service_ids JSON NOT NULL,
		duration_min INT NOT NULL,
		offered_slots JSON NOT NULL,
		expires_at DATETIME NOT NULL,
		status VARCHAR(16) NOT NULL,
		message TEXT NULL,
		created_at DATETIME NOT NULL,
		used_at DATETIME NULL,
		UNIQUE KEY uq_links_token (token_hash),
		KEY idx_links_resource (resource_id),
		KEY idx_links_status_exp (status, expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS link_redemptions (
		link_id BIGINT UNSIGNED NOT NULL,
		day DATE NOT NULL,
		start_min SMALLINT NOT NULL,
		appointment_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (link_id, day, start_min)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booking_locks (
		resource_id BIGINT UNSIGNED NOT NULL,
		day DATE NOT NULL,
		version BIGINT UNSIGNED NOT NULL DEFAULT 0,
		PRIMARY KEY (resource_id, day)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// sqliteSchema mirrors mysqlSchema.  Dates and timestamps are TEXT in
// the formats the repositories write, which sort chronologically.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id INTEGER NOT NULL,
		user_id INTEGER NULL UNIQUE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'professional',
		is_owner INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_tenant ON resources (tenant_id)`,
	`CREATE TABLE IF NOT EXISTS services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		duration_min INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weekly_availability (
		resource_id INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		start_min INTEGER NOT NULL,
		end_min INTEGER NOT NULL,
		PRIMARY KEY (resource_id, day_of_week)
	)`,
	`CREATE TABLE IF NOT EXISTS availability_exceptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		resource_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		all_day INTEGER NOT NULL DEFAULT 0,
		start_min INTEGER NULL,
		end_min INTEGER NULL,
		reason TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exceptions_resource_day ON availability_exceptions (resource_id, day)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		resource_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		start_min INTEGER NOT NULL,
		end_min INTEGER NOT NULL,
		status TEXT NOT NULL,
		client_id INTEGER NULL,
		customer_name TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		modality TEXT NOT NULL,
		space_id INTEGER NULL,
		link_id INTEGER NULL,
		source TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_resource_day ON appointments (resource_id, day)`,
	`CREATE TABLE IF NOT EXISTS reservation_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token_hash TEXT NOT NULL UNIQUE,
		resource_id INTEGER NOT NULL,
		client_id INTEGER NULL,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		modality TEXT NOT NULL,
		service_ids TEXT NOT NULL,
		duration_min INTEGER NOT NULL,
		offered_slots TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT NULL,
		created_at TEXT NOT NULL,
		used_at TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_resource ON reservation_links (resource_id)`,
	`CREATE TABLE IF NOT EXISTS link_redemptions (
		link_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		start_min INTEGER NOT NULL,
		appointment_id INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (link_id, day, start_min)
	)`,
	`CREATE TABLE IF NOT EXISTS booking_locks (
		resource_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (resource_id, day)
	)`,
}

// Migrate creates every table the service needs.  It is idempotent and
// safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	var stmts []string
	switch dialect {
	case MySQL:
		stmts = mysqlSchema
	case SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unknown dialect %q", dialect)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
