// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// knowing which SQL dialect produced them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert violates a unique key, such as
// redeeming the same offered slot of a link twice.
var ErrConflict = errors.New("conflict")

// ErrStale is returned by conditional updates whose WHERE clause no
// longer matches because another writer changed the row first.
var ErrStale = errors.New("row changed concurrently")

const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a duplicate key error from
// either driver.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
