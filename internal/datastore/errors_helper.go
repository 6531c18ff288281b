// errors_helper.go: driver aware error classification.
package datastore

import (
	gomysql "github.com/go-sql-driver/mysql"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/pcbvision/aoi-go/internal/errors"
)

// mysqlDuplicateEntry is the server error code for unique key conflicts.
const mysqlDuplicateEntry = 1062

// dbError builds a categorized database error.
func dbError(err error, operation, pcbID string) error {
	var builder *errors.ErrorBuilder
	if err != nil {
		builder = errors.New(err)
	} else {
		builder = errors.Newf("database connection is not initialized")
	}
	builder = builder.
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	if pcbID != "" {
		builder = builder.Context("pcb_id", pcbID)
	}
	return builder.Build()
}

// classifyDBError maps driver specific failures onto categories the
// orchestrator understands. Busy and locked SQLite states are transient
// and marked as such in the error context.
func classifyDBError(err error, operation, pcbID string) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	if pcbID != "" {
		builder = builder.Context("pcb_id", pcbID)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			builder = builder.Context("transient", true).Context("driver", "sqlite")
		default:
			builder = builder.Context("driver", "sqlite")
		}
		return builder.Build()
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		builder = builder.Context("driver", "mysql").
			Context("mysql_errno", mysqlErr.Number)
		if mysqlErr.Number == mysqlDuplicateEntry {
			builder = builder.Context("duplicate_entry", true)
		}
		return builder.Build()
	}

	return builder.Build()
}
