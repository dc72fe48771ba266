// Package repository defines the MySQL-backed data access layer and the
// sentinel errors shared by every repository.  Higher layers translate
// them: ErrNotFound into a NotFound or InvalidToken outcome depending on
// context, ErrDuplicate into a Conflict.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches the lookup or update.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique key
// (username or email).
var ErrDuplicate = errors.New("duplicate key")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
