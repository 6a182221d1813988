// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Entity
// specific errors (ErrProductNotFound, ErrUsernameTaken, ...) wrap the
// generic ones so callers can match either with errors.Is.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a referenced row does not exist. Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as a duplicate username or deleting a user that
// still owns orders. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrImageNotFound   = fmt.Errorf("image %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrUsernameTaken   = fmt.Errorf("username already exists: %w", ErrConflict)
)

// ErrOutOfRange is returned when a value does not fit its column, such as
// a basket quantity pushed past the INT range by repeated adds.
var ErrOutOfRange = errors.New("value out of range")

// MySQL server error numbers we translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlOutOfRange      = 1264
)

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}
