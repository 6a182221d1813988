// Package service holds the business rules of the back office. Every
// operation that depends on who is calling takes an explicit Caller; the
// HTTP layer builds it from the verified access token.
package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backoffice/internal/model"
	"github.com/iliyamo/shop-backoffice/internal/repository"
)

var (
	// ErrValidation marks malformed or missing input. Wrapped errors carry
	// the detail, e.g. "validation failed: username is required".
	ErrValidation = errors.New("validation failed")

	// ErrEmptyBasket is returned by checkout when the basket has no items.
	ErrEmptyBasket = errors.New("basket is empty")

	// ErrProductMissing is returned by checkout when a basket line points
	// at a product that no longer exists.
	ErrProductMissing = errors.New("product no longer exists")

	// ErrInvalidCredentials is returned by Authenticate for an unknown
	// username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when the caller carries no user id.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Upper bounds for client supplied numbers. Amounts are stored as
// DECIMAL(12,2).
const MaxLineQuantity = 10000

var MaxAmount = decimal.RequireFromString("9999999999.99")

// checkAmount rejects negative values, more than two decimal places and
// values the amount columns cannot hold.
func checkAmount(field string, v decimal.Decimal) error {
	switch {
	case v.IsNegative():
		return invalid("%s must not be negative", field)
	case !v.Equal(v.Round(2)):
		return invalid("%s has more than two decimal places", field)
	case v.GreaterThan(MaxAmount):
		return invalid("%s must not exceed %s", field, MaxAmount.StringFixed(2))
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Caller identifies who is invoking an operation.
type Caller struct {
	UserID uint64
	Role   string
}

func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

func requireUser(c Caller) error {
	if c.UserID == 0 {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(c Caller) error {
	if err := requireUser(c); err != nil {
		return err
	}
	if !c.IsAdmin() {
		return repository.ErrForbidden
	}
	return nil
}
