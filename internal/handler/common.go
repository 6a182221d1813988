// Package handler holds the HTTP handlers. Handlers bind and validate the
// request, build the caller from the verified token, call one service
// operation and map its error to a status code.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/shop-backoffice/internal/logger"
	"github.com/iliyamo/shop-backoffice/internal/middleware"
	"github.com/iliyamo/shop-backoffice/internal/repository"
	"github.com/iliyamo/shop-backoffice/internal/service"
)

const requestTimeout = 5 * time.Second

// getUserID extracts the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get(middleware.ContextUserID).(type) {
	case uint64:
		return v, nil
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// callerFrom builds the explicit caller identity. On public routes it is
// the zero Caller, which services reject as unauthenticated.
func callerFrom(c echo.Context) service.Caller {
	uid, err := getUserID(c)
	if err != nil {
		return service.Caller{}
	}
	role, _ := c.Get(middleware.ContextRole).(string)
	return service.Caller{UserID: uid, Role: role}
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// bind decodes the body into req and runs the struct validator.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.New("invalid body")
	}
	return c.Validate(req)
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// writeError maps a service or repository error onto the HTTP taxonomy.
// Unknown errors are logged and reported as a bare 500.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrEmptyBasket),
		errors.Is(err, service.ErrProductMissing):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, repository.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		ctx := c.Request().Context()
		logger.Error(ctx, "request failed", err, zap.String("path", c.Path()))
		return c.JSON(status, echo.Map{"error": "internal server error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
