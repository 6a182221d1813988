package handler // HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports liveness plus database reachability. It answers 503 when
// the database does not respond within two seconds.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "db": "down"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "db": "up"})
	}
}
