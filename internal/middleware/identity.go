package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user id for use in Redis keys,
// or "anon" on public routes.
func currentUserID(c echo.Context) string {
	if id, ok := c.Get(ContextUserID).(uint64); ok && id > 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
