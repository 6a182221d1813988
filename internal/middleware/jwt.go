package middleware // reusable HTTP middleware for the API

import (
	"net/http" // HTTP status codes for responses
	"strings"  // Bearer prefix handling

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/shop-backoffice/internal/utils" // access token verification
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "user_id" // uint64
	ContextRole   = "role"    // string
)

// JWTAuth returns an Echo middleware that requires a valid Bearer access
// token. On success the numeric user id and the role claim are stored in
// the context under ContextUserID and ContextRole; any failure ends the
// request with 401.
func JWTAuth(s utils.TokenSettings) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			// Signature, HS256, exp, iss and aud are all checked here.
			claims, err := utils.ParseAccessToken(s, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, err := claims.UserID()
			if err != nil || claims.Role == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(ContextUserID, uid)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}
