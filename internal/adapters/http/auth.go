package http

import (
	"crypto/subtle"
	nethttp "net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// BearerAuth rejects requests whose bearer token does not match secret.
// An empty secret rejects everything with 503.
func BearerAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return c.JSON(nethttp.StatusServiceUnavailable, errorBody("Agent secret not configured"))
			}
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return c.JSON(nethttp.StatusUnauthorized, errorBody("Missing Bearer token"))
			}
			token := strings.TrimSpace(header[len(bearerPrefix):])
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				return c.JSON(nethttp.StatusForbidden, errorBody("Invalid token"))
			}
			return next(c)
		}
	}
}
