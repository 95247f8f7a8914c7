package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UsernameKey is the context key for storing the authenticated username
	UsernameKey ContextKey = "username"
)

// ExtractUsername extracts the X-User-ID header and stores it in the
// request context. The registry trusts the caller-supplied identity; it is
// recorded as the author on versions, releases and test cases.
func ExtractUsername() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username := c.Request().Header.Get("X-User-ID")
			if username != "" {
				c.Set(string(UsernameKey), username)
			}
			return next(c)
		}
	}
}

// GetUsername retrieves the username from the request context.
// Returns empty string if not set
func GetUsername(c echo.Context) string {
	username := c.Get(string(UsernameKey))
	if username == nil {
		return ""
	}
	return username.(string)
}

// RequireUsername ensures a username exists in context. Write endpoints use
// this because every version row records its author.
func RequireUsername(c echo.Context) (string, error) {
	username := GetUsername(c)
	if username == "" {
		err := c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error": "authentication required (X-User-ID header missing)",
		})
		return "", err
	}
	return username, nil
}
