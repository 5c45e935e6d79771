package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/callpulse-hq/callpulse/pkg/jwt"
)

const (
	// OwnerContextKey is the echo context key holding the authenticated
	// subject. Record ownership checks compare against it.
	OwnerContextKey = "owner"
	// ClaimsContextKey holds the full token claims
	ClaimsContextKey = "claims"
)

// EchoAuth returns an Echo middleware that validates the bearer token and
// sets the owner subject into the request context. Token issuance lives
// with the external identity provider; this service only verifies.
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(OwnerContextKey, claims.Subject)
			c.Set(ClaimsContextKey, claims)
			return next(c)
		}
	}
}

// OwnerFromContext retrieves the authenticated subject set by EchoAuth
func OwnerFromContext(c echo.Context) (string, bool) {
	owner, ok := c.Get(OwnerContextKey).(string)
	return owner, ok && owner != ""
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}

	return ""
}
