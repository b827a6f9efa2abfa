// internal/api/v2/middleware.go
package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware enforces bearer token authentication on mutating endpoints.
// When no token is configured, authentication is disabled and every request
// passes through.
func (c *Controller) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := c.Settings.WebServer.AuthToken
		if token == "" {
			return next(ctx)
		}

		authHeader := ctx.Request().Header.Get("Authorization")
		if authHeader == "" {
			return ctx.JSON(http.StatusUnauthorized, NewErrorResponse(nil,
				"Missing Authorization header", http.StatusUnauthorized))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return ctx.JSON(http.StatusUnauthorized, NewErrorResponse(nil,
				"Invalid Authorization header format. Use 'Bearer {token}'", http.StatusUnauthorized))
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.logAPIRequest(ctx, slog.LevelWarn, "Rejected request with invalid token")
			return ctx.JSON(http.StatusUnauthorized, NewErrorResponse(nil,
				"Invalid or expired token", http.StatusUnauthorized))
		}

		return next(ctx)
	}
}
