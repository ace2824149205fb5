package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pixmix/pixmix-backend/pkg/identity"
)

// AuthMiddleware gates protected routes behind bearer identity tokens.
type AuthMiddleware struct {
	verifier identity.Verifier
	logger   *slog.Logger
}

func NewAuthMiddleware(verifier identity.Verifier, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a well-formed bearer token before the
// verifier is even consulted, and with 403 when verification fails.
func (m *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			idToken, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || idToken == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid authorization header")
			}

			claims, err := m.verifier.Verify(c.Request().Context(), idToken)
			if err != nil {
				m.logger.Warn("identity token verification failed", "error", err)
				return echo.NewHTTPError(http.StatusForbidden, "invalid identity token")
			}

			c.Set("user_id", claims.UserID)
			c.Set("user_email", claims.Email)

			return next(c)
		}
	}
}
