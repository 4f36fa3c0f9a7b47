package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crmforge/accounts-api/internal/api/metrics"
	"github.com/crmforge/accounts-api/internal/core/domain"
	"github.com/crmforge/accounts-api/internal/core/ports"
)

// principalKey is the context key under which the authenticated user is
// stored for downstream handlers.
const principalKey = "principal"

// Auth extracts the bearer token, runs full validation (signature, expiry,
// subject re-fetch, current-role comparison) through the auth service, and
// injects the resulting user into the request context. Every failure
// surfaces as a uniform 401; the subtype goes to logs and metrics only.
func Auth(auth ports.AuthService, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			user, err := auth.Validate(c.Request().Context(), parts[1])
			if err != nil {
				reason := validationReason(err)
				metrics.TokenValidationsTotal.WithLabelValues(reason).Inc()
				log.Warn().
					Str("reason", reason).
					Str("path", c.Path()).
					Msg("token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			}

			metrics.TokenValidationsTotal.WithLabelValues("ok").Inc()
			c.Set(principalKey, user)

			return next(c)
		}
	}
}

// validationReason maps a validation error to its metric/log label. Token
// contents never appear here.
func validationReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrRoleMismatch):
		return "role_mismatch"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrUserInactive):
		return "inactive"
	default:
		return "invalid"
	}
}

// Principal returns the authenticated user injected by Auth.
func Principal(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(principalKey).(*domain.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return user, nil
}
