package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crmforge/accounts-api/internal/core/domain"
)

// RBAC enforces role-based access control over the principal injected by
// Auth. Authenticated callers outside the allowlist get 403, never 401.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := Principal(c)
			if err != nil {
				return err
			}
			if _, ok := allowed[user.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
