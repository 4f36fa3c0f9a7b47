package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/crmforge/accounts-api/internal/core/domain"
)

func rbacContext(e *echo.Echo, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(principalKey, user)
	}
	return c, rec
}

func TestRBAC_AllowedRolePasses(t *testing.T) {
	e := echo.New()
	c, rec := rbacContext(e, &domain.User{ID: "user_1", Role: domain.RoleAdmin})

	handler := RBAC(domain.RoleAdmin, domain.RoleManager)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_DisallowedRoleIs403(t *testing.T) {
	e := echo.New()
	c, _ := rbacContext(e, &domain.User{ID: "user_2", Role: domain.RoleCustomer})

	handler := RBAC(domain.RoleAdmin, domain.RoleManager)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRBAC_MissingPrincipalIs401(t *testing.T) {
	e := echo.New()
	c, _ := rbacContext(e, nil)

	handler := RBAC(domain.RoleAdmin)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
