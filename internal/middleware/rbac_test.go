package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/teamdesk/teamdesk/internal/model"
)

func contextWithPrincipal(role model.Role, tenantID *uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	SetPrincipal(c, &Principal{ID: uuid.New(), Role: role, TenantID: tenantID})
	return c, rec
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		role     model.Role
		minimum  model.Role
		wantCode int
	}{
		{"user below tenant_admin", model.RoleUser, model.RoleTenantAdmin, http.StatusForbidden},
		{"tenant_admin meets tenant_admin", model.RoleTenantAdmin, model.RoleTenantAdmin, http.StatusOK},
		{"super_admin exceeds tenant_admin", model.RoleSuperAdmin, model.RoleTenantAdmin, http.StatusOK},
		{"tenant_admin below super_admin", model.RoleTenantAdmin, model.RoleSuperAdmin, http.StatusForbidden},
		{"user meets user", model.RoleUser, model.RoleUser, http.StatusOK},
	}
	for _, tc := range cases {
		c, rec := contextWithPrincipal(tc.role, nil)
		h := RequireRole(tc.minimum)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := h(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.name, err)
		}
		if rec.Code != tc.wantCode {
			t.Fatalf("%s: got %d, want %d", tc.name, rec.Code, tc.wantCode)
		}
	}
}

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	h := RequireRole(model.RoleUser)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestRequireTenantMatchingPath(t *testing.T) {
	tenantID := uuid.New()
	c, rec := contextWithPrincipal(model.RoleUser, &tenantID)
	c.SetParamNames("tenantId")
	c.SetParamValues(tenantID.String())

	h := RequireTenant()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
}

func TestRequireTenantMismatch(t *testing.T) {
	tenantID := uuid.New()
	c, rec := contextWithPrincipal(model.RoleTenantAdmin, &tenantID)
	c.SetParamNames("tenantId")
	c.SetParamValues(uuid.New().String())

	h := RequireTenant()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}
}

func TestRequireTenantSuperAdminBypass(t *testing.T) {
	c, rec := contextWithPrincipal(model.RoleSuperAdmin, nil)
	c.SetParamNames("tenantId")
	c.SetParamValues(uuid.New().String())

	h := RequireTenant()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
}

func TestRequireTenantFromBodyRestoresBody(t *testing.T) {
	tenantID := uuid.New()
	body := `{"tenantId":"` + tenantID.String() + `","name":"Acme"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	SetPrincipal(c, &Principal{ID: uuid.New(), Role: model.RoleUser, TenantID: &tenantID})

	var bound struct {
		Name string `json:"name"`
	}
	h := RequireTenant()(func(c echo.Context) error {
		// The body must still be readable after the tenant check peeked at it.
		if err := c.Bind(&bound); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if bound.Name != "Acme" {
		t.Fatalf("body was consumed by the tenant check: %+v", bound)
	}
}
