package middleware

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/teamdesk/teamdesk/internal/model"
)

// RequireRole allows the request through when the principal's role is at
// least the minimum on the role order (user < tenant_admin < super_admin).
func RequireRole(minimum model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFrom(c)
			if !ok {
				return unauthorized(c, "Authentication required")
			}
			if !principal.Role.AtLeast(minimum) {
				return forbidden(c, "You do not have permission to access this resource")
			}
			return next(c)
		}
	}
}

// targetTenantID extracts the tenant id the request addresses, in
// precedence order: path parameter, body, query parameter.
func targetTenantID(c echo.Context) string {
	if id := c.Param("tenantId"); id != "" {
		return id
	}
	if id := tenantIDFromBody(c); id != "" {
		return id
	}
	return c.QueryParam("tenantId")
}

// tenantIDFromBody peeks at a JSON body for a tenantId field, restoring
// the body so handlers can still bind it.
func tenantIDFromBody(c echo.Context) string {
	req := c.Request()
	if req.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		TenantID string `json:"tenantId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.TenantID
}

// RequireTenant allows the request through when the principal belongs to
// the tenant the request addresses. Super admins bypass the check.
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFrom(c)
			if !ok {
				return unauthorized(c, "Authentication required")
			}
			if principal.Role == model.RoleSuperAdmin {
				return next(c)
			}
			target := targetTenantID(c)
			if principal.TenantID == nil || principal.TenantID.String() != target {
				return forbidden(c, "You do not have access to this tenant")
			}
			return next(c)
		}
	}
}
