package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/teamdesk/teamdesk/internal/model"
)

const principalKey = "principal"

// Principal is the authenticated identity attached to a request. It is a
// snapshot taken at authentication time; handlers must not mutate it.
type Principal struct {
	ID       uuid.UUID
	Email    string
	FullName string
	Role     model.Role
	TenantID *uuid.UUID
	Tenant   *model.Tenant
}

// SetPrincipal attaches the principal to the echo context.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom retrieves the principal attached by Authenticate. The
// second return is false for anonymous requests.
func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok && p != nil
}
