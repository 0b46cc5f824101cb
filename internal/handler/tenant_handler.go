package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/teamdesk/teamdesk/internal/apperr"
	"github.com/teamdesk/teamdesk/internal/middleware"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/service"
)

// TenantHandler exposes tenant details, updates, and the platform listing.
type TenantHandler struct {
	tenants *service.TenantService
}

func NewTenantHandler(tenants *service.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// tenantParam parses the :tenantId path parameter.
func tenantParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Invalid, "INVALID_TENANT_ID", "Invalid tenant id")
	}
	return id, nil
}

// Get handles GET /tenants/:tenantId.
func (h *TenantHandler) Get(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}

	details, err := h.tenants.GetTenant(c.Request().Context(), tenantID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Tenant details retrieved successfully", details)
}

// Update handles PUT /tenants/:tenantId.
func (h *TenantHandler) Update(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	var req struct {
		Name             *string                 `json:"name"`
		Subdomain        *string                 `json:"subdomain"`
		Status           *model.TenantStatus     `json:"status"`
		SubscriptionPlan *model.SubscriptionPlan `json:"subscriptionPlan"`
		MaxUsers         *int                    `json:"maxUsers"`
		MaxProjects      *int                    `json:"maxProjects"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	if req.Name != nil {
		errs.required("name", *req.Name)
		errs.maxLen("name", *req.Name, maxNameLen)
	}
	if req.Subdomain != nil {
		errs.subdomain("subdomain", *req.Subdomain)
	}
	if req.Status != nil && !req.Status.Valid() {
		errs.add("status", "Invalid status")
	}
	if req.SubscriptionPlan != nil && !req.SubscriptionPlan.Valid() {
		errs.add("subscriptionPlan", "Invalid subscription plan")
	}
	if req.MaxUsers != nil && *req.MaxUsers < 1 {
		errs.add("maxUsers", "maxUsers must be positive")
	}
	if req.MaxProjects != nil && *req.MaxProjects < 1 {
		errs.add("maxProjects", "maxProjects must be positive")
	}
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	tenant, err := h.tenants.UpdateTenant(c.Request().Context(), tenantID, service.UpdateTenantInput{
		Name:             req.Name,
		Subdomain:        req.Subdomain,
		Status:           req.Status,
		SubscriptionPlan: req.SubscriptionPlan,
		MaxUsers:         req.MaxUsers,
		MaxProjects:      req.MaxProjects,
		ActorID:          principal.ID,
		IPAddress:        c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Tenant updated successfully", tenant)
}

// List handles GET /tenants (super admin only; the route carries the
// role guard).
func (h *TenantHandler) List(c echo.Context) error {
	page, limit := pageParams(c)

	rows, pagination, total, err := h.tenants.ListTenants(c.Request().Context(), service.ListTenantsInput{
		Page:             page,
		Limit:            limit,
		Status:           c.QueryParam("status"),
		SubscriptionPlan: c.QueryParam("subscriptionPlan"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Tenants retrieved successfully", echo.Map{
		"tenants":    rows,
		"pagination": pagination,
		"total":      total,
	})
}
