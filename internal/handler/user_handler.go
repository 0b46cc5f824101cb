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

// UserHandler exposes tenant user management.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Add handles POST /tenants/:tenantId/users.
func (h *UserHandler) Add(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	var req struct {
		Email    string     `json:"email"`
		FullName string     `json:"fullName"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	errs.required("email", req.Email)
	errs.email("email", req.Email)
	errs.required("fullName", req.FullName)
	errs.maxLen("fullName", req.FullName, maxNameLen)
	errs.required("password", req.Password)
	if req.Role != "" && req.Role != model.RoleUser && req.Role != model.RoleTenantAdmin {
		errs.add("role", "Role must be user or tenant_admin")
	}
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	user, err := h.users.AddUser(c.Request().Context(), tenantID, service.AddUserInput{
		Email:     req.Email,
		FullName:  req.FullName,
		Password:  req.Password,
		Role:      req.Role,
		ActorID:   principal.ID,
		IPAddress: c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "User created successfully", user)
}

// List handles GET /tenants/:tenantId/users.
func (h *UserHandler) List(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	page, limit := pageParams(c)

	users, pagination, total, err := h.users.ListUsers(c.Request().Context(), tenantID, service.ListUsersInput{
		Page:   page,
		Limit:  limit,
		Role:   c.QueryParam("role"),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Users retrieved successfully", echo.Map{
		"users":      users,
		"pagination": pagination,
		"total":      total,
	})
}

// Update handles PUT /tenants/:tenantId/users/:userId.
func (h *UserHandler) Update(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_USER_ID", "Invalid user id"))
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	var req struct {
		FullName *string     `json:"fullName"`
		Role     *model.Role `json:"role"`
		IsActive *bool       `json:"isActive"`
		Password *string     `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	if req.FullName != nil {
		errs.required("fullName", *req.FullName)
		errs.maxLen("fullName", *req.FullName, maxNameLen)
	}
	if req.Role != nil && *req.Role != model.RoleUser && *req.Role != model.RoleTenantAdmin {
		errs.add("role", "Role must be user or tenant_admin")
	}
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	user, err := h.users.UpdateUser(c.Request().Context(), tenantID, userID, service.UpdateUserInput{
		FullName:  req.FullName,
		Role:      req.Role,
		IsActive:  req.IsActive,
		Password:  req.Password,
		ActorID:   principal.ID,
		IPAddress: c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "User updated successfully", user)
}

// Delete handles DELETE /tenants/:tenantId/users/:userId.
func (h *UserHandler) Delete(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_USER_ID", "Invalid user id"))
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	if err := h.users.DeleteUser(c.Request().Context(), tenantID, userID, principal.ID, c.RealIP()); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "User deleted successfully", echo.Map{"success": true})
}
