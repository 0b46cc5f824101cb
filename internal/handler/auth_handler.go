package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/teamdesk/teamdesk/internal/apperr"
	"github.com/teamdesk/teamdesk/internal/middleware"
	"github.com/teamdesk/teamdesk/internal/service"
	"github.com/teamdesk/teamdesk/pkg/logger"
	"github.com/teamdesk/teamdesk/prometheus"
)

// AuthHandler exposes registration, login, profile, and logout.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterTenant handles POST /auth/register-tenant.
func (h *AuthHandler) RegisterTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		TenantName    string `json:"tenantName"`
		Subdomain     string `json:"subdomain"`
		AdminEmail    string `json:"adminEmail"`
		AdminPassword string `json:"adminPassword"`
		AdminFullName string `json:"adminFullName"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse registration request", zap.Error(err))
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	errs.required("tenantName", req.TenantName)
	errs.maxLen("tenantName", req.TenantName, maxNameLen)
	errs.required("subdomain", req.Subdomain)
	errs.subdomain("subdomain", req.Subdomain)
	errs.required("adminEmail", req.AdminEmail)
	errs.email("adminEmail", req.AdminEmail)
	errs.required("adminPassword", req.AdminPassword)
	errs.required("adminFullName", req.AdminFullName)
	errs.maxLen("adminFullName", req.AdminFullName, maxNameLen)
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	result, err := h.auth.RegisterTenant(c.Request().Context(), service.RegisterTenantInput{
		TenantName:    req.TenantName,
		Subdomain:     req.Subdomain,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
		AdminFullName: req.AdminFullName,
		IPAddress:     c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}

	prometheus.IncreaseActiveTokens()
	return respond(c, http.StatusCreated, "Tenant registered successfully", result)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse login request", zap.Error(err))
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	errs.required("email", req.Email)
	errs.email("email", req.Email)
	errs.required("password", req.Password)
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		prometheus.RecordAuthError("login_failure")
		return respondError(c, err)
	}

	prometheus.IncreaseActiveTokens()
	return respond(c, http.StatusOK, "Login successful", result)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	user, err := h.auth.CurrentUser(c.Request().Context(), principal.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Profile retrieved successfully", user)
}

// Logout handles POST /auth/logout. Tokens are stateless, so this is an
// acknowledgment only; the client discards its token.
func (h *AuthHandler) Logout(c echo.Context) error {
	prometheus.DecreaseActiveTokens()
	return respond(c, http.StatusOK, "Logged out successfully", echo.Map{"success": true})
}
