package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/pkg/jwtutil"
	"github.com/teamdesk/teamdesk/pkg/logger"
	"github.com/teamdesk/teamdesk/prometheus"
)

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": message})
}

func forbidden(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": message})
}

// bearerToken extracts the token from the Authorization header. Only the
// Bearer scheme is accepted.
func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// resolvePrincipal verifies the token and loads the referenced user with
// its tenant. The returned status is the HTTP status to fail with.
func resolvePrincipal(c echo.Context, db *gorm.DB, jwt *jwtutil.JWTUtil, token string) (*Principal, int, string) {
	claims, err := jwt.ValidateToken(token)
	if err != nil {
		logger.FromEcho(c).Warn("Invalid JWT token", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}

	var user model.User
	err = db.WithContext(c.Request().Context()).Preload("Tenant").First(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prometheus.RecordAuthError("user_not_found")
		return nil, http.StatusUnauthorized, "User not found"
	}
	if err != nil {
		logger.FromEcho(c).Error("Principal lookup failed", zap.Error(err))
		prometheus.RecordAuthError("lookup_failed")
		return nil, http.StatusInternalServerError, "Internal server error"
	}

	if !user.IsActive {
		prometheus.RecordAuthError("user_inactive")
		return nil, http.StatusForbidden, "User account is inactive"
	}

	return &Principal{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		TenantID: user.TenantID,
		Tenant:   user.Tenant,
	}, 0, ""
}

// Authenticate validates the bearer token and attaches the principal
// snapshot to the request context.
func Authenticate(db *gorm.DB, jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				prometheus.RecordAuthError("missing_token")
				return unauthorized(c, "Missing or invalid authorization token")
			}

			principal, status, message := resolvePrincipal(c, db, jwt, token)
			if principal == nil {
				return c.JSON(status, echo.Map{"success": false, "message": message})
			}

			SetPrincipal(c, principal)
			return next(c)
		}
	}
}

// AuthenticateOptional resolves a principal when a valid token is present
// but never fails; an absent or invalid token leaves the request anonymous.
func AuthenticateOptional(db *gorm.DB, jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearerToken(c); ok {
				if principal, _, _ := resolvePrincipal(c, db, jwt, token); principal != nil {
					SetPrincipal(c, principal)
				}
			}
			return next(c)
		}
	}
}
