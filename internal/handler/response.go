package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/teamdesk/teamdesk/internal/apperr"
	"github.com/teamdesk/teamdesk/pkg/logger"
)

// respond renders the success envelope.
func respond(c echo.Context, status int, message string, data interface{}) error {
	body := echo.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

// statusOf maps an error kind to its HTTP status. This is the only place
// in the codebase where that mapping happens.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Invalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError renders the error envelope for a service error.
func respondError(c echo.Context, err error) error {
	e := apperr.As(err)
	if e.Kind == apperr.Internal {
		logger.FromEcho(c).Error("Request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Internal server error",
		})
	}

	body := echo.Map{"success": false, "message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	return c.JSON(statusOf(e.Kind), body)
}
