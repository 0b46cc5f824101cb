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

// ProjectHandler exposes tenant project management.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func projectParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Invalid, "INVALID_PROJECT_ID", "Invalid project id")
	}
	return id, nil
}

// Create handles POST /tenants/:tenantId/projects.
func (h *ProjectHandler) Create(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	errs.required("name", req.Name)
	errs.maxLen("name", req.Name, maxNameLen)
	errs.maxLen("description", req.Description, 2000)
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.CreateProject(c.Request().Context(), tenantID, service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		ActorID:     principal.ID,
		IPAddress:   c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "Project created successfully", project)
}

// List handles GET /tenants/:tenantId/projects.
func (h *ProjectHandler) List(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	page, limit := pageParams(c)

	rows, pagination, total, err := h.projects.ListProjects(c.Request().Context(), tenantID, service.ListProjectsInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Projects retrieved successfully", echo.Map{
		"projects":   rows,
		"pagination": pagination,
		"total":      total,
	})
}

// Update handles PUT /tenants/:tenantId/projects/:projectId.
func (h *ProjectHandler) Update(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	projectID, err := projectParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	var req struct {
		Name        *string              `json:"name"`
		Description *string              `json:"description"`
		Status      *model.ProjectStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	if req.Name != nil {
		errs.required("name", *req.Name)
		errs.maxLen("name", *req.Name, maxNameLen)
	}
	if req.Description != nil {
		errs.maxLen("description", *req.Description, 2000)
	}
	if req.Status != nil && !req.Status.Valid() {
		errs.add("status", "Invalid status")
	}
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	project, err := h.projects.UpdateProject(c.Request().Context(), tenantID, projectID, service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		ActorID:     principal.ID,
		IPAddress:   c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Project updated successfully", project)
}

// Delete handles DELETE /tenants/:tenantId/projects/:projectId.
func (h *ProjectHandler) Delete(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	projectID, err := projectParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	if err := h.projects.DeleteProject(c.Request().Context(), tenantID, projectID, principal.ID, c.RealIP()); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Project deleted successfully", echo.Map{"success": true})
}
