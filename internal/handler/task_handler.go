package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/teamdesk/teamdesk/internal/apperr"
	"github.com/teamdesk/teamdesk/internal/middleware"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/service"
)

// TaskHandler exposes task management within a tenant's projects.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func taskParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Invalid, "INVALID_TASK_ID", "Invalid task id")
	}
	return id, nil
}

// Create handles POST /tenants/:tenantId/projects/:projectId/tasks.
func (h *TaskHandler) Create(c echo.Context) error {
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
		Title       string             `json:"title"`
		Description string             `json:"description"`
		Priority    model.TaskPriority `json:"priority"`
		DueDate     *time.Time         `json:"dueDate"`
		AssignedTo  *uuid.UUID         `json:"assignedTo"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	errs.required("title", req.Title)
	errs.maxLen("title", req.Title, maxNameLen)
	errs.maxLen("description", req.Description, 2000)
	if req.Priority != "" && !req.Priority.Valid() {
		errs.add("priority", "Invalid priority")
	}
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), tenantID, projectID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		ActorID:     principal.ID,
		IPAddress:   c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "Task created successfully", task)
}

// List handles GET /tenants/:tenantId/projects/:projectId/tasks.
func (h *TaskHandler) List(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	projectID, err := projectParam(c)
	if err != nil {
		return respondError(c, err)
	}
	page, limit := pageParams(c)

	in := service.ListTasksInput{
		Page:     page,
		Limit:    limit,
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		Search:   c.QueryParam("search"),
	}
	if assignee := c.QueryParam("assignedTo"); assignee != "" {
		id, err := uuid.Parse(assignee)
		if err != nil {
			return respondError(c, apperr.New(apperr.Invalid, "INVALID_USER_ID", "Invalid assignedTo id"))
		}
		in.AssignedTo = &id
	}

	tasks, pagination, total, err := h.tasks.ListTasks(c.Request().Context(), tenantID, projectID, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Tasks retrieved successfully", echo.Map{
		"tasks":      tasks,
		"pagination": pagination,
		"total":      total,
	})
}

// UpdateStatus handles PATCH /tenants/:tenantId/tasks/:taskId/status.
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	taskID, err := taskParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	var req struct {
		Status model.TaskStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}
	if !req.Status.Valid() {
		return respondError(c, apperr.Validation([]apperr.FieldError{
			{Field: "status", Message: "Status must be todo, in_progress, or completed"},
		}))
	}

	task, err := h.tasks.UpdateTaskStatus(c.Request().Context(), tenantID, taskID, req.Status, principal.ID, c.RealIP())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Task status updated successfully", task)
}

// Update handles PUT /tenants/:tenantId/tasks/:taskId. The assignedTo and
// dueDate fields are nullable; raw JSON is inspected so an explicit null
// clears the field while an absent key leaves it untouched.
func (h *TaskHandler) Update(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	taskID, err := taskParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	var req struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		Status      *model.TaskStatus   `json:"status"`
		Priority    *model.TaskPriority `json:"priority"`
		AssignedTo  json.RawMessage     `json:"assignedTo"`
		DueDate     json.RawMessage     `json:"dueDate"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.New(apperr.Invalid, "INVALID_REQUEST", "Invalid request body"))
	}

	var errs fieldErrors
	if req.Title != nil {
		errs.required("title", *req.Title)
		errs.maxLen("title", *req.Title, maxNameLen)
	}
	if req.Description != nil {
		errs.maxLen("description", *req.Description, 2000)
	}
	if req.Status != nil && !req.Status.Valid() {
		errs.add("status", "Invalid status")
	}
	if req.Priority != nil && !req.Priority.Valid() {
		errs.add("priority", "Invalid priority")
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		ActorID:     principal.ID,
		IPAddress:   c.RealIP(),
	}
	if req.AssignedTo != nil {
		in.AssignedToSet = true
		if string(req.AssignedTo) != "null" {
			var id uuid.UUID
			if err := json.Unmarshal(req.AssignedTo, &id); err != nil {
				errs.add("assignedTo", "Invalid assignedTo id")
			} else {
				in.AssignedTo = &id
			}
		}
	}
	if req.DueDate != nil {
		in.DueDateSet = true
		if string(req.DueDate) != "null" {
			var due time.Time
			if err := json.Unmarshal(req.DueDate, &due); err != nil {
				errs.add("dueDate", "Invalid dueDate")
			} else {
				in.DueDate = &due
			}
		}
	}
	if err := errs.err(); err != nil {
		return respondError(c, err)
	}

	task, err := h.tasks.UpdateTask(c.Request().Context(), tenantID, taskID, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Task updated successfully", task)
}

// Delete handles DELETE /tenants/:tenantId/tasks/:taskId.
func (h *TaskHandler) Delete(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return respondError(c, err)
	}
	taskID, err := taskParam(c)
	if err != nil {
		return respondError(c, err)
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, apperr.New(apperr.Unauthorized, "UNAUTHENTICATED", "Authentication required"))
	}

	if err := h.tasks.DeleteTask(c.Request().Context(), tenantID, taskID, principal.ID, c.RealIP()); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Task deleted successfully", echo.Map{"success": true})
}
