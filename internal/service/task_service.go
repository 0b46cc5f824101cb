package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teamdesk/teamdesk/internal/apperr"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/pkg/logger"
	"github.com/teamdesk/teamdesk/prometheus"
)

// Priorities are stored as strings, so listings cannot sort on the raw
// column; rank them explicitly, most urgent first, soonest due first.
const taskListOrder = "CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC, due_date ASC NULLS LAST"

// TaskService handles task management within a tenant's projects.
type TaskService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewTaskService(db *gorm.DB, audit *AuditService) *TaskService {
	return &TaskService{db: db, audit: audit}
}

func (s *TaskService) projectInTenant(ctx context.Context, tenantID, projectID uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", projectID, tenantID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "PROJECT_NOT_FOUND", "Project not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up project")
	}
	return &project, nil
}

// assigneeInTenant verifies that the assignee belongs to the tenant, making
// cross-tenant assignment impossible.
func (s *TaskService) assigneeInTenant(ctx context.Context, tenantID, assigneeID uuid.UUID) error {
	var assignee model.User
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", assigneeID, tenantID).First(&assignee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.NotFound, "USER_NOT_FOUND", "Assigned user not found")
	}
	if err != nil {
		return apperr.Wrap(err, "Failed to look up assignee")
	}
	return nil
}

// CreateTaskInput is the payload for task creation. Status defaults to
// todo and priority to medium.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    model.TaskPriority
	DueDate     *time.Time
	AssignedTo  *uuid.UUID
	ActorID     uuid.UUID
	IPAddress   string
}

// CreateTask creates a task in a project of the tenant.
func (s *TaskService) CreateTask(ctx context.Context, tenantID, projectID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	if _, err := s.projectInTenant(ctx, tenantID, projectID); err != nil {
		return nil, err
	}

	if in.AssignedTo != nil {
		if err := s.assigneeInTenant(ctx, tenantID, *in.AssignedTo); err != nil {
			return nil, err
		}
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	task := model.Task{
		TenantID:    tenantID,
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      model.TaskTodo,
		Priority:    priority,
		AssignedTo:  in.AssignedTo,
		DueDate:     in.DueDate,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to create task")
	}

	logger.FromContext(ctx).Info("Task created",
		zap.String("task_id", task.ID.String()),
		zap.String("project_id", projectID.String()))

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &in.ActorID,
		Action:     ActionCreateTask,
		EntityType: "task",
		EntityID:   task.ID,
		IPAddress:  in.IPAddress,
	})

	return &task, nil
}

// ListTasksInput filters the task listing. Search matches the title,
// case-insensitively.
type ListTasksInput struct {
	Page       int
	Limit      int
	Status     string
	Priority   string
	AssignedTo *uuid.UUID
	Search     string
}

// ListTasks returns a page of a project's tasks ordered by priority rank
// descending, then due date ascending.
func (s *TaskService) ListTasks(ctx context.Context, tenantID, projectID uuid.UUID, in ListTasksInput) ([]model.Task, Pagination, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	if _, err := s.projectInTenant(ctx, tenantID, projectID); err != nil {
		return nil, Pagination{}, 0, err
	}

	page, limit := normalizePage(in.Page, in.Limit)

	query := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ? AND tenant_id = ?", projectID, tenantID)
	if in.Status != "" {
		query = query.Where("status = ?", in.Status)
	}
	if in.Priority != "" {
		query = query.Where("priority = ?", in.Priority)
	}
	if in.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *in.AssignedTo)
	}
	if in.Search != "" {
		query = query.Where("title ILIKE ?", "%"+in.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count tasks")
	}

	var tasks []model.Task
	err := query.
		Preload("Assignee", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "email")
		}).
		Order(taskListOrder).
		Offset((page - 1) * limit).Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to list tasks")
	}

	return tasks, newPagination(page, limit, total), total, nil
}

func (s *TaskService) taskInTenant(ctx context.Context, tenantID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", taskID, tenantID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "TASK_NOT_FOUND", "Task not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up task")
	}
	return &task, nil
}

// UpdateTaskStatus moves a task to a new status. There is no transition
// restriction; any status may move to any other.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, tenantID, taskID uuid.UUID, status model.TaskStatus, actorID uuid.UUID, ipAddress string) (*model.Task, error) {
	task, err := s.taskInTenant(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(task).Update("status", status).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to update task status")
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &actorID,
		Action:     ActionUpdateTaskStatus,
		EntityType: "task",
		EntityID:   task.ID,
		IPAddress:  ipAddress,
	})

	return task, nil
}

// UpdateTaskInput is a partial update. AssignedTo and DueDate are nullable:
// the Set flags distinguish "absent" (leave untouched) from an explicit
// null (clear the field).
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *model.TaskStatus
	Priority      *model.TaskPriority
	AssignedTo    *uuid.UUID
	AssignedToSet bool
	DueDate       *time.Time
	DueDateSet    bool
	ActorID       uuid.UUID
	IPAddress     string
}

// UpdateTask applies a partial update to a task within the tenant,
// re-validating tenant membership when the assignee changes to a non-null
// value.
func (s *TaskService) UpdateTask(ctx context.Context, tenantID, taskID uuid.UUID, in UpdateTaskInput) (*model.Task, error) {
	task, err := s.taskInTenant(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}

	if in.AssignedToSet && in.AssignedTo != nil {
		if err := s.assigneeInTenant(ctx, tenantID, *in.AssignedTo); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.AssignedToSet {
		updates["assigned_to"] = in.AssignedTo
	}
	if in.DueDateSet {
		updates["due_date"] = in.DueDate
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
			return nil, apperr.Wrap(err, "Failed to update task")
		}
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &in.ActorID,
		Action:     ActionUpdateTask,
		EntityType: "task",
		EntityID:   task.ID,
		IPAddress:  in.IPAddress,
	})

	return task, nil
}

// DeleteTask hard-deletes a task within the tenant.
func (s *TaskService) DeleteTask(ctx context.Context, tenantID, taskID uuid.UUID, actorID uuid.UUID, ipAddress string) error {
	task, err := s.taskInTenant(ctx, tenantID, taskID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", task.ID).Error; err != nil {
		return apperr.Wrap(err, "Failed to delete task")
	}

	logger.FromContext(ctx).Info("Task deleted",
		zap.String("task_id", task.ID.String()),
		zap.String("tenant_id", tenantID.String()))

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &actorID,
		Action:     ActionDeleteTask,
		EntityType: "task",
		EntityID:   task.ID,
		IPAddress:  ipAddress,
	})

	return nil
}
