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

// ProjectService handles tenant project management.
type ProjectService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewProjectService(db *gorm.DB, audit *AuditService) *ProjectService {
	return &ProjectService{db: db, audit: audit}
}

// CreateProjectInput is the payload for project creation.
type CreateProjectInput struct {
	Name        string
	Description string
	ActorID     uuid.UUID
	IPAddress   string
}

// CreateProject creates a project in the tenant, enforcing the tenant's
// project quota.
func (s *ProjectService) CreateProject(ctx context.Context, tenantID uuid.UUID, in CreateProjectInput) (*model.Project, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "TENANT_NOT_FOUND", "Tenant not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up tenant")
	}

	var projectCount int64
	if err := s.db.WithContext(ctx).Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&projectCount).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count projects")
	}
	if projectCount >= int64(tenant.MaxProjects) {
		return nil, apperr.New(apperr.Conflict, "TENANT_PROJECT_LIMIT_EXCEEDED", "Tenant project limit reached")
	}

	project := model.Project{
		TenantID:    tenantID,
		Name:        in.Name,
		Description: in.Description,
		Status:      model.ProjectActive,
		CreatedBy:   in.ActorID,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to create project")
	}

	logger.FromContext(ctx).Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("tenant_id", tenantID.String()))

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &in.ActorID,
		Action:     ActionCreateProject,
		EntityType: "project",
		EntityID:   project.ID,
		IPAddress:  in.IPAddress,
	})

	return &project, nil
}

// ListProjectsInput filters the project listing. Search matches the
// project name, case-insensitively.
type ListProjectsInput struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// ProjectRow is a project listing row with task counts.
type ProjectRow struct {
	model.Project
	TaskCount          int64 `json:"taskCount"`
	CompletedTaskCount int64 `json:"completedTaskCount"`
}

// ListProjects returns a page of the tenant's projects with task counts.
func (s *ProjectService) ListProjects(ctx context.Context, tenantID uuid.UUID, in ListProjectsInput) ([]ProjectRow, Pagination, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	page, limit := normalizePage(in.Page, in.Limit)

	query := s.db.WithContext(ctx).Model(&model.Project{}).Where("tenant_id = ?", tenantID)
	if in.Status != "" {
		query = query.Where("status = ?", in.Status)
	}
	if in.Search != "" {
		query = query.Where("name ILIKE ?", "%"+in.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count projects")
	}

	var projects []model.Project
	err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&projects).Error
	if err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to list projects")
	}

	rows := make([]ProjectRow, 0, len(projects))
	for _, p := range projects {
		row := ProjectRow{Project: p}
		if err := s.db.WithContext(ctx).Model(&model.Task{}).Where("project_id = ?", p.ID).Count(&row.TaskCount).Error; err != nil {
			return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count tasks")
		}
		if err := s.db.WithContext(ctx).Model(&model.Task{}).Where("project_id = ? AND status = ?", p.ID, model.TaskCompleted).Count(&row.CompletedTaskCount).Error; err != nil {
			return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count completed tasks")
		}
		rows = append(rows, row)
	}

	return rows, newPagination(page, limit, total), total, nil
}

// UpdateProjectInput is a partial update; nil fields are left untouched.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *model.ProjectStatus
	ActorID     uuid.UUID
	IPAddress   string
}

// UpdateProject applies a partial update to a project within the tenant.
func (s *ProjectService) UpdateProject(ctx context.Context, tenantID, projectID uuid.UUID, in UpdateProjectInput) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", projectID, tenantID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "PROJECT_NOT_FOUND", "Project not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up project")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&project).Updates(updates).Error; err != nil {
			return nil, apperr.Wrap(err, "Failed to update project")
		}
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &in.ActorID,
		Action:     ActionUpdateProject,
		EntityType: "project",
		EntityID:   project.ID,
		IPAddress:  in.IPAddress,
	})

	return &project, nil
}

// DeleteProject hard-deletes a project and all of its tasks in one
// transaction.
func (s *ProjectService) DeleteProject(ctx context.Context, tenantID, projectID uuid.UUID, actorID uuid.UUID, ipAddress string) error {
	var project model.Project
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", projectID, tenantID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.NotFound, "PROJECT_NOT_FOUND", "Project not found")
	}
	if err != nil {
		return apperr.Wrap(err, "Failed to look up project")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Task{}, "project_id = ?", project.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Project{}, "id = ?", project.ID).Error
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete project")
	}

	logger.FromContext(ctx).Info("Project deleted",
		zap.String("project_id", project.ID.String()),
		zap.String("tenant_id", tenantID.String()))

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &actorID,
		Action:     ActionDeleteProject,
		EntityType: "project",
		EntityID:   project.ID,
		IPAddress:  ipAddress,
	})

	return nil
}
