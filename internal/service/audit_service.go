package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/pkg/logger"
	"github.com/teamdesk/teamdesk/prometheus"
)

// Audit action tags.
const (
	ActionRegisterTenant   = "REGISTER_TENANT"
	ActionUpdateTenant     = "UPDATE_TENANT"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionCreateProject    = "CREATE_PROJECT"
	ActionUpdateProject    = "UPDATE_PROJECT"
	ActionDeleteProject    = "DELETE_PROJECT"
	ActionCreateTask       = "CREATE_TASK"
	ActionUpdateTask       = "UPDATE_TASK"
	ActionUpdateTaskStatus = "UPDATE_TASK_STATUS"
	ActionDeleteTask       = "DELETE_TASK"
)

// AuditEntry is one action to record.
type AuditEntry struct {
	TenantID   *uuid.UUID
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	IPAddress  string
	Metadata   model.Metadata
}

// AuditService appends immutable action records. Writes are best effort: a
// failed audit insert is logged and counted but never propagated, so it can
// never fail or roll back the operation that triggered it.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record appends an audit entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	row := model.AuditLog{
		TenantID:   entry.TenantID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		IPAddress:  entry.IPAddress,
		Metadata:   entry.Metadata,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.FromContext(ctx).Error("Audit log write failed",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
		prometheus.RecordAuditFailure()
	}
}
