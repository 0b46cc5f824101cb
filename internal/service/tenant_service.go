package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamdesk/teamdesk/internal/apperr"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/prometheus"
)

// TenantService handles tenant details, updates, and the super-admin
// platform listing.
type TenantService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewTenantService(db *gorm.DB, audit *AuditService) *TenantService {
	return &TenantService{db: db, audit: audit}
}

// TenantStats are live-computed per-tenant usage counts. They are not
// cached; every details request recounts.
type TenantStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalProjects int64 `json:"totalProjects"`
	TotalTasks    int64 `json:"totalTasks"`
}

// TenantDetails is a tenant with its usage stats.
type TenantDetails struct {
	*model.Tenant
	Stats TenantStats `json:"stats"`
}

// GetTenant returns a tenant with live usage stats.
func (s *TenantService) GetTenant(ctx context.Context, tenantID uuid.UUID) (*TenantDetails, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "TENANT_NOT_FOUND", "Tenant not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up tenant")
	}

	details := TenantDetails{Tenant: &tenant}
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id = ?", tenantID).Count(&details.Stats.TotalUsers).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count users")
	}
	if err := s.db.WithContext(ctx).Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&details.Stats.TotalProjects).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count projects")
	}
	if err := s.db.WithContext(ctx).Model(&model.Task{}).Where("tenant_id = ?", tenantID).Count(&details.Stats.TotalTasks).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count tasks")
	}
	return &details, nil
}

// UpdateTenantInput is a partial update; nil fields are left untouched.
type UpdateTenantInput struct {
	Name             *string
	Subdomain        *string
	Status           *model.TenantStatus
	SubscriptionPlan *model.SubscriptionPlan
	MaxUsers         *int
	MaxProjects      *int
	ActorID          uuid.UUID
	IPAddress        string
}

// UpdateTenant applies a partial update. A subdomain change re-checks
// global uniqueness.
func (s *TenantService) UpdateTenant(ctx context.Context, tenantID uuid.UUID, in UpdateTenantInput) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "TENANT_NOT_FOUND", "Tenant not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up tenant")
	}

	if in.Subdomain != nil && *in.Subdomain != tenant.Subdomain {
		var other model.Tenant
		err := s.db.WithContext(ctx).Where("subdomain = ?", *in.Subdomain).First(&other).Error
		if err == nil {
			return nil, apperr.New(apperr.Conflict, "SUBDOMAIN_EXISTS", "Subdomain is already registered")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(err, "Failed to check subdomain")
		}
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Subdomain != nil {
		updates["subdomain"] = *in.Subdomain
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.SubscriptionPlan != nil {
		updates["subscription_plan"] = *in.SubscriptionPlan
	}
	if in.MaxUsers != nil {
		updates["max_users"] = *in.MaxUsers
	}
	if in.MaxProjects != nil {
		updates["max_projects"] = *in.MaxProjects
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&tenant).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperr.New(apperr.Conflict, "SUBDOMAIN_EXISTS", "Subdomain is already registered")
			}
			return nil, apperr.Wrap(err, "Failed to update tenant")
		}
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenant.ID,
		UserID:     &in.ActorID,
		Action:     ActionUpdateTenant,
		EntityType: "tenant",
		EntityID:   tenant.ID,
		IPAddress:  in.IPAddress,
	})

	return &tenant, nil
}

// ListTenantsInput filters the super-admin tenant listing.
type ListTenantsInput struct {
	Page             int
	Limit            int
	Status           string
	SubscriptionPlan string
}

// TenantRow is a tenant listing row with live usage counts.
type TenantRow struct {
	model.Tenant
	TotalUsers    int64 `json:"totalUsers"`
	TotalProjects int64 `json:"totalProjects"`
}

// ListTenants returns a page of all tenants, each augmented with live
// user and project counts.
func (s *TenantService) ListTenants(ctx context.Context, in ListTenantsInput) ([]TenantRow, Pagination, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	page, limit := normalizePage(in.Page, in.Limit)

	query := s.db.WithContext(ctx).Model(&model.Tenant{})
	if in.Status != "" {
		query = query.Where("status = ?", in.Status)
	}
	if in.SubscriptionPlan != "" {
		query = query.Where("subscription_plan = ?", in.SubscriptionPlan)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count tenants")
	}

	var tenants []model.Tenant
	err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&tenants).Error
	if err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to list tenants")
	}

	rows := make([]TenantRow, 0, len(tenants))
	for _, t := range tenants {
		row := TenantRow{Tenant: t}
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id = ?", t.ID).Count(&row.TotalUsers).Error; err != nil {
			return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count users")
		}
		if err := s.db.WithContext(ctx).Model(&model.Project{}).Where("tenant_id = ?", t.ID).Count(&row.TotalProjects).Error; err != nil {
			return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count projects")
		}
		rows = append(rows, row)
	}

	return rows, newPagination(page, limit, total), total, nil
}
