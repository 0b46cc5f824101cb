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

// UserService handles tenant user management.
type UserService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewUserService(db *gorm.DB, audit *AuditService) *UserService {
	return &UserService{db: db, audit: audit}
}

// AddUserInput is the payload for adding a user to a tenant.
type AddUserInput struct {
	Email     string
	FullName  string
	Password  string
	Role      model.Role
	ActorID   uuid.UUID
	IPAddress string
}

// AddUser creates a user in the tenant, enforcing the tenant's user quota
// and global email uniqueness.
func (s *UserService) AddUser(ctx context.Context, tenantID uuid.UUID, in AddUserInput) (*model.User, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var tenant model.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "TENANT_NOT_FOUND", "Tenant not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up tenant")
	}

	var userCount int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id = ?", tenantID).Count(&userCount).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to count users")
	}
	if userCount >= int64(tenant.MaxUsers) {
		return nil, apperr.New(apperr.Conflict, "TENANT_USER_LIMIT_EXCEEDED", "Tenant user limit reached")
	}

	// Same global policy as registration; a cross-tenant duplicate would
	// make login by bare email ambiguous.
	var existing model.User
	err = s.db.WithContext(ctx).Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, apperr.New(apperr.Conflict, "EMAIL_EXISTS", "Email is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(err, "Failed to check email")
	}

	if fieldErrs := validatePassword(in.Password); len(fieldErrs) > 0 {
		return nil, apperr.Validation(fieldErrs)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to hash password")
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	user := model.User{
		TenantID:     &tenantID,
		Email:        in.Email,
		PasswordHash: hashed,
		FullName:     in.FullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.Conflict, "EMAIL_EXISTS", "Email is already registered")
		}
		return nil, apperr.Wrap(err, "Failed to create user")
	}

	logger.FromContext(ctx).Info("User added to tenant",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenantID.String()))

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &in.ActorID,
		Action:     ActionCreateUser,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  in.IPAddress,
	})

	return &user, nil
}

// ListUsersInput filters the tenant user listing. Search matches email or
// full name, case-insensitively.
type ListUsersInput struct {
	Page   int
	Limit  int
	Role   string
	Search string
}

// ListUsers returns a page of the tenant's users.
func (s *UserService) ListUsers(ctx context.Context, tenantID uuid.UUID, in ListUsersInput) ([]model.User, Pagination, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	page, limit := normalizePage(in.Page, in.Limit)

	query := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id = ?", tenantID)
	if in.Role != "" {
		query = query.Where("role = ?", in.Role)
	}
	if in.Search != "" {
		pattern := "%" + in.Search + "%"
		query = query.Where("email ILIKE ? OR full_name ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to count users")
	}

	var users []model.User
	err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, Pagination{}, 0, apperr.Wrap(err, "Failed to list users")
	}

	return users, newPagination(page, limit, total), total, nil
}

// UpdateUserInput is a partial update; nil fields are left untouched. A
// present password is re-validated against the policy and re-hashed.
type UpdateUserInput struct {
	FullName  *string
	Role      *model.Role
	IsActive  *bool
	Password  *string
	ActorID   uuid.UUID
	IPAddress string
}

// UpdateUser applies a partial update to a user within the tenant.
func (s *UserService) UpdateUser(ctx context.Context, tenantID, userID uuid.UUID, in UpdateUserInput) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "USER_NOT_FOUND", "User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up user")
	}

	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = *in.FullName
	}
	if in.Role != nil {
		updates["role"] = *in.Role
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Password != nil {
		if fieldErrs := validatePassword(*in.Password); len(fieldErrs) > 0 {
			return nil, apperr.Validation(fieldErrs)
		}
		hashed, err := hashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to hash password")
		}
		updates["password_hash"] = hashed
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, apperr.Wrap(err, "Failed to update user")
		}
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &in.ActorID,
		Action:     ActionUpdateUser,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  in.IPAddress,
	})

	return &user, nil
}

// DeleteUser removes a user from the tenant. Deleting the tenant's sole
// tenant_admin is refused.
func (s *UserService) DeleteUser(ctx context.Context, tenantID, userID uuid.UUID, actorID uuid.UUID, ipAddress string) error {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.NotFound, "USER_NOT_FOUND", "User not found")
	}
	if err != nil {
		return apperr.Wrap(err, "Failed to look up user")
	}

	if user.Role == model.RoleTenantAdmin {
		var adminCount int64
		err := s.db.WithContext(ctx).Model(&model.User{}).
			Where("tenant_id = ? AND role = ?", tenantID, model.RoleTenantAdmin).
			Count(&adminCount).Error
		if err != nil {
			return apperr.Wrap(err, "Failed to count tenant admins")
		}
		if adminCount == 1 {
			return apperr.New(apperr.Conflict, "CANNOT_DELETE_LAST_ADMIN", "Cannot delete the tenant's last admin")
		}
	}

	if err := s.db.WithContext(ctx).Delete(&model.User{}, "id = ?", user.ID).Error; err != nil {
		return apperr.Wrap(err, "Failed to delete user")
	}

	logger.FromContext(ctx).Info("User deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenantID.String()))

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenantID,
		UserID:     &actorID,
		Action:     ActionDeleteUser,
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  ipAddress,
	})

	return nil
}
