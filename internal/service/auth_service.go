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
	"github.com/teamdesk/teamdesk/pkg/jwtutil"
	"github.com/teamdesk/teamdesk/pkg/logger"
	"github.com/teamdesk/teamdesk/prometheus"
)

// AuthService handles tenant registration, login, and principal lookup.
type AuthService struct {
	db    *gorm.DB
	jwt   *jwtutil.JWTUtil
	audit *AuditService
}

func NewAuthService(db *gorm.DB, jwt *jwtutil.JWTUtil, audit *AuditService) *AuthService {
	return &AuthService{db: db, jwt: jwt, audit: audit}
}

// RegisterTenantInput is the payload for tenant self-registration.
type RegisterTenantInput struct {
	TenantName    string
	Subdomain     string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
	IPAddress     string
}

// RegisterTenantResult carries the created tenant, its first admin, and a
// token for that admin.
type RegisterTenantResult struct {
	TenantID uuid.UUID     `json:"tenantId"`
	Tenant   *model.Tenant `json:"tenant"`
	User     *model.User   `json:"user"`
	Token    string        `json:"token"`
}

// RegisterTenant creates a tenant together with its first tenant_admin as a
// single transaction; neither record persists if either insert fails.
func (s *AuthService) RegisterTenant(ctx context.Context, in RegisterTenantInput) (*RegisterTenantResult, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var existing model.Tenant
	err := s.db.WithContext(ctx).Where("subdomain = ?", in.Subdomain).First(&existing).Error
	if err == nil {
		return nil, apperr.New(apperr.Conflict, "SUBDOMAIN_EXISTS", "Subdomain is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(err, "Failed to check subdomain")
	}

	// Email uniqueness is global: login looks users up by bare email.
	var existingUser model.User
	err = s.db.WithContext(ctx).Where("email = ?", in.AdminEmail).First(&existingUser).Error
	if err == nil {
		return nil, apperr.New(apperr.Conflict, "EMAIL_EXISTS", "Email is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(err, "Failed to check email")
	}

	if fieldErrs := validatePassword(in.AdminPassword); len(fieldErrs) > 0 {
		return nil, apperr.Validation(fieldErrs)
	}

	hashed, err := hashPassword(in.AdminPassword)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to hash password")
	}

	tenant := model.Tenant{
		Name:             in.TenantName,
		Subdomain:        in.Subdomain,
		Status:           model.TenantActive,
		SubscriptionPlan: model.PlanFree,
		MaxUsers:         model.DefaultMaxUsers,
		MaxProjects:      model.DefaultMaxProjects,
	}
	admin := model.User{
		Email:        in.AdminEmail,
		PasswordHash: hashed,
		FullName:     in.AdminFullName,
		Role:         model.RoleTenantAdmin,
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		admin.TenantID = &tenant.ID
		return tx.Create(&admin).Error
	})
	if err != nil {
		// A concurrent registration can lose the race at either unique
		// index; the translated error no longer says which, so keep the
		// code neutral.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.Conflict, "REGISTRATION_CONFLICT", "Subdomain or email is already registered")
		}
		return nil, apperr.Wrap(err, "Failed to register tenant")
	}

	token, err := s.jwt.GenerateToken(admin.ID, admin.TenantID, string(admin.Role), admin.Email)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to generate token")
	}

	logger.FromContext(ctx).Info("Tenant registered",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("subdomain", tenant.Subdomain))

	s.audit.Record(ctx, AuditEntry{
		TenantID:   &tenant.ID,
		UserID:     &admin.ID,
		Action:     ActionRegisterTenant,
		EntityType: "tenant",
		EntityID:   tenant.ID,
		IPAddress:  in.IPAddress,
	})

	return &RegisterTenantResult{
		TenantID: tenant.ID,
		Tenant:   &tenant,
		User:     &admin,
		Token:    token,
	}, nil
}

// LoginResult carries the token and a user summary.
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login authenticates by email and password. Unknown email and wrong
// password surface as the identical Unauthorized error so the response
// does not leak which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	invalidCredentials := apperr.New(apperr.Unauthorized, "INVALID_CREDENTIALS", "Invalid email or password")

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidCredentials
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up user")
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, invalidCredentials
	}

	if !user.IsActive {
		return nil, apperr.New(apperr.Forbidden, "USER_INACTIVE", "User account is inactive")
	}

	token, err := s.jwt.GenerateToken(user.ID, user.TenantID, string(user.Role), user.Email)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to generate token")
	}

	logger.FromContext(ctx).Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return &LoginResult{Token: token, User: &user}, nil
}

// EnsureSuperAdmin creates the platform super admin if no user with the
// given email exists. Called at startup when the seed config is set.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, email, password, fullName string) error {
	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(err, "Failed to check super admin")
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return apperr.Wrap(err, "Failed to hash super admin password")
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     fullName,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return apperr.Wrap(err, "Failed to create super admin")
	}

	logger.FromContext(ctx).Info("Super admin seeded", zap.String("email", email))
	return nil
}

// CurrentUser returns the profile for an authenticated user id.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "USER_NOT_FOUND", "User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to look up user")
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.Forbidden, "USER_INACTIVE", "User account is inactive")
	}
	return &user, nil
}
