package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a user's role. Roles form a strict hierarchy; use Level to
// compare them rather than enumerating allow-lists at call sites.
type Role string

const (
	RoleUser        Role = "user"
	RoleTenantAdmin Role = "tenant_admin"
	RoleSuperAdmin  Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTenantAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Level places roles on a total order: user < tenant_admin < super_admin.
// Unknown roles rank below user.
func (r Role) Level() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleTenantAdmin:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

// AtLeast reports whether r grants everything the minimum role grants.
func (r Role) AtLeast(minimum Role) bool {
	return r.Level() >= minimum.Level()
}

// User represents an account. TenantID is nil only for super admins, which
// exist outside any tenant. Email is unique within a tenant at the storage
// layer; the services additionally enforce global uniqueness so that login
// by bare email stays unambiguous.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     *uuid.UUID `json:"tenantId" gorm:"type:uuid;index;uniqueIndex:idx_users_tenant_email"`
	Email        string     `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_tenant_email"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	FullName     string     `json:"fullName" gorm:"type:varchar(255);not null"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	IsActive     bool       `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
