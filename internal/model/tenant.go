package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantTrial     TenantStatus = "trial"
)

// Valid reports whether the status is one of the known values.
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantSuspended, TenantTrial:
		return true
	}
	return false
}

// SubscriptionPlan is the billing tier of a tenant.
type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

func (p SubscriptionPlan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Default quotas granted to newly registered tenants on the free plan.
const (
	DefaultMaxUsers    = 10
	DefaultMaxProjects = 5
)

// Tenant represents an isolated customer organization. All other records
// except super-admin users and system-wide audit entries belong to exactly
// one tenant.
type Tenant struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Name             string           `json:"name" gorm:"type:varchar(255);not null"`
	Subdomain        string           `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Status           TenantStatus     `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	SubscriptionPlan SubscriptionPlan `json:"subscriptionPlan" gorm:"type:varchar(20);not null;default:'free'"`
	MaxUsers         int              `json:"maxUsers" gorm:"not null;default:10"`
	MaxProjects      int              `json:"maxProjects" gorm:"not null;default:5"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
