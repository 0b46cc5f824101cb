package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Metadata is an arbitrary JSON object stored in a jsonb column.
type Metadata map[string]interface{}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	}
	return fmt.Errorf("unsupported metadata type %T", value)
}

// AuditLog is an append-only record of a mutating action. TenantID and
// UserID are nil for system-wide events. Rows are never updated or deleted
// by the application.
type AuditLog struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   *uuid.UUID `json:"tenantId" gorm:"type:uuid;index"`
	UserID     *uuid.UUID `json:"userId" gorm:"type:uuid;index"`
	Action     string     `json:"action" gorm:"type:varchar(100);not null"`
	EntityType string     `json:"entityType" gorm:"type:varchar(50);not null"`
	EntityID   uuid.UUID  `json:"entityId" gorm:"type:uuid;not null"`
	IPAddress  string     `json:"ipAddress" gorm:"type:varchar(45)"`
	Metadata   Metadata   `json:"metadata" gorm:"type:jsonb"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
