package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of state-changing actions (access-request
// review, credential provisioning, admin mutations). Rows are never updated
// or deleted.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Action    string         `gorm:"type:varchar(100);not null;index" json:"action"` // e.g. "access_request_approve"
	Entity    string         `gorm:"type:varchar(100)" json:"entity"`                // e.g. "access_requests"
	EntityID  uint           `gorm:"index" json:"entity_id"`
	OldValues datatypes.JSON `json:"old_values,omitempty"`
	NewValues datatypes.JSON `json:"new_values,omitempty"`
	UserID    uint           `gorm:"index" json:"user_id"` // acting user
	IPAddress string         `gorm:"type:varchar(45)" json:"ip_address"`
	CreatedAt time.Time      `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
