package services

import (
	"context"
	"encoding/json"

	"github.com/opencampus/campus-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditService appends immutable audit records for state-changing operations.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEntry describes one state change.
type AuditEntry struct {
	Action    string
	Entity    string
	EntityID  uint
	OldValues interface{}
	NewValues interface{}
	UserID    uint
	IPAddress string
}

// Record appends an audit row. Pass tx to write within a caller's
// transaction; pass nil to use the service's own handle.
func (s *AuditService) Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error {
	if tx == nil {
		tx = s.db
	}

	row := model.AuditLog{
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		UserID:    entry.UserID,
		IPAddress: entry.IPAddress,
	}

	if entry.OldValues != nil {
		raw, err := json.Marshal(entry.OldValues)
		if err != nil {
			return err
		}
		row.OldValues = datatypes.JSON(raw)
	}
	if entry.NewValues != nil {
		raw, err := json.Marshal(entry.NewValues)
		if err != nil {
			return err
		}
		row.NewValues = datatypes.JSON(raw)
	}

	return tx.WithContext(ctx).Create(&row).Error
}
