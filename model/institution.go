package model

import (
	"time"

	"gorm.io/gorm"
)

// Institution is the tenant root. Every user and registry record belongs to
// exactly one institution, and every query is partitioned by its ID.
type Institution struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Slug      string         `gorm:"uniqueIndex;not null;type:varchar(100)" json:"slug"` // lower-case, URL-safe, immutable
	Name      string         `gorm:"not null" json:"name"`
	Locale    string         `gorm:"type:varchar(10);default:'en'" json:"locale"`
	Currency  string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Timezone  string         `gorm:"type:varchar(50);default:'UTC'" json:"timezone"`
	Active    bool           `gorm:"default:true" json:"active"`

	// Relationships
	Users    []User               `gorm:"foreignKey:InstitutionID;constraint:OnDelete:CASCADE" json:"-"`
	Teachers []Teacher            `gorm:"foreignKey:InstitutionID;constraint:OnDelete:CASCADE" json:"-"`
	Students []Student            `gorm:"foreignKey:InstitutionID;constraint:OnDelete:CASCADE" json:"-"`
	Classes  []SchoolClass        `gorm:"foreignKey:InstitutionID;constraint:OnDelete:CASCADE" json:"-"`
	Settings []InstitutionSetting `gorm:"foreignKey:InstitutionID;constraint:OnDelete:CASCADE" json:"-"`
}

// InstitutionSetting stores per-tenant key/value configuration. A fresh tenant
// created through OAuth sign-in gets a default set of these.
type InstitutionSetting struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InstitutionID uint      `gorm:"not null;index:idx_institution_setting,unique" json:"institution_id"`
	Key           string    `gorm:"not null;type:varchar(100);index:idx_institution_setting,unique" json:"key"`
	Value         string    `gorm:"type:text" json:"value"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for InstitutionSetting
func (InstitutionSetting) TableName() string {
	return "institution_settings"
}
