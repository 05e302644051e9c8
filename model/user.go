package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. The first four form the admin tier with full tenant visibility;
// teacher, student and parent are scoped by the visibility resolver.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RolePrincipal  = "principal"
	RoleStaff      = "staff"
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
	RoleParent     = "parent"
)

// Approval status values for User and AccessRequest rows.
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// AdminTierRoles lists the roles with full tenant visibility.
var AdminTierRoles = []string{RoleSuperAdmin, RoleAdmin, RolePrincipal, RoleStaff}

// IsAdminTier reports whether the role belongs to the admin tier.
func IsAdminTier(role string) bool {
	for _, r := range AdminTierRoles {
		if role == r {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is one of the fixed role enumeration.
func IsValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RolePrincipal, RoleStaff, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// User is a login-capable identity. A user belongs to exactly one institution;
// (institution, role, email) and (institution, role, phone) are the effective
// uniqueness keys, enforced at the application layer.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Email          string         `gorm:"index;type:varchar(254)" json:"email"` // empty for phone-only accounts
	Phone          string         `gorm:"index;type:varchar(20)" json:"phone"`
	PasswordHash   string         `json:"-"` // empty for OAuth-only accounts
	Name           string         `gorm:"not null" json:"name"`
	Avatar         string         `gorm:"type:text" json:"avatar,omitempty"`
	Role           string         `gorm:"type:varchar(20);not null;index" json:"role"`
	InstitutionID  uint           `gorm:"not null;index" json:"institution_id"`
	Active         bool           `gorm:"default:true" json:"active"`
	ApprovalStatus string         `gorm:"type:varchar(20);default:'APPROVED'" json:"approval_status"` // legacy accounts default APPROVED
	LastLoginAt    *time.Time     `json:"last_login_at,omitempty"`
	TokenVersion   int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Institution    Institution         `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
	AuditLogs      []AuditLog          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
