package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Access request scopes. Self-service signups can never request the admin tier.
const (
	ScopeTeacher = "TEACHER"
	ScopeStudent = "STUDENT"
	ScopeParent  = "PARENT"
)

// IsValidScope reports whether scope is a role a self-service signup may request.
func IsValidScope(scope string) bool {
	switch scope {
	case ScopeTeacher, ScopeStudent, ScopeParent:
		return true
	}
	return false
}

// ScopeRole maps an access-request scope to the User role minted on approval.
func ScopeRole(scope string) string {
	switch scope {
	case ScopeTeacher:
		return RoleTeacher
	case ScopeStudent:
		return RoleStudent
	case ScopeParent:
		return RoleParent
	}
	return ""
}

// AccessRequest is a self-service signup awaiting administrator review. It
// holds the claimed identity and the hashed password until a reviewer either
// mints a User (approve) or records a reason (reject). Both transitions are
// terminal; at most one PENDING request may exist per (institution, scope,
// identifier).
type AccessRequest struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	InstitutionID   uint           `gorm:"not null;index" json:"institution_id"`
	Scope           string         `gorm:"type:varchar(20);not null" json:"scope"` // TEACHER, STUDENT, PARENT
	FullName        string         `gorm:"not null" json:"full_name"`
	Email           string         `gorm:"index;type:varchar(254)" json:"email"`
	Phone           string         `gorm:"type:varchar(20)" json:"phone"`
	PasswordHash    string         `json:"-"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedAt     time.Time      `gorm:"not null" json:"requested_at"`
	ReviewerID      *uint          `gorm:"index" json:"reviewer_id,omitempty"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	ApprovedUserID  *uint          `gorm:"index" json:"approved_user_id,omitempty"`
	Metadata        datatypes.JSON `json:"metadata,omitempty"`

	// Relationships
	Institution  Institution `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
	Reviewer     *User       `gorm:"foreignKey:ReviewerID" json:"-"`
	ApprovedUser *User       `gorm:"foreignKey:ApprovedUserID" json:"-"`
}

// TableName specifies the table name for AccessRequest
func (AccessRequest) TableName() string {
	return "access_requests"
}
