package services

import (
	"fmt"
	"strings"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"github.com/opencampus/campus-api/utils/identity"
	"gorm.io/gorm"
)

// ProvisionResult is the outcome of minting (or reusing) a login account.
// Credential is the one-time plaintext for out-of-band delivery; it is empty
// when an existing account was reused and only metadata changed.
type ProvisionResult struct {
	User       *model.User
	Credential string
}

// ProvisionService idempotently creates or reuses login accounts for domain
// entities (creating a Teacher mints a login, approving an access request may
// reuse one).
type ProvisionService struct {
	db *gorm.DB
}

// NewProvisionService creates a new provision service
func NewProvisionService(db *gorm.DB) *ProvisionService {
	return &ProvisionService{db: db}
}

// BootstrapCredential derives the one-time plaintext from a domain seed
// (typically a generated code like a teacher code). The operator can
// reproduce it without it being guessable from public data alone; it is a
// bootstrap value the user is expected to change, not a production secret.
func BootstrapCredential(seed string) string {
	return fmt.Sprintf("%s@123", strings.ToLower(strings.TrimSpace(seed)))
}

// ProvisionRoleUser creates or reuses a User for (institution, email). It
// must run inside the same transaction as the domain-entity write that
// triggered it, so the login and the roster row either both exist or neither
// does. Pass the transaction handle as tx; pass s.db only for standalone use.
func (s *ProvisionService) ProvisionRoleUser(tx *gorm.DB, institutionID uint, role, email, displayName, passwordSeed string) (*ProvisionResult, error) {
	if tx == nil {
		tx = s.db
	}

	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("provisioning requires an email-shaped identifier")
	}

	var existing model.User
	err := tx.Where("institution_id = ? AND email = ?", institutionID, email).First(&existing).Error
	if err == nil {
		// Reuse: refresh metadata, mint no new credential.
		existing.Name = displayName
		existing.Active = true
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &ProvisionResult{User: &existing, Credential: ""}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	credential := BootstrapCredential(passwordSeed)
	hash, err := auth.HashPassword(credential)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Email:          email,
		PasswordHash:   hash,
		Name:           displayName,
		Role:           role,
		InstitutionID:  institutionID,
		Active:         true,
		ApprovalStatus: model.ApprovalApproved,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}

	return &ProvisionResult{User: &user, Credential: credential}, nil
}
