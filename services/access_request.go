package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"github.com/opencampus/campus-api/utils/identity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultRejectionReason is stored when the reviewer gives none.
const DefaultRejectionReason = "Your access request was not approved"

// AccessRequestService runs the self-service signup state machine:
// PENDING -> APPROVED | REJECTED, both terminal. A request is only accepted
// when the institution's registry already knows the claimed identity.
type AccessRequestService struct {
	db       *gorm.DB
	registry *RegistryService
	audit    *AuditService
}

// NewAccessRequestService creates a new access request service
func NewAccessRequestService(db *gorm.DB, registry *RegistryService, audit *AuditService) *AccessRequestService {
	return &AccessRequestService{
		db:       db,
		registry: registry,
		audit:    audit,
	}
}

// CreateAccessRequestInput is a self-service submission.
type CreateAccessRequestInput struct {
	InstitutionSlug string
	Scope           string // TEACHER, STUDENT, PARENT
	FullName        string
	Email           string
	Phone           string
	Password        string
	Metadata        map[string]interface{}
}

// ValidationError reports malformed input with a field-level breakdown. It is
// never persisted.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	for field, msg := range e.Fields {
		return fmt.Sprintf("%s: %s", field, msg)
	}
	return "validation failed"
}

func (in *CreateAccessRequestInput) validate() *ValidationError {
	fields := map[string]string{}
	if in.FullName == "" {
		fields["full_name"] = "full name is required"
	}
	if identity.NormalizeEmail(in.Email) == "" && identity.NormalizePhone(in.Phone) == "" {
		fields["email"] = "either email or phone is required"
	}
	if !model.IsValidScope(in.Scope) {
		fields["scope"] = "scope must be TEACHER, STUDENT or PARENT"
	}
	if !auth.IsPasswordValid(in.Password) {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create validates a submission against the institution's registry and
// persists a PENDING request. Nothing is written when any precondition fails.
func (s *AccessRequestService) Create(ctx context.Context, in CreateAccessRequestInput) (*model.AccessRequest, error) {
	if verr := in.validate(); verr != nil {
		return nil, verr
	}

	email := identity.NormalizeEmail(in.Email)
	phone := identity.NormalizePhone(in.Phone)

	var institution model.Institution
	err := s.db.WithContext(ctx).Where("slug = ? AND active = ?", in.InstitutionSlug, true).First(&institution).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInstitutionNotFound
		}
		return nil, err
	}

	// Trust boundary: the institution must already know this person.
	match, err := s.registry.FindMatch(ctx, institution.ID, in.Scope, email, phone)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrNotRegistered
	}

	// At most one in-flight request per (institution, scope, identifier).
	pending, err := s.findPending(ctx, institution.ID, in.Scope, email, phone)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrDuplicatePending
	}

	// An existing login for this identity blocks a new signup.
	if err := s.checkUserConflicts(ctx, institution.ID, in.Scope, email, phone); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	request := model.AccessRequest{
		InstitutionID: institution.ID,
		Scope:         in.Scope,
		FullName:      in.FullName,
		Email:         email,
		Phone:         phone,
		PasswordHash:  hash,
		Status:        model.ApprovalPending,
		RequestedAt:   time.Now(),
	}
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, err
		}
		request.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// findPending looks for an in-flight request with the same identifier.
func (s *AccessRequestService) findPending(ctx context.Context, institutionID uint, scope, email, phone string) (*model.AccessRequest, error) {
	var requests []model.AccessRequest
	err := s.db.WithContext(ctx).
		Where("institution_id = ? AND scope = ? AND status = ?", institutionID, scope, model.ApprovalPending).
		Order("id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if email != "" && identity.EmailsMatch(email, requests[i].Email) {
			return &requests[i], nil
		}
		if phone != "" && identity.PhonesMatch(phone, requests[i].Phone) {
			return &requests[i], nil
		}
	}
	return nil, nil
}

// checkUserConflicts rejects a signup when a login already exists for the
// claimed identity anywhere in the system.
func (s *AccessRequestService) checkUserConflicts(ctx context.Context, institutionID uint, scope, email, phone string) error {
	var users []model.User
	query := s.db.WithContext(ctx)
	if email != "" {
		query = query.Where("email = ?", email)
	} else {
		// Phone-only: candidates are narrowed in Go by tail comparison.
		query = query.Where("phone <> ''")
	}
	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return err
	}

	role := model.ScopeRole(scope)
	for i := range users {
		u := &users[i]
		if email == "" && !identity.PhonesMatch(phone, u.Phone) {
			continue
		}
		if u.InstitutionID != institutionID {
			return ErrIdentityConflict
		}
		if u.Role != role {
			return ErrIdentityConflict
		}
		if u.ApprovalStatus == model.ApprovalApproved {
			return ErrAccountExists
		}
	}
	return nil
}

// PlaceholderEmail synthesizes the login identifier for phone-only signups.
// The login layer requires an email-shaped identifier even for phone-first
// tenants, so the address is namespaced by institution slug and phone tail.
func PlaceholderEmail(phone, slug string) string {
	return fmt.Sprintf("phone-%s@%s.local", identity.PhoneTail(phone, identity.DefaultPhoneTailLength), slug)
}

// Approve mints (or reuses) a User for a PENDING request and marks it
// APPROVED, all in one transaction. Two concurrent approvals of the same
// request cannot both succeed: the status flip is a guarded update and the
// loser observes ErrRequestNotPending.
func (s *AccessRequestService) Approve(ctx context.Context, requestID uint, reviewer *model.User, ip string) (*model.User, error) {
	var approved *model.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.AccessRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			return err
		}
		if request.Status != model.ApprovalPending {
			return ErrRequestNotPending
		}

		var institution model.Institution
		if err := tx.First(&institution, request.InstitutionID).Error; err != nil {
			return err
		}

		resolvedEmail := request.Email
		if resolvedEmail == "" {
			resolvedEmail = PlaceholderEmail(request.Phone, institution.Slug)
		}

		user, err := s.resolveUser(tx, &request, resolvedEmail)
		if err != nil {
			return err
		}

		// Teacher approvals backfill the roster row's login reference so
		// future teacher-scoped queries resolve through the User.
		if request.Scope == model.ScopeTeacher {
			match, err := s.registry.FindMatch(ctx, request.InstitutionID, model.ScopeTeacher, request.Email, request.Phone)
			if err != nil {
				return err
			}
			if match != nil && match.Teacher != nil {
				if err := tx.Model(&model.Teacher{}).
					Where("id = ?", match.Teacher.ID).
					Update("user_id", user.ID).Error; err != nil {
					return err
				}
			}
		}

		// Guarded status flip: only one reviewer can win this race.
		now := time.Now()
		res := tx.Model(&model.AccessRequest{}).
			Where("id = ? AND status = ?", request.ID, model.ApprovalPending).
			Updates(map[string]interface{}{
				"status":           model.ApprovalApproved,
				"reviewer_id":      reviewer.ID,
				"approved_user_id": user.ID,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRequestNotPending
		}

		if err := s.audit.Record(ctx, tx, AuditEntry{
			Action:    "access_request_approve",
			Entity:    "access_requests",
			EntityID:  request.ID,
			OldValues: map[string]interface{}{"status": model.ApprovalPending},
			NewValues: map[string]interface{}{"status": model.ApprovalApproved, "user_id": user.ID},
			UserID:    reviewer.ID,
			IPAddress: ip,
		}); err != nil {
			return err
		}

		approved = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// resolveUser finds a User by the resolved email or phone, validating it
// belongs to the same institution and role, or creates a fresh one.
func (s *AccessRequestService) resolveUser(tx *gorm.DB, request *model.AccessRequest, resolvedEmail string) (*model.User, error) {
	role := model.ScopeRole(request.Scope)

	var candidates []model.User
	query := tx.Where("institution_id = ?", request.InstitutionID)
	if request.Phone != "" {
		query = query.Where("email = ? OR phone <> ''", resolvedEmail)
	} else {
		query = query.Where("email = ?", resolvedEmail)
	}
	if err := query.Order("id ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}

	for i := range candidates {
		u := &candidates[i]
		matched := identity.EmailsMatch(resolvedEmail, u.Email)
		if !matched && request.Phone != "" {
			matched = identity.PhonesMatch(request.Phone, u.Phone)
		}
		if !matched {
			continue
		}
		if u.Role != role {
			return nil, ErrIdentityConflict
		}
		// Update in place: the request's credentials and name win.
		u.Name = request.FullName
		u.PasswordHash = request.PasswordHash
		u.Active = true
		u.ApprovalStatus = model.ApprovalApproved
		if request.Phone != "" {
			u.Phone = request.Phone
		}
		if err := tx.Save(u).Error; err != nil {
			return nil, err
		}
		return u, nil
	}

	user := model.User{
		Email:          resolvedEmail,
		Phone:          request.Phone,
		PasswordHash:   request.PasswordHash,
		Name:           request.FullName,
		Role:           role,
		InstitutionID:  request.InstitutionID,
		Active:         true,
		ApprovalStatus: model.ApprovalApproved,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Reject marks a PENDING request REJECTED with a reason. No User is touched.
func (s *AccessRequestService) Reject(ctx context.Context, requestID uint, reviewer *model.User, reason, ip string) error {
	if reason == "" {
		reason = DefaultRejectionReason
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.AccessRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			return err
		}
		if request.Status != model.ApprovalPending {
			return ErrRequestNotPending
		}

		res := tx.Model(&model.AccessRequest{}).
			Where("id = ? AND status = ?", request.ID, model.ApprovalPending).
			Updates(map[string]interface{}{
				"status":           model.ApprovalRejected,
				"reviewer_id":      reviewer.ID,
				"rejection_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRequestNotPending
		}

		return s.audit.Record(ctx, tx, AuditEntry{
			Action:    "access_request_reject",
			Entity:    "access_requests",
			EntityID:  request.ID,
			OldValues: map[string]interface{}{"status": model.ApprovalPending},
			NewValues: map[string]interface{}{"status": model.ApprovalRejected, "reason": reason},
			UserID:    reviewer.ID,
			IPAddress: ip,
		})
	})
}
