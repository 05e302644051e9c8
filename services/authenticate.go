package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"github.com/opencampus/campus-api/utils/identity"
	"gorm.io/gorm"
)

// Login modes accepted by the strategy router.
const (
	LoginModePassword = "password"
	LoginModePhoneOTP = "phone_otp"
)

// OTPVerifier is the external one-time-code collaborator. Challenges are
// generated, stored and expired elsewhere; this core only asks for a verdict
// and surfaces it verbatim.
type OTPVerifier interface {
	Verify(ctx context.Context, in VerifyOTPInput) (bool, error)
}

// VerifyOTPInput scopes a challenge to an institution, phone and role scope.
type VerifyOTPInput struct {
	ChallengeID   string
	InstitutionID uint
	Phone         string
	Scope         string
	Code          string
}

// DevLoginProvider is an optional fallback for platform operators hitting the
// fixed demo tenant. It is composed at wiring time in development builds only
// and is nil in production.
type DevLoginProvider interface {
	// ResolveDemoInstitution returns the demo tenant when, and only when,
	// the given slug is the fixed demo slug.
	ResolveDemoInstitution(ctx context.Context, slug string) (*model.Institution, error)
}

// OAuthProfile is the identity asserted by the federated provider after code
// exchange and userinfo retrieval.
type OAuthProfile struct {
	Email  string
	Name   string
	Avatar string
}

// AuthService resolves each of the three login shapes to a session-bearing
// user. Every failure collapses to ErrInvalidCredentials; infrastructure
// errors propagate as-is.
type AuthService struct {
	db       *gorm.DB
	otp      OTPVerifier
	devLogin DevLoginProvider // nil outside development builds
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, otp OTPVerifier, devLogin DevLoginProvider) *AuthService {
	return &AuthService{
		db:       db,
		otp:      otp,
		devLogin: devLogin,
	}
}

// PasswordLoginInput is the password strategy shape. Scope selects the role
// class; the admin tier may omit the institution slug.
type PasswordLoginInput struct {
	InstitutionSlug string
	Scope           string // TEACHER, STUDENT, PARENT, or "" / "ADMIN" for the admin tier
	Email           string
	Password        string
}

// roleClass expands a login scope to the roles it covers.
func roleClass(scope string) []string {
	switch strings.ToUpper(scope) {
	case model.ScopeTeacher:
		return []string{model.RoleTeacher}
	case model.ScopeStudent:
		return []string{model.RoleStudent}
	case model.ScopeParent:
		return []string{model.RoleParent}
	default:
		return model.AdminTierRoles
	}
}

func isAdminScope(scope string) bool {
	switch strings.ToUpper(scope) {
	case model.ScopeTeacher, model.ScopeStudent, model.ScopeParent:
		return false
	}
	return true
}

// PasswordLogin verifies email+password within an institution and role class.
func (s *AuthService) PasswordLogin(ctx context.Context, in PasswordLoginInput) (*model.User, *model.Institution, error) {
	email := identity.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	adminScope := isAdminScope(in.Scope)
	if in.InstitutionSlug == "" && !adminScope {
		return nil, nil, ErrInvalidCredentials
	}

	institution, err := s.resolveInstitution(ctx, in.InstitutionSlug, adminScope)
	if err != nil {
		return nil, nil, err
	}

	roles := roleClass(in.Scope)
	var user model.User
	query := s.db.WithContext(ctx).
		Where("email = ? AND role IN ? AND active = ? AND approval_status = ?",
			email, roles, true, model.ApprovalApproved)
	if institution != nil {
		query = query.Where("institution_id = ?", institution.ID)
	}
	if err := query.Order("id ASC").First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.PasswordHash, in.Password); err != nil {
		if err == auth.ErrPasswordMismatch {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if institution == nil {
		institution = &model.Institution{}
		if err := s.db.WithContext(ctx).First(institution, user.InstitutionID).Error; err != nil {
			return nil, nil, err
		}
	}

	s.touchLastLogin(ctx, user.ID)
	user.Institution = *institution
	return &user, institution, nil
}

// resolveInstitution looks up the tenant by slug. For the admin tier a
// missing slug is allowed (platform operators), and a failed lookup may fall
// back to the injected development login provider's fixed demo tenant.
func (s *AuthService) resolveInstitution(ctx context.Context, slug string, adminScope bool) (*model.Institution, error) {
	if slug == "" {
		if adminScope {
			return nil, nil // slug-optional for platform operators
		}
		return nil, ErrInvalidCredentials
	}

	var institution model.Institution
	err := s.db.WithContext(ctx).Where("slug = ? AND active = ?", slug, true).First(&institution).Error
	if err == nil {
		return &institution, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if adminScope && s.devLogin != nil {
		demo, derr := s.devLogin.ResolveDemoInstitution(ctx, slug)
		if derr != nil {
			return nil, derr
		}
		if demo != nil {
			return demo, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// PhoneOTPLoginInput is the phone strategy shape. The OTP collaborator's
// verdict is authoritative; no second factor is applied here.
type PhoneOTPLoginInput struct {
	InstitutionSlug string
	Scope           string
	Phone           string
	Code            string
	ChallengeID     string
}

// PhoneOTPLogin verifies the challenge, then looks up an active, approved
// user by institution, role class and phone tail.
func (s *AuthService) PhoneOTPLogin(ctx context.Context, in PhoneOTPLoginInput) (*model.User, *model.Institution, error) {
	phone := identity.NormalizePhone(in.Phone)
	if phone == "" || in.Code == "" || in.ChallengeID == "" || in.InstitutionSlug == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if s.otp == nil {
		return nil, nil, fmt.Errorf("otp verifier not configured")
	}

	var institution model.Institution
	err := s.db.WithContext(ctx).Where("slug = ? AND active = ?", in.InstitutionSlug, true).First(&institution).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	ok, err := s.otp.Verify(ctx, VerifyOTPInput{
		ChallengeID:   in.ChallengeID,
		InstitutionID: institution.ID,
		Phone:         phone,
		Scope:         strings.ToUpper(in.Scope),
		Code:          in.Code,
	})
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	roles := roleClass(in.Scope)
	var users []model.User
	err = s.db.WithContext(ctx).
		Where("institution_id = ? AND role IN ? AND active = ? AND approval_status = ? AND phone <> ''",
			institution.ID, roles, true, model.ApprovalApproved).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, nil, err
	}

	for i := range users {
		if identity.PhonesMatch(phone, users[i].Phone) {
			s.touchLastLogin(ctx, users[i].ID)
			users[i].Institution = institution
			return &users[i], &institution, nil
		}
	}
	return nil, nil, ErrInvalidCredentials
}

// OAuthLogin resolves a federated sign-in. A previously unseen email creates
// a brand-new tenant (slug derived from the email domain) with a super_admin
// user and default settings; this is the only path that creates a tenant
// implicitly. Subsequent sign-ins refresh name, avatar and last-login.
func (s *AuthService) OAuthLogin(ctx context.Context, profile OAuthProfile) (*model.User, *model.Institution, error) {
	email := identity.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, nil, ErrInvalidCredentials
	}

	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Order("id ASC").First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{"last_login_at": time.Now()}
		if profile.Name != "" {
			updates["name"] = profile.Name
		}
		if profile.Avatar != "" {
			updates["avatar"] = profile.Avatar
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return nil, nil, err
		}
		var institution model.Institution
		if err := s.db.WithContext(ctx).First(&institution, existing.InstitutionID).Error; err != nil {
			return nil, nil, err
		}
		existing.Institution = institution
		return &existing, &institution, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, nil, err
	}

	// First sign-in: provision a fresh tenant and its owner in one transaction.
	var user *model.User
	var institution *model.Institution
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := s.availableSlug(tx, slugFromEmail(email))
		if err != nil {
			return err
		}

		inst := model.Institution{
			Slug:     slug,
			Name:     institutionNameFromEmail(email),
			Locale:   "en",
			Currency: "USD",
			Timezone: "UTC",
			Active:   true,
		}
		if err := tx.Create(&inst).Error; err != nil {
			return err
		}

		for key, value := range defaultInstitutionSettings() {
			setting := model.InstitutionSetting{InstitutionID: inst.ID, Key: key, Value: value}
			if err := tx.Create(&setting).Error; err != nil {
				return err
			}
		}

		name := profile.Name
		if name == "" {
			name = email
		}
		now := time.Now()
		owner := model.User{
			Email:          email,
			Name:           name,
			Avatar:         profile.Avatar,
			Role:           model.RoleSuperAdmin,
			InstitutionID:  inst.ID,
			Active:         true,
			ApprovalStatus: model.ApprovalApproved,
			LastLoginAt:    &now,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		owner.Institution = inst
		user = &owner
		institution = &inst
		return nil
	})
	if txErr != nil {
		return nil, nil, txErr
	}
	return user, institution, nil
}

// slugFromEmail derives the base tenant slug from the email domain:
// admin@newschool.org -> newschool-school.
func slugFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	base := domain
	if dot := strings.Index(domain, "."); dot > 0 {
		base = domain[:dot]
	}
	base = strings.ToLower(base)
	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), "-")
	if cleaned == "" {
		cleaned = "campus"
	}
	return cleaned + "-school"
}

// institutionNameFromEmail derives a display name from the email domain.
func institutionNameFromEmail(email string) string {
	slug := slugFromEmail(email)
	base := strings.TrimSuffix(slug, "-school")
	if base == "" {
		return "New School"
	}
	return strings.ToUpper(base[:1]) + base[1:] + " School"
}

// availableSlug disambiguates a taken slug with a numeric suffix.
func (s *AuthService) availableSlug(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&model.Institution{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func defaultInstitutionSettings() map[string]string {
	return map[string]string{
		"academic_year":    fmt.Sprintf("%d", time.Now().Year()),
		"attendance_mode":  "daily",
		"grading_scale":    "percentage",
		"session_timezone": "UTC",
	}
}

// touchLastLogin records the login time; failures are not fatal to the login.
func (s *AuthService) touchLastLogin(ctx context.Context, userID uint) {
	s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", time.Now())
}
