package services

import (
	"context"
	"errors"
	"testing"

	"github.com/opencampus/campus-api/model"
)

func TestPasswordLoginSuccess(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createUser(t, db, institution.ID, model.RoleTeacher, "rahim@greenfield.edu", "", "secret-password")
	svc := NewAuthService(db, nil, nil)

	user, inst, err := svc.PasswordLogin(context.Background(), PasswordLoginInput{
		InstitutionSlug: institution.Slug,
		Scope:           model.ScopeTeacher,
		Email:           "Rahim@Greenfield.edu",
		Password:        "secret-password",
	})
	if err != nil {
		t.Fatalf("PasswordLogin returned error: %v", err)
	}
	if user.Email != "rahim@greenfield.edu" || inst.ID != institution.ID {
		t.Errorf("unexpected session: user=%q institution=%d", user.Email, inst.ID)
	}

	var reloaded model.User
	db.First(&reloaded, user.ID)
	if reloaded.LastLoginAt == nil {
		t.Error("a successful login must record last_login_at")
	}
}

func TestPasswordLoginFailuresAreOpaque(t *testing.T) {
	db := newTestDB(t)
	ours := createInstitution(t, db, "greenfield")
	theirs := createInstitution(t, db, "riverside")
	createUser(t, db, ours.ID, model.RoleTeacher, "rahim@greenfield.edu", "", "secret-password")

	pending := createUser(t, db, ours.ID, model.RoleStudent, "arif@greenfield.edu", "", "secret-password")
	db.Model(pending).Update("approval_status", model.ApprovalPending)

	svc := NewAuthService(db, nil, nil)

	cases := []struct {
		name string
		in   PasswordLoginInput
	}{
		{"wrong password", PasswordLoginInput{InstitutionSlug: ours.Slug, Scope: model.ScopeTeacher, Email: "rahim@greenfield.edu", Password: "wrong"}},
		{"unknown email", PasswordLoginInput{InstitutionSlug: ours.Slug, Scope: model.ScopeTeacher, Email: "ghost@greenfield.edu", Password: "secret-password"}},
		{"wrong tenant", PasswordLoginInput{InstitutionSlug: theirs.Slug, Scope: model.ScopeTeacher, Email: "rahim@greenfield.edu", Password: "secret-password"}},
		{"unknown slug", PasswordLoginInput{InstitutionSlug: "nowhere", Scope: model.ScopeTeacher, Email: "rahim@greenfield.edu", Password: "secret-password"}},
		{"wrong role scope", PasswordLoginInput{InstitutionSlug: ours.Slug, Scope: model.ScopeStudent, Email: "rahim@greenfield.edu", Password: "secret-password"}},
		{"pending approval", PasswordLoginInput{InstitutionSlug: ours.Slug, Scope: model.ScopeStudent, Email: "arif@greenfield.edu", Password: "secret-password"}},
		{"missing slug for non-admin", PasswordLoginInput{Scope: model.ScopeTeacher, Email: "rahim@greenfield.edu", Password: "secret-password"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Every precondition failure collapses to the same error so a
			// caller cannot probe which one tripped.
			if _, _, err := svc.PasswordLogin(context.Background(), tc.in); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestPasswordLoginAdminWithoutSlug(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createUser(t, db, institution.ID, model.RoleSuperAdmin, "owner@greenfield.edu", "", "secret-password")
	svc := NewAuthService(db, nil, nil)

	user, inst, err := svc.PasswordLogin(context.Background(), PasswordLoginInput{
		Email:    "owner@greenfield.edu",
		Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("PasswordLogin returned error: %v", err)
	}
	if user.Role != model.RoleSuperAdmin {
		t.Errorf("role = %q", user.Role)
	}
	if inst == nil || inst.ID != institution.ID {
		t.Error("institution must be resolved from the user when the slug is omitted")
	}
}

func TestDemoFallbackRequiresProvider(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil, nil)

	// Without the injected provider the demo slug is just an unknown tenant.
	_, err := svc.resolveInstitution(context.Background(), "demo-school", true)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestDemoFallbackResolvesFixedSlugOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil, NewDemoLoginProvider(db, "demo-school"))

	demo, err := svc.resolveInstitution(context.Background(), "demo-school", true)
	if err != nil {
		t.Fatalf("resolveInstitution returned error: %v", err)
	}
	if demo == nil || demo.Slug != "demo-school" {
		t.Fatalf("expected the demo tenant to be created on demand, got %+v", demo)
	}

	// Any other unknown slug still fails, provider or not.
	if _, err := svc.resolveInstitution(context.Background(), "other-school", true); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials for a non-demo slug", err)
	}

	// Non-admin scopes never reach the fallback.
	if _, err := svc.resolveInstitution(context.Background(), "demo-school2", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials for student scope", err)
	}
}

type staticOTPVerifier struct {
	verdict bool
	lastIn  VerifyOTPInput
}

func (v *staticOTPVerifier) Verify(_ context.Context, in VerifyOTPInput) (bool, error) {
	v.lastIn = in
	return v.verdict, nil
}

func TestPhoneOTPLoginMatchesByTail(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	created := createUser(t, db, institution.ID, model.RoleParent, "kamal@example.com", "+8801711122233", "")
	otp := &staticOTPVerifier{verdict: true}
	svc := NewAuthService(db, otp, nil)

	user, _, err := svc.PhoneOTPLogin(context.Background(), PhoneOTPLoginInput{
		InstitutionSlug: institution.Slug,
		Scope:           model.ScopeParent,
		Phone:           "01711122233", // local-format dial of the stored number
		Code:            "123456",
		ChallengeID:     "challenge-1",
	})
	if err != nil {
		t.Fatalf("PhoneOTPLogin returned error: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("resolved wrong user: %d", user.ID)
	}
	if otp.lastIn.InstitutionID != institution.ID {
		t.Error("the challenge must be verified against the resolved tenant")
	}
}

func TestPhoneOTPLoginVerdictIsAuthoritative(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createUser(t, db, institution.ID, model.RoleParent, "kamal@example.com", "+8801711122233", "")
	svc := NewAuthService(db, &staticOTPVerifier{verdict: false}, nil)

	_, _, err := svc.PhoneOTPLogin(context.Background(), PhoneOTPLoginInput{
		InstitutionSlug: institution.Slug,
		Scope:           model.ScopeParent,
		Phone:           "+8801711122233",
		Code:            "000000",
		ChallengeID:     "challenge-1",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials on a negative verdict", err)
	}
}

func TestOAuthLoginProvisionsTenant(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil, nil)

	user, institution, err := svc.OAuthLogin(context.Background(), OAuthProfile{
		Email: "head@newschool.org",
		Name:  "Head Teacher",
	})
	if err != nil {
		t.Fatalf("OAuthLogin returned error: %v", err)
	}
	if institution.Slug != "newschool-school" {
		t.Errorf("slug = %q, want newschool-school", institution.Slug)
	}
	if user.Role != model.RoleSuperAdmin {
		t.Errorf("first sign-in must own the tenant, role = %q", user.Role)
	}
	if user.InstitutionID != institution.ID {
		t.Error("owner must belong to the fresh tenant")
	}

	var settings int64
	db.Model(&model.InstitutionSetting{}).Where("institution_id = ?", institution.ID).Count(&settings)
	if settings == 0 {
		t.Error("a fresh tenant must receive default settings")
	}
}

func TestOAuthLoginSlugCollisionSuffix(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil, nil)

	_, first, err := svc.OAuthLogin(context.Background(), OAuthProfile{Email: "head@newschool.org"})
	if err != nil {
		t.Fatalf("first OAuthLogin returned error: %v", err)
	}
	// A different operator whose email domain collides on the same base slug.
	_, second, err := svc.OAuthLogin(context.Background(), OAuthProfile{Email: "principal@newschool.ac.bd"})
	if err != nil {
		t.Fatalf("second OAuthLogin returned error: %v", err)
	}

	if first.Slug != "newschool-school" {
		t.Errorf("first slug = %q", first.Slug)
	}
	if second.Slug != "newschool-school-2" {
		t.Errorf("second slug = %q, want numeric suffix on collision", second.Slug)
	}
}

func TestOAuthLoginExistingUserIsReused(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil, nil)

	first, _, err := svc.OAuthLogin(context.Background(), OAuthProfile{Email: "head@newschool.org", Name: "Old Name"})
	if err != nil {
		t.Fatalf("first OAuthLogin returned error: %v", err)
	}
	second, _, err := svc.OAuthLogin(context.Background(), OAuthProfile{Email: "head@newschool.org", Name: "New Name"})
	if err != nil {
		t.Fatalf("second OAuthLogin returned error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected the same account, got %d and %d", first.ID, second.ID)
	}

	var tenants int64
	db.Model(&model.Institution{}).Count(&tenants)
	if tenants != 1 {
		t.Errorf("a returning user must not create tenants, found %d", tenants)
	}

	var reloaded model.User
	db.First(&reloaded, first.ID)
	if reloaded.Name != "New Name" {
		t.Errorf("profile name should refresh on sign-in, got %q", reloaded.Name)
	}
}

func TestSlugFromEmail(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"head@newschool.org", "newschool-school"},
		{"a@My-Academy.edu.bd", "my-academy-school"},
		{"x@....", "campus-school"},
	}
	for _, tc := range cases {
		if got := slugFromEmail(tc.email); got != tc.want {
			t.Errorf("slugFromEmail(%q) = %q, want %q", tc.email, got, tc.want)
		}
	}
}
