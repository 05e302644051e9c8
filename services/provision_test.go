package services

import (
	"testing"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
)

func TestBootstrapCredential(t *testing.T) {
	cases := []struct {
		seed string
		want string
	}{
		{"TCH-001", "tch-001@123"},
		{"  TCH-042  ", "tch-042@123"},
		{"stu-9", "stu-9@123"},
	}
	for _, tc := range cases {
		if got := BootstrapCredential(tc.seed); got != tc.want {
			t.Errorf("BootstrapCredential(%q) = %q, want %q", tc.seed, got, tc.want)
		}
	}
}

func TestProvisionRoleUserMintsCredential(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	svc := NewProvisionService(db)

	result, err := svc.ProvisionRoleUser(nil, institution.ID, model.RoleTeacher, "Rahim@Greenfield.edu", "Rahim Uddin", "TCH-001")
	if err != nil {
		t.Fatalf("ProvisionRoleUser returned error: %v", err)
	}
	if result.Credential != "tch-001@123" {
		t.Errorf("credential = %q, want seed-derived bootstrap value", result.Credential)
	}
	if result.User.Email != "rahim@greenfield.edu" {
		t.Errorf("email not normalized: %q", result.User.Email)
	}
	if result.User.Role != model.RoleTeacher || result.User.InstitutionID != institution.ID {
		t.Errorf("user minted with wrong role/tenant: %+v", result.User)
	}
	if !result.User.Active || result.User.ApprovalStatus != model.ApprovalApproved {
		t.Error("provisioned user must be active and approved")
	}
	if err := auth.VerifyPassword(result.User.PasswordHash, result.Credential); err != nil {
		t.Errorf("stored hash does not verify against the returned credential: %v", err)
	}
}

func TestProvisionRoleUserReusesExisting(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	svc := NewProvisionService(db)

	first, err := svc.ProvisionRoleUser(nil, institution.ID, model.RoleTeacher, "rahim@greenfield.edu", "Rahim", "TCH-001")
	if err != nil {
		t.Fatalf("first provision returned error: %v", err)
	}

	second, err := svc.ProvisionRoleUser(nil, institution.ID, model.RoleTeacher, "rahim@greenfield.edu", "Rahim Uddin", "TCH-001")
	if err != nil {
		t.Fatalf("second provision returned error: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("expected the existing account to be reused, got a new one (%d != %d)", second.User.ID, first.User.ID)
	}
	if second.Credential != "" {
		t.Error("reuse must not mint a new credential")
	}
	if second.User.Name != "Rahim Uddin" {
		t.Errorf("reuse should refresh the display name, got %q", second.User.Name)
	}

	var count int64
	db.Model(&model.User{}).Where("institution_id = ?", institution.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one user, found %d", count)
	}
}

func TestProvisionRoleUserRequiresEmail(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	svc := NewProvisionService(db)

	if _, err := svc.ProvisionRoleUser(nil, institution.ID, model.RoleTeacher, "", "Rahim", "TCH-001"); err == nil {
		t.Fatal("expected an error for an empty email")
	}
}
