package services

import (
	"context"
	"sort"
	"testing"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"gorm.io/gorm"
)

func principalFor(user *model.User) auth.Principal {
	return auth.Principal{
		UserID:        user.ID,
		Email:         user.Email,
		Phone:         user.Phone,
		Role:          user.Role,
		InstitutionID: user.InstitutionID,
	}
}

func visibleStudentIDs(t *testing.T, db *gorm.DB, institutionID uint, v StudentVisibility) []uint {
	t.Helper()
	var students []model.Student
	err := db.Model(&model.Student{}).
		Where("students.institution_id = ?", institutionID).
		Scopes(v.Scope()).
		Find(&students).Error
	if err != nil {
		t.Fatalf("failed to apply visibility scope: %v", err)
	}
	ids := make([]uint, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestAdminTierSeesWholeTenant(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createStudentRow(t, db, institution.ID, "Arif", "", "", nil)
	createStudentRow(t, db, institution.ID, "Nadia", "", "", nil)
	admin := createUser(t, db, institution.ID, model.RolePrincipal, "principal@greenfield.edu", "", "pass-word")

	svc := NewScopeService(db)
	visibility, err := svc.Resolve(context.Background(), principalFor(admin))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !visibility.All {
		t.Fatal("admin tier must see the whole tenant")
	}
	if got := visibleStudentIDs(t, db, institution.ID, visibility); len(got) != 2 {
		t.Errorf("expected 2 visible students, got %d", len(got))
	}
}

func TestTeacherWithoutClassesSeesNothing(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createStudentRow(t, db, institution.ID, "Arif", "", "", nil)

	teacherRow := createTeacherRow(t, db, institution.ID, "Rahim", "rahim@greenfield.edu", "", "TCH-001")
	login := createUser(t, db, institution.ID, model.RoleTeacher, "rahim@greenfield.edu", "", "pass-word")
	db.Model(teacherRow).Update("user_id", login.ID)

	svc := NewScopeService(db)
	visibility, err := svc.Resolve(context.Background(), principalFor(login))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if visibility.All {
		t.Fatal("a teacher must never get tenant-wide visibility")
	}
	if got := visibleStudentIDs(t, db, institution.ID, visibility); len(got) != 0 {
		t.Errorf("a teacher with no classes sees nothing, got %v", got)
	}
}

func TestTeacherSeesClassAndAssignmentStudents(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")

	teacherRow := createTeacherRow(t, db, institution.ID, "Rahim", "rahim@greenfield.edu", "", "TCH-001")
	login := createUser(t, db, institution.ID, model.RoleTeacher, "rahim@greenfield.edu", "", "pass-word")
	db.Model(teacherRow).Update("user_id", login.ID)

	homeClass := createClass(t, db, institution.ID, "Grade 6 - A", &teacherRow.ID)
	subjectClass := createClass(t, db, institution.ID, "Grade 7 - B", nil)
	otherClass := createClass(t, db, institution.ID, "Grade 8 - C", nil)

	inHome := createStudentRow(t, db, institution.ID, "Arif", "", "", &homeClass.ID)
	inSubject := createStudentRow(t, db, institution.ID, "Nadia", "", "", &subjectClass.ID)
	createStudentRow(t, db, institution.ID, "Hidden", "", "", &otherClass.ID)
	createStudentRow(t, db, institution.ID, "Unassigned", "", "", nil)

	assignment := model.TeacherClassAssignment{TeacherID: teacherRow.ID, ClassID: subjectClass.ID, Subject: "Mathematics"}
	if err := db.Create(&assignment).Error; err != nil {
		t.Fatalf("failed to create assignment: %v", err)
	}

	svc := NewScopeService(db)
	visibility, err := svc.Resolve(context.Background(), principalFor(login))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	got := visibleStudentIDs(t, db, institution.ID, visibility)
	want := []uint{inHome.ID, inSubject.ID}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	if len(got) != len(want) {
		t.Fatalf("visible students = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visible students = %v, want %v", got, want)
		}
	}
}

func TestTeacherResolvedByIdentityWithoutLoginReference(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")

	// Roster row never backfilled with the login id; identity matching is the
	// fallback.
	teacherRow := createTeacherRow(t, db, institution.ID, "Rahim", "", "+8801712345678", "TCH-001")
	login := createUser(t, db, institution.ID, model.RoleTeacher, "rahim@greenfield.edu", "01712345678", "pass-word")

	class := createClass(t, db, institution.ID, "Grade 6 - A", &teacherRow.ID)
	student := createStudentRow(t, db, institution.ID, "Arif", "", "", &class.ID)

	svc := NewScopeService(db)
	visibility, err := svc.Resolve(context.Background(), principalFor(login))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	got := visibleStudentIDs(t, db, institution.ID, visibility)
	if len(got) != 1 || got[0] != student.ID {
		t.Errorf("visible students = %v, want [%d]", got, student.ID)
	}
}

func TestStudentSeesOnlySelf(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")

	self := createStudentRow(t, db, institution.ID, "Arif", "arif@greenfield.edu", "", nil)
	createStudentRow(t, db, institution.ID, "Nadia", "nadia@greenfield.edu", "", nil)
	login := createUser(t, db, institution.ID, model.RoleStudent, "arif@greenfield.edu", "", "pass-word")

	svc := NewScopeService(db)
	visibility, err := svc.Resolve(context.Background(), principalFor(login))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	got := visibleStudentIDs(t, db, institution.ID, visibility)
	if len(got) != 1 || got[0] != self.ID {
		t.Errorf("visible students = %v, want only the caller's own row %d", got, self.ID)
	}
}

func TestParentSeesLinkedChildren(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")

	childA := createStudentRow(t, db, institution.ID, "Arif", "", "", nil)
	childB := createStudentRow(t, db, institution.ID, "Nadia", "", "", nil)
	createStudentRow(t, db, institution.ID, "Unrelated", "", "", nil)

	createParentRow(t, db, childA.ID, "Kamal", "kamal@example.com", "+8801711122233")
	createParentRow(t, db, childB.ID, "Kamal", "", "01711122233") // same guardian, tail variant

	login := createUser(t, db, institution.ID, model.RoleParent, "kamal@example.com", "+8801711122233", "pass-word")

	svc := NewScopeService(db)
	visibility, err := svc.Resolve(context.Background(), principalFor(login))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	got := visibleStudentIDs(t, db, institution.ID, visibility)
	if len(got) != 2 {
		t.Fatalf("visible students = %v, want both linked children", got)
	}
}

func TestZeroVisibilityFailsClosed(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createStudentRow(t, db, institution.ID, "Arif", "", "", nil)

	var zero StudentVisibility
	if got := visibleStudentIDs(t, db, institution.ID, zero); len(got) != 0 {
		t.Errorf("zero-value visibility must match nothing, got %v", got)
	}
}

func TestInvalidPrincipalResolvesToNothing(t *testing.T) {
	db := newTestDB(t)
	svc := NewScopeService(db)

	visibility, err := svc.Resolve(context.Background(), auth.Principal{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if visibility.All || len(visibility.StudentIDs) != 0 {
		t.Error("an invalid principal must resolve to empty visibility")
	}
}
