package services

import (
	"context"
	"testing"

	"github.com/opencampus/campus-api/model"
)

func TestFindMatchEmailOnly(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createTeacherRow(t, db, institution.ID, "Rahim Uddin", "rahim@greenfield.edu", "+8801712345678", "TCH-001")

	svc := NewRegistryService(db)

	match, err := svc.FindMatch(context.Background(), institution.ID, model.ScopeTeacher, "RAHIM@greenfield.edu", "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if match == nil || match.Teacher == nil {
		t.Fatal("expected a teacher match for a case-insensitive email claim")
	}
	if match.Teacher.TeacherCode != "TCH-001" {
		t.Errorf("matched wrong teacher: %+v", match.Teacher)
	}
}

func TestFindMatchPhoneTailVariants(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createStudentRow(t, db, institution.ID, "Arif", "", "01712345678", nil)

	svc := NewRegistryService(db)

	// The same subscriber number written with different dialing prefixes.
	for _, claim := range []string{"+8801712345678", "8801712345678", "01712345678", "1712345678"} {
		match, err := svc.FindMatch(context.Background(), institution.ID, model.ScopeStudent, "", claim)
		if err != nil {
			t.Fatalf("FindMatch(%q) returned error: %v", claim, err)
		}
		if match == nil || match.Student == nil {
			t.Errorf("expected claim %q to match the stored phone by tail", claim)
		}
	}

	// A different subscriber must not match.
	match, err := svc.FindMatch(context.Background(), institution.ID, model.ScopeStudent, "", "+8801799999999")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if match != nil {
		t.Error("expected no match for a different subscriber number")
	}
}

func TestFindMatchRequiresBothWhenBothSupplied(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createTeacherRow(t, db, institution.ID, "Rahim Uddin", "rahim@greenfield.edu", "+8801712345678", "TCH-001")

	svc := NewRegistryService(db)

	// Email matches, phone does not: with both supplied the claim must fail.
	match, err := svc.FindMatch(context.Background(), institution.ID, model.ScopeTeacher, "rahim@greenfield.edu", "+8801700000000")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if match != nil {
		t.Error("expected no match when the phone contradicts the email")
	}

	match, err = svc.FindMatch(context.Background(), institution.ID, model.ScopeTeacher, "rahim@greenfield.edu", "01712345678")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if match == nil {
		t.Error("expected a match when both identifiers agree")
	}
}

func TestFindMatchScopedToInstitution(t *testing.T) {
	db := newTestDB(t)
	ours := createInstitution(t, db, "greenfield")
	theirs := createInstitution(t, db, "riverside")
	createTeacherRow(t, db, theirs.ID, "Rahim Uddin", "rahim@riverside.edu", "", "TCH-001")

	svc := NewRegistryService(db)

	match, err := svc.FindMatch(context.Background(), ours.ID, model.ScopeTeacher, "rahim@riverside.edu", "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if match != nil {
		t.Error("a roster row of another institution must never match")
	}
}

func TestFindMatchParentThroughStudent(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	other := createInstitution(t, db, "riverside")

	student := createStudentRow(t, db, institution.ID, "Arif", "", "", nil)
	createParentRow(t, db, student.ID, "Kamal", "kamal@example.com", "+8801711122233")

	foreignStudent := createStudentRow(t, db, other.ID, "Nadia", "", "", nil)
	createParentRow(t, db, foreignStudent.ID, "Foreign Kamal", "kamal@example.com", "")

	svc := NewRegistryService(db)

	match, err := svc.FindMatch(context.Background(), institution.ID, model.ScopeParent, "kamal@example.com", "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if match == nil || match.Parent == nil {
		t.Fatal("expected a parent match resolved through the owning student")
	}
	if match.Parent.StudentID != student.ID {
		t.Errorf("matched a parent from another tenant: %+v", match.Parent)
	}
}

func TestFindMatchEmptyClaim(t *testing.T) {
	db := newTestDB(t)
	institution := createInstitution(t, db, "greenfield")
	createTeacherRow(t, db, institution.ID, "Rahim Uddin", "", "", "TCH-001")

	svc := NewRegistryService(db)

	// Blank identifiers never match blank roster fields.
	match, err := svc.FindMatch(context.Background(), institution.ID, model.ScopeTeacher, "", "")
	if err != nil {
		t.Fatalf("FindMatch returned error: %v", err)
	}
	if match != nil {
		t.Error("an empty claim must not match anything")
	}
}
