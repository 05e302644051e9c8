package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/opencampus/campus-api/database"
	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database per test, migrated with the
// full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createInstitution(t *testing.T, db *gorm.DB, slug string) *model.Institution {
	t.Helper()
	institution := model.Institution{
		Slug:     slug,
		Name:     strings.ReplaceAll(slug, "-", " "),
		Locale:   "en",
		Currency: "USD",
		Timezone: "UTC",
		Active:   true,
	}
	if err := db.Create(&institution).Error; err != nil {
		t.Fatalf("failed to create institution %q: %v", slug, err)
	}
	return &institution
}

func createUser(t *testing.T, db *gorm.DB, institutionID uint, role, email, phone, password string) *model.User {
	t.Helper()
	hash := ""
	if password != "" {
		var err error
		hash, err = auth.HashPassword(password)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
	}
	user := model.User{
		Email:          email,
		Phone:          phone,
		PasswordHash:   hash,
		Name:           "Test User",
		Role:           role,
		InstitutionID:  institutionID,
		Active:         true,
		ApprovalStatus: model.ApprovalApproved,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", email, err)
	}
	return &user
}

func createTeacherRow(t *testing.T, db *gorm.DB, institutionID uint, name, email, phone, code string) *model.Teacher {
	t.Helper()
	teacher := model.Teacher{
		InstitutionID: institutionID,
		Name:          name,
		Email:         email,
		Phone:         phone,
		TeacherCode:   code,
	}
	if err := db.Create(&teacher).Error; err != nil {
		t.Fatalf("failed to create teacher row: %v", err)
	}
	return &teacher
}

func createStudentRow(t *testing.T, db *gorm.DB, institutionID uint, name, email, phone string, classID *uint) *model.Student {
	t.Helper()
	student := model.Student{
		InstitutionID: institutionID,
		Name:          name,
		Email:         email,
		Phone:         phone,
		AdmissionNo:   fmt.Sprintf("STU-%s", strings.ReplaceAll(name, " ", "")),
		ClassID:       classID,
	}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("failed to create student row: %v", err)
	}
	return &student
}

func createParentRow(t *testing.T, db *gorm.DB, studentID uint, name, email, phone string) *model.Parent {
	t.Helper()
	parent := model.Parent{
		StudentID: studentID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Relation:  "guardian",
	}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("failed to create parent row: %v", err)
	}
	return &parent
}

func createClass(t *testing.T, db *gorm.DB, institutionID uint, name string, classTeacherID *uint) *model.SchoolClass {
	t.Helper()
	class := model.SchoolClass{
		InstitutionID:  institutionID,
		Name:           name,
		ClassTeacherID: classTeacherID,
	}
	if err := db.Create(&class).Error; err != nil {
		t.Fatalf("failed to create class: %v", err)
	}
	return &class
}

func newAccessRequestService(db *gorm.DB) *AccessRequestService {
	return NewAccessRequestService(db, NewRegistryService(db), NewAuditService(db))
}
