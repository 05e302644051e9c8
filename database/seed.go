package database

import (
	"fmt"
	"log"
	"os"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"gorm.io/gorm"
)

// DemoInstitutionSlug is the only slug the development login provider is
// allowed to match. It is fixed here and never configurable.
const DemoInstitutionSlug = "demo-school"

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedDemoInstitution(); err != nil {
		return fmt.Errorf("failed to seed demo institution: %w", err)
	}

	if err := s.SeedDemoAdmin(); err != nil {
		return fmt.Errorf("failed to seed demo admin: %w", err)
	}

	if err := s.SeedDemoRegistry(); err != nil {
		return fmt.Errorf("failed to seed demo registry: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

// SeedDemoInstitution creates the fixed demo tenant if it does not exist.
func (s *Seeder) SeedDemoInstitution() error {
	var existing model.Institution
	err := s.db.Where("slug = ?", DemoInstitutionSlug).First(&existing).Error
	if err == nil {
		log.Println("Demo institution already exists, skipping")
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	institution := model.Institution{
		Slug:     DemoInstitutionSlug,
		Name:     "Demo School",
		Locale:   "en",
		Currency: "USD",
		Timezone: "UTC",
		Active:   true,
	}
	if err := s.db.Create(&institution).Error; err != nil {
		return err
	}

	log.Printf("Seeded institution %q (id=%d)", institution.Slug, institution.ID)
	return nil
}

// SeedDemoAdmin creates the demo admin login. The password comes from
// DEMO_ADMIN_PASSWORD, defaulting to a development-only value.
func (s *Seeder) SeedDemoAdmin() error {
	var institution model.Institution
	if err := s.db.Where("slug = ?", DemoInstitutionSlug).First(&institution).Error; err != nil {
		return err
	}

	email := "admin@demo-school.local"
	var existing model.User
	err := s.db.Where("institution_id = ? AND email = ?", institution.ID, email).First(&existing).Error
	if err == nil {
		log.Println("Demo admin already exists, skipping")
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	password := os.Getenv("DEMO_ADMIN_PASSWORD")
	if password == "" {
		password = "demo-admin-123"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:          email,
		PasswordHash:   hash,
		Name:           "Demo Admin",
		Role:           model.RoleAdmin,
		InstitutionID:  institution.ID,
		Active:         true,
		ApprovalStatus: model.ApprovalApproved,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded demo admin %q", admin.Email)
	return nil
}

// SeedDemoRegistry creates a small roster so access-request flows can be
// exercised against the demo tenant out of the box.
func (s *Seeder) SeedDemoRegistry() error {
	var institution model.Institution
	if err := s.db.Where("slug = ?", DemoInstitutionSlug).First(&institution).Error; err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&model.Teacher{}).Where("institution_id = ?", institution.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Demo registry already seeded, skipping")
		return nil
	}

	teacher := model.Teacher{
		InstitutionID: institution.ID,
		Name:          "Tahmina Rahman",
		Email:         "t.rahman@demo-school.local",
		Phone:         "+8801712345678",
		TeacherCode:   "TCH-001",
	}
	if err := s.db.Create(&teacher).Error; err != nil {
		return err
	}

	class := model.SchoolClass{
		InstitutionID:  institution.ID,
		Name:           "Grade 6 - A",
		ClassTeacherID: &teacher.ID,
	}
	if err := s.db.Create(&class).Error; err != nil {
		return err
	}

	student := model.Student{
		InstitutionID: institution.ID,
		Name:          "Arif Hossain",
		Email:         "arif@demo-school.local",
		Phone:         "+8801898765432",
		AdmissionNo:   "STU-1001",
		ClassID:       &class.ID,
	}
	if err := s.db.Create(&student).Error; err != nil {
		return err
	}

	parent := model.Parent{
		StudentID: student.ID,
		Name:      "Kamal Hossain",
		Email:     "kamal@demo-school.local",
		Phone:     "+8801711122233",
		Relation:  "father",
	}
	if err := s.db.Create(&parent).Error; err != nil {
		return err
	}

	log.Println("Seeded demo registry (1 teacher, 1 class, 1 student, 1 parent)")
	return nil
}
