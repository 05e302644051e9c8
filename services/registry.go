package services

import (
	"context"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/identity"
	"gorm.io/gorm"
)

// RegistryMatch is a hit against the institution's roster. Exactly one of
// Teacher/Student/Parent is set, per the scope.
type RegistryMatch struct {
	Scope   string
	Teacher *model.Teacher
	Student *model.Student
	Parent  *model.Parent
}

// RegistryService answers whether a claimed (institution, role, email/phone)
// tuple corresponds to an existing roster row. It is read-only; "no match" is
// a nil result, not an error.
type RegistryService struct {
	db *gorm.DB
}

// NewRegistryService creates a new registry service
func NewRegistryService(db *gorm.DB) *RegistryService {
	return &RegistryService{db: db}
}

// FindMatch looks for a roster row matching the identifiers. When both email
// and phone are supplied, both must match (stricter than either alone, to
// reduce false positives from inconsistently entered legacy data). Phone
// comparison is by tail suffix. When the store holds several candidates the
// first by creation order wins; the administrator review step is the backstop
// for that ambiguity.
func (s *RegistryService) FindMatch(ctx context.Context, institutionID uint, scope, email, phone string) (*RegistryMatch, error) {
	email = identity.NormalizeEmail(email)
	phone = identity.NormalizePhone(phone)
	if email == "" && phone == "" {
		return nil, nil
	}

	switch scope {
	case model.ScopeTeacher:
		var teachers []model.Teacher
		err := s.db.WithContext(ctx).
			Where("institution_id = ?", institutionID).
			Order("id ASC").
			Find(&teachers).Error
		if err != nil {
			return nil, err
		}
		for i := range teachers {
			if identifiersMatch(email, phone, teachers[i].Email, teachers[i].Phone) {
				return &RegistryMatch{Scope: scope, Teacher: &teachers[i]}, nil
			}
		}

	case model.ScopeStudent:
		var students []model.Student
		err := s.db.WithContext(ctx).
			Where("institution_id = ?", institutionID).
			Order("id ASC").
			Find(&students).Error
		if err != nil {
			return nil, err
		}
		for i := range students {
			if identifiersMatch(email, phone, students[i].Email, students[i].Phone) {
				return &RegistryMatch{Scope: scope, Student: &students[i]}, nil
			}
		}

	case model.ScopeParent:
		// Parents carry no institution column; tenancy comes through the
		// owning student.
		var parents []model.Parent
		err := s.db.WithContext(ctx).
			Joins("JOIN students ON students.id = parents.student_id").
			Where("students.institution_id = ? AND students.deleted_at IS NULL", institutionID).
			Order("parents.id ASC").
			Find(&parents).Error
		if err != nil {
			return nil, err
		}
		for i := range parents {
			if identifiersMatch(email, phone, parents[i].Email, parents[i].Phone) {
				return &RegistryMatch{Scope: scope, Parent: &parents[i]}, nil
			}
		}
	}

	return nil, nil
}

// identifiersMatch applies the AND-when-both policy against a single roster row.
func identifiersMatch(claimEmail, claimPhone, rowEmail, rowPhone string) bool {
	if claimEmail != "" && claimPhone != "" {
		return identity.EmailsMatch(claimEmail, rowEmail) && identity.PhonesMatch(claimPhone, rowPhone)
	}
	if claimEmail != "" {
		return identity.EmailsMatch(claimEmail, rowEmail)
	}
	return identity.PhonesMatch(claimPhone, rowPhone)
}
