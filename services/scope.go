package services

import (
	"context"

	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/auth"
	"github.com/opencampus/campus-api/utils/identity"
	"gorm.io/gorm"
)

// StudentVisibility expresses which student rows a principal may see. It is
// either unrestricted within the tenant (admin tier) or a fixed set of
// student IDs. The zero value matches nothing: scopes fail closed.
type StudentVisibility struct {
	All        bool
	StudentIDs []uint
}

// Scope returns a GORM scope implementing the visibility as a predicate on
// the students table. Call sites must still AND their own institution filter;
// the predicate never embeds the tenant id on their behalf.
func (v StudentVisibility) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v.All {
			return db
		}
		if len(v.StudentIDs) == 0 {
			return db.Where("1 = 0") // fail closed, never fail open
		}
		return db.Where("students.id IN ?", v.StudentIDs)
	}
}

// ScopeService resolves the authenticated principal to the visibility its
// role permits. "Nothing visible" is a normal return value, not an error.
type ScopeService struct {
	db *gorm.DB
}

// NewScopeService creates a new scope service
func NewScopeService(db *gorm.DB) *ScopeService {
	return &ScopeService{db: db}
}

// Resolve builds the visibility for a principal.
//   - Admin tier: full tenant visibility (institution filter is applied by
//     the call site).
//   - Teacher: students of the classes the teacher is assigned to, via
//     class-teacher or subject assignment. Zero assignments -> empty set.
//   - Student: the single registry row matching the caller's own email or
//     phone tail.
//   - Parent: students linked to a Parent row matching the caller.
func (s *ScopeService) Resolve(ctx context.Context, p auth.Principal) (StudentVisibility, error) {
	if !p.Valid() {
		return StudentVisibility{}, nil
	}

	switch p.Role {
	case model.RoleSuperAdmin, model.RoleAdmin, model.RolePrincipal, model.RoleStaff:
		return StudentVisibility{All: true}, nil
	case model.RoleTeacher:
		return s.teacherVisibility(ctx, p)
	case model.RoleStudent:
		return s.studentVisibility(ctx, p)
	case model.RoleParent:
		return s.parentVisibility(ctx, p)
	}
	return StudentVisibility{}, nil
}

func (s *ScopeService) teacherVisibility(ctx context.Context, p auth.Principal) (StudentVisibility, error) {
	// The teacher roster row is found through the login reference first,
	// falling back to identifier matching for rows approved before the
	// backfill existed.
	var teacher *model.Teacher
	var byLogin model.Teacher
	err := s.db.WithContext(ctx).
		Where("institution_id = ? AND user_id = ?", p.InstitutionID, p.UserID).
		First(&byLogin).Error
	if err == nil {
		teacher = &byLogin
	} else if err != gorm.ErrRecordNotFound {
		return StudentVisibility{}, err
	} else {
		teacher, err = s.matchTeacherByIdentity(ctx, p)
		if err != nil {
			return StudentVisibility{}, err
		}
	}
	if teacher == nil {
		return StudentVisibility{}, nil
	}

	classIDs := map[uint]bool{}

	var classes []model.SchoolClass
	if err := s.db.WithContext(ctx).
		Where("institution_id = ? AND class_teacher_id = ?", p.InstitutionID, teacher.ID).
		Find(&classes).Error; err != nil {
		return StudentVisibility{}, err
	}
	for _, c := range classes {
		classIDs[c.ID] = true
	}

	var assignments []model.TeacherClassAssignment
	if err := s.db.WithContext(ctx).
		Where("teacher_id = ?", teacher.ID).
		Find(&assignments).Error; err != nil {
		return StudentVisibility{}, err
	}
	for _, a := range assignments {
		classIDs[a.ClassID] = true
	}

	if len(classIDs) == 0 {
		return StudentVisibility{}, nil // no classes assigned: sees nothing
	}

	ids := make([]uint, 0, len(classIDs))
	for id := range classIDs {
		ids = append(ids, id)
	}

	var students []model.Student
	if err := s.db.WithContext(ctx).
		Where("institution_id = ? AND class_id IN ?", p.InstitutionID, ids).
		Order("id ASC").
		Find(&students).Error; err != nil {
		return StudentVisibility{}, err
	}

	return StudentVisibility{StudentIDs: studentIDs(students)}, nil
}

func (s *ScopeService) matchTeacherByIdentity(ctx context.Context, p auth.Principal) (*model.Teacher, error) {
	var teachers []model.Teacher
	if err := s.db.WithContext(ctx).
		Where("institution_id = ?", p.InstitutionID).
		Order("id ASC").
		Find(&teachers).Error; err != nil {
		return nil, err
	}
	for i := range teachers {
		if identity.EmailsMatch(p.Email, teachers[i].Email) || identity.PhonesMatch(p.Phone, teachers[i].Phone) {
			return &teachers[i], nil
		}
	}
	return nil, nil
}

func (s *ScopeService) studentVisibility(ctx context.Context, p auth.Principal) (StudentVisibility, error) {
	var students []model.Student
	if err := s.db.WithContext(ctx).
		Where("institution_id = ?", p.InstitutionID).
		Order("id ASC").
		Find(&students).Error; err != nil {
		return StudentVisibility{}, err
	}
	for i := range students {
		if identity.EmailsMatch(p.Email, students[i].Email) || identity.PhonesMatch(p.Phone, students[i].Phone) {
			// A student sees exactly their own record.
			return StudentVisibility{StudentIDs: []uint{students[i].ID}}, nil
		}
	}
	return StudentVisibility{}, nil
}

func (s *ScopeService) parentVisibility(ctx context.Context, p auth.Principal) (StudentVisibility, error) {
	var parents []model.Parent
	if err := s.db.WithContext(ctx).
		Joins("JOIN students ON students.id = parents.student_id").
		Where("students.institution_id = ? AND students.deleted_at IS NULL", p.InstitutionID).
		Order("parents.id ASC").
		Find(&parents).Error; err != nil {
		return StudentVisibility{}, err
	}

	var ids []uint
	seen := map[uint]bool{}
	for i := range parents {
		if identity.EmailsMatch(p.Email, parents[i].Email) || identity.PhonesMatch(p.Phone, parents[i].Phone) {
			if !seen[parents[i].StudentID] {
				seen[parents[i].StudentID] = true
				ids = append(ids, parents[i].StudentID)
			}
		}
	}
	return StudentVisibility{StudentIDs: ids}, nil
}

func studentIDs(students []model.Student) []uint {
	ids := make([]uint, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	return ids
}
