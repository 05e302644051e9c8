package model

import (
	"time"

	"gorm.io/gorm"
)

// Registry records are the institution's own roster rows (teachers, students,
// parents). They exist independently of any login account: a self-service
// signup is only accepted when it matches one of these rows.

// Teacher is a staff registry record. TeacherCode doubles as the password seed
// when a login is provisioned for the teacher.
type Teacher struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	InstitutionID uint           `gorm:"not null;index" json:"institution_id"`
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"index;type:varchar(254)" json:"email"`
	Phone         string         `gorm:"type:varchar(20)" json:"phone"`
	TeacherCode   string         `gorm:"type:varchar(50)" json:"teacher_code"`
	UserID        *uint          `gorm:"index" json:"user_id,omitempty"` // login reference, set once a User exists

	// Relationships
	Institution Institution              `gorm:"foreignKey:InstitutionID" json:"-"`
	User        *User                    `gorm:"foreignKey:UserID" json:"-"`
	Assignments []TeacherClassAssignment `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

// Student is a pupil registry record.
type Student struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	InstitutionID uint           `gorm:"not null;index" json:"institution_id"`
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"index;type:varchar(254)" json:"email"`
	Phone         string         `gorm:"type:varchar(20)" json:"phone"`
	AdmissionNo   string         `gorm:"type:varchar(50)" json:"admission_no"`
	ClassID       *uint          `gorm:"index" json:"class_id,omitempty"`

	// Relationships
	Institution Institution  `gorm:"foreignKey:InstitutionID" json:"-"`
	Class       *SchoolClass `gorm:"foreignKey:ClassID" json:"-"`
	Parents     []Parent     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// Parent is a guardian registry record. It has no institution column of its
// own: tenancy is derived through the owning student.
type Parent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID uint           `gorm:"not null;index" json:"student_id"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"index;type:varchar(254)" json:"email"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Relation  string         `gorm:"type:varchar(30)" json:"relation"` // father, mother, guardian

	// Relationships
	Student Student `gorm:"foreignKey:StudentID" json:"-"`
}

// SchoolClass is a class/section within an institution. ClassTeacherID points
// at the teacher responsible for the class as a whole.
type SchoolClass struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	InstitutionID  uint           `gorm:"not null;index" json:"institution_id"`
	Name           string         `gorm:"not null" json:"name"`
	ClassTeacherID *uint          `gorm:"index" json:"class_teacher_id,omitempty"`

	// Relationships
	Institution  Institution              `gorm:"foreignKey:InstitutionID" json:"-"`
	ClassTeacher *Teacher                 `gorm:"foreignKey:ClassTeacherID" json:"-"`
	Students     []Student                `gorm:"foreignKey:ClassID" json:"-"`
	Assignments  []TeacherClassAssignment `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SchoolClass
func (SchoolClass) TableName() string {
	return "school_classes"
}

// TeacherClassAssignment links a teacher to a class for a subject. Teacher
// visibility is the union of class-teacher links and these assignments.
type TeacherClassAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	Subject   string    `gorm:"type:varchar(100)" json:"subject"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Teacher Teacher     `gorm:"foreignKey:TeacherID" json:"-"`
	Class   SchoolClass `gorm:"foreignKey:ClassID" json:"-"`
}

// TableName specifies the table name for TeacherClassAssignment
func (TeacherClassAssignment) TableName() string {
	return "teacher_class_assignments"
}
