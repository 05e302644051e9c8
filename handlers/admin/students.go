package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/identity"
	"github.com/opencampus/campus-api/utils/middleware"
	"github.com/opencampus/campus-api/utils/response"
	"github.com/opencampus/campus-api/utils/validation"
	"gorm.io/gorm"
)

// CreateStudentRequest is the roster entry payload for a pupil
type CreateStudentRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty"`
	AdmissionNo string `json:"admission_no" validate:"required"`
	ClassID     *uint  `json:"class_id,omitempty"`
}

// CreateStudent adds a student to the institution's registry. Students do not
// get a login here; they gain one through the access-request flow.
// POST /admin/students
func (h *AdminHandler) CreateStudent(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	var duplicate int64
	h.db.Model(&model.Student{}).
		Where("institution_id = ? AND admission_no = ?", admin.InstitutionID, req.AdmissionNo).
		Count(&duplicate)
	if duplicate > 0 {
		return response.Conflict(c, "A student with this admission number already exists")
	}

	if req.ClassID != nil {
		var class model.SchoolClass
		err := h.db.Where("id = ? AND institution_id = ?", *req.ClassID, admin.InstitutionID).
			First(&class).Error
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Class not found")
		}
		if err != nil {
			return response.InternalServerError(c, "Failed to verify class")
		}
	}

	student := model.Student{
		InstitutionID: admin.InstitutionID,
		Name:          req.Name,
		Email:         identity.NormalizeEmail(req.Email),
		Phone:         identity.NormalizePhone(req.Phone),
		AdmissionNo:   req.AdmissionNo,
		ClassID:       req.ClassID,
	}
	if err := h.db.Create(&student).Error; err != nil {
		return response.InternalServerError(c, "Failed to create student")
	}

	return response.Created(c, student)
}

// ListStudents retrieves the institution's student registry with pagination
// and an optional class filter
// GET /admin/students
func (h *AdminHandler) ListStudents(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Student{}).Where("institution_id = ?", admin.InstitutionID)
	if classIDStr := c.Query("class_id"); classIDStr != "" {
		if classID, err := strconv.ParseUint(classIDStr, 10, 32); err == nil {
			query = query.Where("class_id = ?", classID)
		}
	}

	var total int64
	query.Count(&total)

	var students []model.Student
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("name ASC").Find(&students).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch students")
	}

	return response.SuccessWithMessage(c, "Students retrieved successfully", fiber.Map{
		"students": students,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}
