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

// CreateTeacherRequest is the roster entry payload. ProvisionLogin mints a
// login account alongside the roster row.
type CreateTeacherRequest struct {
	Name           string `json:"name" validate:"required,min=2"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string `json:"phone,omitempty"`
	TeacherCode    string `json:"teacher_code" validate:"required"`
	ProvisionLogin bool   `json:"provision_login,omitempty"`
}

// CreateTeacher adds a teacher to the institution's registry, optionally
// minting a login in the same transaction so the roster row and the account
// either both exist or neither does
// POST /admin/teachers
func (h *AdminHandler) CreateTeacher(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.ProvisionLogin && req.Email == "" {
		return response.BadRequest(c, "Provisioning a login requires an email")
	}

	var duplicate int64
	h.db.Model(&model.Teacher{}).
		Where("institution_id = ? AND teacher_code = ?", admin.InstitutionID, req.TeacherCode).
		Count(&duplicate)
	if duplicate > 0 {
		return response.Conflict(c, "A teacher with this code already exists")
	}

	teacher := model.Teacher{
		InstitutionID: admin.InstitutionID,
		Name:          req.Name,
		Email:         identity.NormalizeEmail(req.Email),
		Phone:         identity.NormalizePhone(req.Phone),
		TeacherCode:   req.TeacherCode,
	}

	var credential string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&teacher).Error; err != nil {
			return err
		}
		if !req.ProvisionLogin {
			return nil
		}
		result, err := h.provision.ProvisionRoleUser(tx, admin.InstitutionID, model.RoleTeacher, teacher.Email, teacher.Name, teacher.TeacherCode)
		if err != nil {
			return err
		}
		credential = result.Credential
		teacher.UserID = &result.User.ID
		return tx.Model(&model.Teacher{}).
			Where("id = ?", teacher.ID).
			Update("user_id", result.User.ID).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create teacher")
	}

	data := fiber.Map{"teacher": teacher}
	if credential != "" {
		// One-time plaintext for out-of-band delivery; never persisted.
		data["credential"] = credential
	}
	return response.Created(c, data)
}

// ListTeachers retrieves the institution's teacher registry with pagination
// GET /admin/teachers
func (h *AdminHandler) ListTeachers(c *fiber.Ctx) error {
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

	query := h.db.Model(&model.Teacher{}).Where("institution_id = ?", admin.InstitutionID)

	var total int64
	query.Count(&total)

	var teachers []model.Teacher
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("name ASC").Find(&teachers).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch teachers")
	}

	return response.SuccessWithMessage(c, "Teachers retrieved successfully", fiber.Map{
		"teachers": teachers,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}
