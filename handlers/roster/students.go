package roster

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/services"
	"github.com/opencampus/campus-api/utils/middleware"
	"github.com/opencampus/campus-api/utils/response"
	"gorm.io/gorm"
)

// RosterHandler serves roster reads filtered by the caller's role visibility:
// admins see the whole tenant, teachers their classes, students themselves,
// parents their children. An empty result is a normal answer.
type RosterHandler struct {
	db    *gorm.DB
	scope *services.ScopeService
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(db *gorm.DB, scope *services.ScopeService) *RosterHandler {
	return &RosterHandler{db: db, scope: scope}
}

// ListVisibleStudents retrieves the students the caller may see
// GET /roster/students
func (h *RosterHandler) ListVisibleStudents(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	visibility, err := h.scope.Resolve(c.Context(), principal)
	if err != nil {
		return response.InternalServerError(c, "Failed to resolve visibility")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Student{}).
		Where("students.institution_id = ?", principal.InstitutionID).
		Scopes(visibility.Scope())

	var total int64
	query.Count(&total)

	var students []model.Student
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("students.id ASC").Find(&students).Error; err != nil {
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
