package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/utils/middleware"
	"github.com/opencampus/campus-api/utils/response"
	"gorm.io/gorm"
)

// ListAuditLogs retrieves the institution's audit trail with pagination.
// Logs carry no tenant column of their own; scoping goes through the acting
// user.
// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	// Pagination
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.AuditLog{}).
		Joins("JOIN users ON users.id = audit_logs.user_id").
		Where("users.institution_id = ?", admin.InstitutionID)

	if action := c.Query("action"); action != "" {
		query = query.Where("audit_logs.action = ?", action)
	}
	if entity := c.Query("entity"); entity != "" {
		query = query.Where("audit_logs.entity = ?", entity)
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := strconv.ParseUint(userIDStr, 10, 32); err == nil {
			query = query.Where("audit_logs.user_id = ?", userID)
		}
	}

	var total int64
	query.Count(&total)

	var logs []model.AuditLog
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("audit_logs.created_at DESC").Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.SuccessWithMessage(c, "Audit logs retrieved successfully", fiber.Map{
		"logs": logs,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetAuditLog retrieves a specific audit log entry
// GET /admin/audit-logs/:id
func (h *AdminHandler) GetAuditLog(c *fiber.Ctx) error {
	admin, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	logID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid log ID")
	}

	var log model.AuditLog
	err = h.db.
		Joins("JOIN users ON users.id = audit_logs.user_id").
		Where("users.institution_id = ?", admin.InstitutionID).
		First(&log, "audit_logs.id = ?", logID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.SuccessWithMessage(c, "Audit log retrieved successfully", log)
}
