package admin

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/model"
	"github.com/opencampus/campus-api/services"
	"github.com/opencampus/campus-api/utils/middleware"
	"github.com/opencampus/campus-api/utils/response"
	"gorm.io/gorm"
)

// ListAccessRequests retrieves the caller's institution's access requests
// with pagination and optional status/scope filters
// GET /admin/access-requests
func (h *AdminHandler) ListAccessRequests(c *fiber.Ctx) error {
	reviewer, ok := middleware.GetCurrentUser(c)
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

	query := h.db.Model(&model.AccessRequest{}).
		Where("institution_id = ?", reviewer.InstitutionID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if scope := c.Query("scope"); scope != "" {
		query = query.Where("scope = ?", scope)
	}

	var total int64
	query.Count(&total)

	var requests []model.AccessRequest
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("requested_at DESC").Find(&requests).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch access requests")
	}

	return response.SuccessWithMessage(c, "Access requests retrieved successfully", fiber.Map{
		"requests": requests,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// ApproveAccessRequest approves a pending request, minting or reusing the
// login account
// POST /admin/access-requests/:id/approve
func (h *AdminHandler) ApproveAccessRequest(c *fiber.Ctx) error {
	reviewer, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	requestID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}
	if err := h.requireSameInstitution(uint(requestID), reviewer); err != nil {
		return h.requestLookupError(c, err)
	}

	user, err := h.accessRequests.Approve(c.Context(), uint(requestID), reviewer, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotPending):
			return response.Conflict(c, "Only pending requests can be approved")
		case errors.Is(err, services.ErrIdentityConflict):
			return response.Conflict(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Access request not found")
		default:
			return response.InternalServerError(c, "Failed to approve access request")
		}
	}

	return response.SuccessWithMessage(c, "Access request approved", fiber.Map{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	})
}

// RejectRequestBody carries the optional rejection reason
type RejectRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

// RejectAccessRequest rejects a pending request with a reason
// POST /admin/access-requests/:id/reject
func (h *AdminHandler) RejectAccessRequest(c *fiber.Ctx) error {
	reviewer, ok := middleware.GetCurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	requestID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid request ID")
	}
	if err := h.requireSameInstitution(uint(requestID), reviewer); err != nil {
		return h.requestLookupError(c, err)
	}

	var body RejectRequestBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	if err := h.accessRequests.Reject(c.Context(), uint(requestID), reviewer, body.Reason, c.IP()); err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotPending):
			return response.Conflict(c, "Only pending requests can be rejected")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Access request not found")
		default:
			return response.InternalServerError(c, "Failed to reject access request")
		}
	}

	return response.SuccessWithMessage(c, "Access request rejected", nil)
}

var errForeignInstitution = errors.New("request belongs to another institution")

// requireSameInstitution hides other tenants' requests from the reviewer.
func (h *AdminHandler) requireSameInstitution(requestID uint, reviewer *model.User) error {
	var request model.AccessRequest
	if err := h.db.Select("id", "institution_id").First(&request, requestID).Error; err != nil {
		return err
	}
	if request.InstitutionID != reviewer.InstitutionID {
		return errForeignInstitution
	}
	return nil
}

func (h *AdminHandler) requestLookupError(c *fiber.Ctx, err error) error {
	// A foreign-tenant request is indistinguishable from a missing one.
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errForeignInstitution) {
		return response.NotFound(c, "Access request not found")
	}
	return response.InternalServerError(c, "Failed to load access request")
}
